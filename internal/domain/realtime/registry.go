package realtime

import (
	"sort"
	"strconv"
	"sync"
)

// AdminRoom receives every new message regardless of conversation.
const AdminRoom = "admins"

// ConversationRoom names the room of a single conversation.
func ConversationRoom(id uint) string {
	return "conversation:" + strconv.FormatUint(uint64(id), 10)
}

// Member is a connection that can sit in rooms. Deliver must not block; it
// reports false when the event was dropped.
type Member interface {
	ID() string
	Deliver(evt Event) bool
	Close()
}

// Registry tracks room membership for the connections of this instance.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]map[string]Member
	memberOf map[string]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]map[string]Member),
		memberOf: make(map[string]map[string]struct{}),
	}
}

// Join adds the member to room. It returns false if it was already there.
func (r *Registry) Join(m Member, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]Member)
		r.rooms[room] = members
	}
	if _, exists := members[m.ID()]; exists {
		return false
	}
	members[m.ID()] = m

	rooms, ok := r.memberOf[m.ID()]
	if !ok {
		rooms = make(map[string]struct{})
		r.memberOf[m.ID()] = rooms
	}
	rooms[room] = struct{}{}
	return true
}

// Leave removes the member from room. It returns false if it was not there.
func (r *Registry) Leave(m Member, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(m.ID(), room)
}

// LeaveAll removes the member from every room and returns the rooms it left.
func (r *Registry) LeaveAll(m Member) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	left := make([]string, 0, len(r.memberOf[m.ID()]))
	for room := range r.memberOf[m.ID()] {
		left = append(left, room)
	}
	for _, room := range left {
		r.leaveLocked(m.ID(), room)
	}
	sort.Strings(left)
	return left
}

func (r *Registry) leaveLocked(memberID, room string) bool {
	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	if _, exists := members[memberID]; !exists {
		return false
	}
	delete(members, memberID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}

	if rooms, ok := r.memberOf[memberID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.memberOf, memberID)
		}
	}
	return true
}

// Rooms returns the rooms the member is in, sorted.
func (r *Registry) Rooms(m Member) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, 0, len(r.memberOf[m.ID()]))
	for room := range r.memberOf[m.ID()] {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

// InRoom reports whether the member is in room.
func (r *Registry) InRoom(m Member, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][m.ID()]
	return ok
}

// RoomSize returns the number of members in room.
func (r *Registry) RoomSize(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// Broadcast delivers evt once to every member of any of the rooms, even when a
// member sits in several of them.
func (r *Registry) Broadcast(evt Event, rooms ...string) (delivered, dropped int) {
	r.mu.RLock()
	seen := make(map[string]struct{})
	targets := make([]Member, 0)
	for _, room := range rooms {
		for id, m := range r.rooms[room] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			targets = append(targets, m)
		}
	}
	r.mu.RUnlock()

	for _, m := range targets {
		if m.Deliver(evt) {
			delivered++
		} else {
			dropped++
		}
	}
	return delivered, dropped
}
