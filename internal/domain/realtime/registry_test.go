package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMember struct {
	id     string
	mu     sync.Mutex
	events []Event
	full   bool
	closed bool
}

func newFakeMember(id string) *fakeMember {
	return &fakeMember{id: id}
}

func (m *fakeMember) ID() string { return m.id }

func (m *fakeMember) Deliver(evt Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return false
	}
	m.events = append(m.events, evt)
	return true
}

func (m *fakeMember) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

func (m *fakeMember) received(name string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, evt := range m.events {
		if evt.Name == name {
			out = append(out, evt)
		}
	}
	return out
}

func TestRegistryJoinLeave(t *testing.T) {
	r := NewRegistry()
	a := newFakeMember("a")

	assert.True(t, r.Join(a, "room-1"))
	assert.False(t, r.Join(a, "room-1"))
	assert.True(t, r.InRoom(a, "room-1"))
	assert.Equal(t, 1, r.RoomSize("room-1"))

	assert.True(t, r.Leave(a, "room-1"))
	assert.False(t, r.Leave(a, "room-1"))
	assert.Zero(t, r.RoomSize("room-1"))
	assert.Empty(t, r.Rooms(a))
}

func TestRegistryLeaveAll(t *testing.T) {
	r := NewRegistry()
	a := newFakeMember("a")
	b := newFakeMember("b")

	r.Join(a, AdminRoom)
	r.Join(a, ConversationRoom(2))
	r.Join(a, ConversationRoom(1))
	r.Join(b, ConversationRoom(1))

	left := r.LeaveAll(a)
	assert.Equal(t, []string{AdminRoom, "conversation:1", "conversation:2"}, left)
	assert.Empty(t, r.Rooms(a))
	assert.Equal(t, 1, r.RoomSize(ConversationRoom(1)))
	assert.Zero(t, r.RoomSize(AdminRoom))
	assert.Empty(t, r.LeaveAll(a))
}

func TestRegistryBroadcastDeduplicates(t *testing.T) {
	r := NewRegistry()
	admin := newFakeMember("admin")
	customer := newFakeMember("customer")
	bystander := newFakeMember("bystander")

	r.Join(admin, AdminRoom)
	r.Join(admin, ConversationRoom(7))
	r.Join(customer, ConversationRoom(7))
	r.Join(bystander, ConversationRoom(8))

	delivered, dropped := r.Broadcast(Event{Name: EventNewMessage}, ConversationRoom(7), AdminRoom)
	assert.Equal(t, 2, delivered)
	assert.Zero(t, dropped)
	assert.Len(t, admin.received(EventNewMessage), 1)
	assert.Len(t, customer.received(EventNewMessage), 1)
	assert.Empty(t, bystander.received(EventNewMessage))
}

func TestRegistryBroadcastCountsDrops(t *testing.T) {
	r := NewRegistry()
	slow := newFakeMember("slow")
	slow.full = true
	r.Join(slow, AdminRoom)

	delivered, dropped := r.Broadcast(Event{Name: EventNewMessage}, AdminRoom)
	assert.Zero(t, delivered)
	assert.Equal(t, 1, dropped)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := newFakeMember(string(rune('a' + i)))
			r.Join(m, AdminRoom)
			r.Broadcast(Event{Name: EventNewMessage}, AdminRoom)
			r.LeaveAll(m)
		}(i)
	}
	wg.Wait()
	require.Zero(t, r.RoomSize(AdminRoom))
}
