package chatclient

import (
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

const seenWindow = 4096

// MessageLog is the ordered, de-duplicated history of one conversation. The
// same message may arrive from a history fetch and from the socket; it is
// kept once.
type MessageLog struct {
	mu       sync.RWMutex
	messages []Message
	seen     *lru.Cache
}

// NewMessageLog creates an empty log.
func NewMessageLog() *MessageLog {
	seen, err := lru.New(seenWindow)
	if err != nil {
		panic(err)
	}
	return &MessageLog{seen: seen}
}

// Add inserts m in (created_at, id) order. It reports false for a duplicate.
func (l *MessageLog) Add(m Message) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addLocked(m)
}

// Merge adds every message and returns how many were new.
func (l *MessageLog) Merge(list []Message) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	for _, m := range list {
		if l.addLocked(m) {
			added++
		}
	}
	return added
}

// Reset drops every message.
func (l *MessageLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
	l.seen.Purge()
}

// Messages returns a copy of the log, oldest first.
func (l *MessageLog) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages.
func (l *MessageLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

func (l *MessageLog) addLocked(m Message) bool {
	if l.contains(m.ID) {
		return false
	}
	l.seen.Add(m.ID, struct{}{})

	idx := sort.Search(len(l.messages), func(i int) bool { return m.before(l.messages[i]) })
	l.messages = append(l.messages, Message{})
	copy(l.messages[idx+1:], l.messages[idx:])
	l.messages[idx] = m
	return true
}

// contains checks the LRU window first; only logs longer than the window
// need the linear scan.
func (l *MessageLog) contains(id uint) bool {
	if l.seen.Contains(id) {
		return true
	}
	if len(l.messages) < seenWindow {
		return false
	}
	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].ID == id {
			return true
		}
	}
	return false
}
