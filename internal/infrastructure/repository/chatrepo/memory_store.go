package chatrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"rentacar-server/chat-api/internal/domain/conversation"
	"rentacar-server/chat-api/internal/domain/identity"
	"rentacar-server/chat-api/internal/domain/message"
)

// MemoryStore keeps conversations, messages and a user directory in process.
// It backs local runs without DATABASE_URL and the tests.
type MemoryStore struct {
	mu            sync.RWMutex
	nextConvID    uint
	nextMessageID uint
	conversations map[uint]*conversation.Conversation
	messages      map[uint][]*message.Message
	users         map[string]UserRecord
}

// UserRecord is a directory entry used to label admin summaries.
type UserRecord struct {
	ID    string
	Name  string
	Email string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[uint]*conversation.Conversation),
		messages:      make(map[uint][]*message.Message),
		users:         make(map[string]UserRecord),
	}
}

// PutUser adds or replaces a directory entry.
func (s *MemoryStore) PutUser(u UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// Conversations returns the conversation repository view.
func (s *MemoryStore) Conversations() conversation.Repository {
	return memoryConversations{s}
}

// Messages returns the message repository view.
func (s *MemoryStore) Messages() message.Repository {
	return memoryMessages{s}
}

type memoryConversations struct{ s *MemoryStore }

func (r memoryConversations) Create(ctx context.Context, conv *conversation.Conversation) error {
	if err := ctx.Err(); err != nil {
		return dbError(ctx, "failed to create conversation", err)
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextConvID++
	conv.ID = s.nextConvID
	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = conv.CreatedAt
	}
	stored := *conv
	s.conversations[conv.ID] = &stored
	return nil
}

func (r memoryConversations) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, notFound(ctx, fmt.Sprintf("conversation not found: %d", id))
	}
	clone := *conv
	return &clone, nil
}

func (r memoryConversations) FindLatestByUser(ctx context.Context, userID string) (*conversation.Conversation, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *conversation.Conversation
	for _, conv := range s.conversations {
		if conv.UserID != userID {
			continue
		}
		if latest == nil || conv.CreatedAt.After(latest.CreatedAt) ||
			(conv.CreatedAt.Equal(latest.CreatedAt) && conv.ID > latest.ID) {
			latest = conv
		}
	}
	if latest == nil {
		return nil, notFound(ctx, "user has no conversation")
	}
	clone := *latest
	return &clone, nil
}

func (r memoryConversations) ListSummaries(_ context.Context) ([]*conversation.Summary, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*conversation.Summary, 0, len(s.conversations))
	for _, conv := range s.conversations {
		summary := &conversation.Summary{Conversation: *conv}
		if u, ok := s.users[conv.UserID]; ok {
			summary.UserName = u.Name
			summary.UserEmail = u.Email
		}
		msgs := s.messages[conv.ID]
		if n := len(msgs); n > 0 {
			last := msgs[n-1].Content
			summary.LastMessage = &last
		}
		for _, m := range msgs {
			if m.SenderRole == identity.RoleUser {
				summary.UserMessageCount++
			}
		}
		result = append(result, summary)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r memoryConversations) UpdateStatus(ctx context.Context, id uint, status conversation.Status) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return notFound(ctx, fmt.Sprintf("conversation not found: %d", id))
	}
	conv.Status = status
	return nil
}

func (r memoryConversations) Touch(ctx context.Context, id uint, at time.Time) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return notFound(ctx, fmt.Sprintf("conversation not found: %d", id))
	}
	conv.UpdatedAt = at
	return nil
}

type memoryMessages struct{ s *MemoryStore }

func (r memoryMessages) Create(ctx context.Context, msg *message.Message) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[msg.ConversationID]; !ok {
		return dbError(ctx, "failed to append message", fmt.Errorf("conversation %d does not exist", msg.ConversationID))
	}

	s.nextMessageID++
	msg.ID = s.nextMessageID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	stored := *msg

	// Keep the slice in (created_at, id) order so reads never sort.
	list := s.messages[msg.ConversationID]
	idx := sort.Search(len(list), func(i int) bool { return stored.Before(list[i]) })
	list = append(list, nil)
	copy(list[idx+1:], list[idx:])
	list[idx] = &stored
	s.messages[msg.ConversationID] = list
	return nil
}

func (r memoryMessages) ListByConversation(_ context.Context, conversationID uint) ([]*message.Message, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMessages(s.messages[conversationID]), nil
}

func (r memoryMessages) ListAfter(_ context.Context, conversationID uint, afterID uint, limit int) ([]*message.Message, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.messages[conversationID]
	start := 0
	if afterID > 0 {
		start = len(list)
		for i, m := range list {
			if m.ID == afterID {
				start = i + 1
				break
			}
		}
	}

	end := len(list)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	if start >= end {
		return []*message.Message{}, nil
	}
	return cloneMessages(list[start:end]), nil
}

func cloneMessages(list []*message.Message) []*message.Message {
	result := make([]*message.Message, 0, len(list))
	for _, m := range list {
		clone := *m
		result = append(result, &clone)
	}
	return result
}
