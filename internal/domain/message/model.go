package message

import (
	"time"

	"rentacar-server/chat-api/internal/domain/identity"
)

// Message is an immutable chat line. Within a conversation messages are
// ordered by (CreatedAt, ID).
type Message struct {
	ID             uint          `json:"id"`
	ConversationID uint          `json:"conversation_id"`
	SenderID       string        `json:"sender_id"`
	SenderRole     identity.Role `json:"sender_role"`
	Content        string        `json:"content"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Before reports whether m sorts before other in conversation order.
func (m *Message) Before(other *Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}
