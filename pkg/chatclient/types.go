// Package chatclient is a Go client for the chat API: a REST client, a
// reconnecting realtime socket, and the customer widget and admin console
// state machines built on them.
package chatclient

import (
	"errors"
	"sort"
	"time"
)

var (
	// ErrEmptyMessage is returned when the trimmed content is empty.
	ErrEmptyMessage = errors.New("chatclient: message is empty")
	// ErrConversationClosed is returned when sending to a closed conversation.
	ErrConversationClosed = errors.New("chatclient: conversation is closed")
	// ErrNoConversation is returned before a conversation is loaded or selected.
	ErrNoConversation = errors.New("chatclient: no conversation selected")
	// ErrNotConnected is returned when the realtime socket is down.
	ErrNotConnected = errors.New("chatclient: realtime socket not connected")
	// ErrUnauthorized is returned when the server rejects the credential.
	ErrUnauthorized = errors.New("chatclient: unauthorized")
)

// Conversation statuses.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Conversation mirrors the server conversation.
type Conversation struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOpen reports whether messages may be sent.
func (c *Conversation) IsOpen() bool {
	return c != nil && c.Status == StatusOpen
}

// Message mirrors the server message and the new_message payload.
type Message struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderRole     string    `json:"sender_role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func (m Message) before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

// Summary is one row of the admin conversation list.
type Summary struct {
	Conversation
	UserName         string  `json:"user_name"`
	UserEmail        string  `json:"user_email"`
	LastMessage      *string `json:"last_message"`
	UserMessageCount int64   `json:"user_message_count"`
}

// Ack is the message_ack payload.
type Ack struct {
	CorrelationID string `json:"correlationId"`
	Status        string `json:"status"`
	MessageID     uint   `json:"messageId,omitempty"`
}

func sortSummaries(list []Summary) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].UpdatedAt.After(list[j].UpdatedAt)
		}
		return list[i].ID > list[j].ID
	})
}
