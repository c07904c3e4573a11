package entities

import (
	"time"

	"rentacar-server/chat-api/internal/domain/conversation"
)

// Conversation is the conversations table.
type Conversation struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"type:text;not null;index:idx_conversations_user_created,priority:1"`
	Status    string    `gorm:"type:varchar(20);not null;default:'open'"`
	CreatedAt time.Time `gorm:"not null;index:idx_conversations_user_created,priority:2"`
	UpdatedAt time.Time `gorm:"not null;index:idx_conversations_updated_at"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// NewSchemaConversation converts a domain conversation.
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:        c.ID,
		UserID:    c.UserID,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// EtoD converts the row to the domain type.
func (c *Conversation) EtoD() *conversation.Conversation {
	return &conversation.Conversation{
		ID:        c.ID,
		UserID:    c.UserID,
		Status:    conversation.Status(c.Status),
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

// ConversationSummary is the admin list projection.
type ConversationSummary struct {
	ID               uint
	UserID           string
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	UserName         string
	UserEmail        string
	LastMessage      *string
	UserMessageCount int64
}

// EtoD converts the projection to the domain type.
func (s *ConversationSummary) EtoD() *conversation.Summary {
	return &conversation.Summary{
		Conversation: conversation.Conversation{
			ID:        s.ID,
			UserID:    s.UserID,
			Status:    conversation.Status(s.Status),
			CreatedAt: s.CreatedAt.UTC(),
			UpdatedAt: s.UpdatedAt.UTC(),
		},
		UserName:         s.UserName,
		UserEmail:        s.UserEmail,
		LastMessage:      s.LastMessage,
		UserMessageCount: s.UserMessageCount,
	}
}
