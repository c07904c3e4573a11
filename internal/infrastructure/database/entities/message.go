package entities

import (
	"time"

	"rentacar-server/chat-api/internal/domain/identity"
	"rentacar-server/chat-api/internal/domain/message"
)

// Message is the messages table. Rows are never updated.
type Message struct {
	ID             uint      `gorm:"primaryKey"`
	ConversationID uint      `gorm:"not null;index:idx_messages_conversation_created,priority:1"`
	SenderID       string    `gorm:"type:text;not null"`
	SenderRole     string    `gorm:"type:varchar(10);not null"`
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"not null;index:idx_messages_conversation_created,priority:2"`

	Conversation *Conversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// NewSchemaMessage converts a domain message.
func NewSchemaMessage(m *message.Message) *Message {
	return &Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderRole:     string(m.SenderRole),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

// EtoD converts the row to the domain type.
func (m *Message) EtoD() *message.Message {
	return &message.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderRole:     identity.Role(m.SenderRole),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt.UTC(),
	}
}
