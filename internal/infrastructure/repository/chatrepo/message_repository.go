package chatrepo

import (
	"context"

	"gorm.io/gorm"

	"rentacar-server/chat-api/internal/domain/message"
	"rentacar-server/chat-api/internal/infrastructure/database/entities"
)

// MessageRepository is the PostgreSQL message log.
type MessageRepository struct {
	db *gorm.DB
}

var _ message.Repository = (*MessageRepository)(nil)

// NewMessageRepository builds a message repository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends the message and copies the generated id back.
func (r *MessageRepository) Create(ctx context.Context, msg *message.Message) error {
	entity := entities.NewSchemaMessage(msg)
	if err := r.db.WithContext(ctx).Omit("Conversation").Create(entity).Error; err != nil {
		return dbError(ctx, "failed to append message", err)
	}
	msg.ID = entity.ID
	msg.CreatedAt = entity.CreatedAt.UTC()
	return nil
}

// ListByConversation returns every message, oldest first.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID uint) ([]*message.Message, error) {
	var rows []entities.Message
	err := r.ordered(ctx).
		Where("conversation_id = ?", conversationID).
		Find(&rows).Error
	if err != nil {
		return nil, dbError(ctx, "failed to list messages", err)
	}
	return toDomain(rows), nil
}

// ListAfter returns up to limit messages sorting after afterID, oldest first.
func (r *MessageRepository) ListAfter(ctx context.Context, conversationID uint, afterID uint, limit int) ([]*message.Message, error) {
	query := r.ordered(ctx).Where("conversation_id = ?", conversationID)
	if afterID > 0 {
		query = query.Where(
			"(created_at, id) > (SELECT pivot.created_at, pivot.id FROM messages AS pivot WHERE pivot.id = ? AND pivot.conversation_id = ?)",
			afterID, conversationID,
		)
	}

	var rows []entities.Message
	if err := query.Limit(limit).Find(&rows).Error; err != nil {
		return nil, dbError(ctx, "failed to page messages", err)
	}
	return toDomain(rows), nil
}

func (r *MessageRepository) ordered(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Order("created_at ASC").
		Order("id ASC")
}

func toDomain(rows []entities.Message) []*message.Message {
	result := make([]*message.Message, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].EtoD())
	}
	return result
}
