package chatrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"rentacar-server/chat-api/internal/domain/conversation"
	"rentacar-server/chat-api/internal/infrastructure/database/entities"
	"rentacar-server/chat-api/internal/utils/platformerrors"
)

const summarySelect = `c.id, c.user_id, c.status, c.created_at, c.updated_at,
	COALESCE(u.name, '') AS user_name,
	COALESCE(u.email, '') AS user_email,
	(SELECT m.content FROM messages m WHERE m.conversation_id = c.id ORDER BY m.created_at DESC, m.id DESC LIMIT 1) AS last_message,
	(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id AND m.sender_role = 'user') AS user_message_count`

// ConversationRepository persists conversations in PostgreSQL.
type ConversationRepository struct {
	db *gorm.DB
}

var _ conversation.Repository = (*ConversationRepository)(nil)

// NewConversationRepository builds a conversation repository.
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts the conversation and copies the generated id back.
func (r *ConversationRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	entity := entities.NewSchemaConversation(conv)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return dbError(ctx, "failed to create conversation", err)
	}
	conv.ID = entity.ID
	conv.CreatedAt = entity.CreatedAt.UTC()
	conv.UpdatedAt = entity.UpdatedAt.UTC()
	return nil
}

// FindByID fetches a conversation by id.
func (r *ConversationRepository) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(ctx, fmt.Sprintf("conversation not found: %d", id))
		}
		return nil, dbError(ctx, "failed to fetch conversation", err)
	}
	return entity.EtoD(), nil
}

// FindLatestByUser fetches the most recently created conversation of a user.
func (r *ConversationRepository) FindLatestByUser(ctx context.Context, userID string) (*conversation.Conversation, error) {
	var entity entities.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(ctx, "user has no conversation")
		}
		return nil, dbError(ctx, "failed to fetch user conversation", err)
	}
	return entity.EtoD(), nil
}

// ListSummaries joins conversations with their owner and last activity.
func (r *ConversationRepository) ListSummaries(ctx context.Context) ([]*conversation.Summary, error) {
	var rows []entities.ConversationSummary
	err := r.db.WithContext(ctx).
		Table("conversations AS c").
		Select(summarySelect).
		Joins("LEFT JOIN users u ON u.id = c.user_id").
		Order("c.updated_at DESC").
		Order("c.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, dbError(ctx, "failed to list conversations", err)
	}

	result := make([]*conversation.Summary, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].EtoD())
	}
	return result, nil
}

// UpdateStatus sets the status without touching updated_at.
func (r *ConversationRepository) UpdateStatus(ctx context.Context, id uint, status conversation.Status) error {
	res := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("status", string(status))
	if res.Error != nil {
		return dbError(ctx, "failed to update conversation status", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(ctx, fmt.Sprintf("conversation not found: %d", id))
	}
	return nil
}

// Touch sets updated_at to at.
func (r *ConversationRepository) Touch(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", at)
	if res.Error != nil {
		return dbError(ctx, "failed to touch conversation", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(ctx, fmt.Sprintf("conversation not found: %d", id))
	}
	return nil
}

func notFound(ctx context.Context, msg string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, msg, nil, "")
}

func dbError(ctx context.Context, msg string, err error) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, msg, err, "")
}
