package message

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"rentacar-server/chat-api/internal/domain/identity"
	"rentacar-server/chat-api/internal/utils/platformerrors"
)

// Service is the single write path for chat messages plus history reads.
type Service interface {
	// Append stores a message with trimmed content and a server timestamp.
	Append(ctx context.Context, conversationID uint, senderID string, senderRole identity.Role, content string) (*Message, error)
	ListForConversation(ctx context.Context, conversationID uint) ([]*Message, error)
	// ListPage pages through history. afterID 0 starts at the oldest message.
	ListPage(ctx context.Context, conversationID uint, afterID uint, limit int) ([]*Message, error)
}

type service struct {
	repo        Repository
	maxPageSize int
	now         func() time.Time
	log         zerolog.Logger
}

// NewService wires the message service with its repository.
func NewService(repo Repository, maxPageSize int, log zerolog.Logger) Service {
	return &service{
		repo:        repo,
		maxPageSize: maxPageSize,
		now:         func() time.Time { return time.Now().UTC() },
		log:         log.With().Str("component", "message-service").Logger(),
	}
}

func (s *service) Append(ctx context.Context, conversationID uint, senderID string, senderRole identity.Role, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	switch {
	case conversationID == 0:
		return nil, validationError(ctx, "conversation id is required")
	case strings.TrimSpace(senderID) == "":
		return nil, validationError(ctx, "sender id is required")
	case senderRole != identity.RoleUser && senderRole != identity.RoleAdmin:
		return nil, validationError(ctx, "unknown sender role")
	case content == "":
		return nil, validationError(ctx, "message content is empty")
	}

	msg := &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderRole:     senderRole,
		Content:        content,
		CreatedAt:      s.now(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *service) ListForConversation(ctx context.Context, conversationID uint) ([]*Message, error) {
	return s.repo.ListByConversation(ctx, conversationID)
}

func (s *service) ListPage(ctx context.Context, conversationID uint, afterID uint, limit int) ([]*Message, error) {
	if limit <= 0 || limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	return s.repo.ListAfter(ctx, conversationID, afterID, limit)
}

func validationError(ctx context.Context, msg string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, msg, nil, "")
}
