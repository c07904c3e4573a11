package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"rentacar-server/chat-api/internal/utils/platformerrors"
)

// Service describes the conversation operations used by REST handlers and the realtime gateway.
type Service interface {
	// GetOrCreateForUser returns the user's most recent conversation, creating an open one on first contact.
	GetOrCreateForUser(ctx context.Context, userID string) (*Conversation, error)
	ListForAdmin(ctx context.Context) ([]*Summary, error)
	Get(ctx context.Context, id uint) (*Conversation, error)
	// Close marks the conversation closed. Closing a closed conversation is a no-op.
	Close(ctx context.Context, id uint) (*Conversation, error)
	// Touch refreshes updated_at so the conversation sorts first in the admin list.
	Touch(ctx context.Context, id uint) error
}

type service struct {
	repo   Repository
	locker Locker
	now    func() time.Time
	log    zerolog.Logger
}

// NewService wires the conversation service with its repository and per-user locker.
func NewService(repo Repository, locker Locker, log zerolog.Logger) Service {
	return &service{
		repo:   repo,
		locker: locker,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log.With().Str("component", "conversation-service").Logger(),
	}
}

func (s *service) GetOrCreateForUser(ctx context.Context, userID string) (*Conversation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "user id is required", nil, "")
	}

	release, err := s.locker.Acquire(ctx, "conversation:user:"+userID)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to acquire conversation lock", err, "")
	}
	defer release()

	existing, err := s.repo.FindLatestByUser(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		return nil, err
	}

	now := s.now()
	conv := &Conversation{
		UserID:    userID,
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, err
	}

	s.log.Info().Uint("conversation_id", conv.ID).Msg("conversation created")
	return conv, nil
}

func (s *service) ListForAdmin(ctx context.Context) ([]*Summary, error) {
	return s.repo.ListSummaries(ctx)
}

func (s *service) Get(ctx context.Context, id uint) (*Conversation, error) {
	if id == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "conversation id is required", nil, "")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) Close(ctx context.Context, id uint) (*Conversation, error) {
	conv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.Status == StatusClosed {
		return conv, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusClosed); err != nil {
		return nil, err
	}
	conv.Status = StatusClosed

	s.log.Info().Uint("conversation_id", id).Msg("conversation closed")
	return conv, nil
}

func (s *service) Touch(ctx context.Context, id uint) error {
	return s.repo.Touch(ctx, id, s.now())
}
