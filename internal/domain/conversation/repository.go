package conversation

import (
	"context"
	"time"
)

// Repository persists conversations. Lookups that miss return a
// platformerrors NOT_FOUND error.
type Repository interface {
	Create(ctx context.Context, conv *Conversation) error
	FindByID(ctx context.Context, id uint) (*Conversation, error)
	// FindLatestByUser returns the most recently created conversation of the user, whatever its status.
	FindLatestByUser(ctx context.Context, userID string) (*Conversation, error)
	// ListSummaries returns every conversation ordered by updated_at descending.
	ListSummaries(ctx context.Context) ([]*Summary, error)
	UpdateStatus(ctx context.Context, id uint, status Status) error
	Touch(ctx context.Context, id uint, at time.Time) error
}

// Locker serializes get-or-create per user. Release must be called once the
// critical section is over.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
