package repo

import (
	"context"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

// SessionRepo is the submission session repository interface
// A user has at most one session row
type SessionRepo interface {
	// GetByUser returns nil when the user has no session row
	GetByUser(ctx context.Context, userID string) (*domain.SubmissionSession, error)

	// Save replaces the user's session
	Save(ctx context.Context, session *domain.SubmissionSession) error

	// Delete removes the user's session
	Delete(ctx context.Context, userID string) error

	// IncrementSubmissions bumps the submission tally
	IncrementSubmissions(ctx context.Context, userID string) error

	// CleanupExpired deletes sessions that timed out before the given time
	CleanupExpired(ctx context.Context, before time.Time) (int64, error)
}
