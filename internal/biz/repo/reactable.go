package repo

import (
	"context"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

// ReactableRepo persists reactable posts keyed by message ID
type ReactableRepo interface {
	// Get returns nil when no post is stored for the message
	Get(ctx context.Context, messageID string) (*domain.ReactablePost, error)

	Save(ctx context.Context, post *domain.ReactablePost) error

	Delete(ctx context.Context, messageID string) error

	// FindByUserAndType lists the user's posts of one payload type
	FindByUserAndType(ctx context.Context, userID string, t domain.ReactableType) ([]*domain.ReactablePost, error)

	// DeleteExpired removes posts whose time limit has passed
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	Close() error
}
