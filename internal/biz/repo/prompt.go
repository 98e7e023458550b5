package repo

import (
	"context"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

// PromptRepo is the prompt repository interface
type PromptRepo interface {
	// Create inserts a prompt and sets its ID
	Create(ctx context.Context, prompt *domain.Prompt) error

	// GetByID returns nil when the prompt does not exist
	GetByID(ctx context.Context, id int64) (*domain.Prompt, error)

	// GetCurrent returns the posted prompt with the highest number, or nil
	GetCurrent(ctx context.Context, bucketID int64) (*domain.Prompt, error)

	// GetNextQueued returns the oldest approved prompt, or nil
	GetNextQueued(ctx context.Context, bucketID int64) (*domain.Prompt, error)

	// GetDustiest returns the original posted prompt reused least recently, or nil
	GetDustiest(ctx context.Context, bucketID int64) (*domain.Prompt, error)

	// ListUnconfirmed lists submitted prompts oldest first
	ListUnconfirmed(ctx context.Context, bucketID int64, limit int) ([]*domain.Prompt, error)

	// ListQueued lists approved prompts oldest first
	ListQueued(ctx context.Context, bucketID int64, offset, limit int) ([]*domain.Prompt, error)

	// CountQueued counts approved prompts
	CountQueued(ctx context.Context, bucketID int64) (int, error)

	// NextPromptNumber returns max(prompt_number)+1 over the bucket, 1 when none posted
	NextPromptNumber(ctx context.Context, bucketID int64) (int, error)

	// UpdateState saves state, number and posted time
	UpdateState(ctx context.Context, prompt *domain.Prompt) error

	// SaveRepost inserts a posted copy and stamps the source's reuse time in one transaction
	SaveRepost(ctx context.Context, repost *domain.Prompt, sourceID int64, reusedAt time.Time) error

	// Delete removes a prompt
	Delete(ctx context.Context, id int64) error

	// Leaderboard ranks submitters of a community by posted prompts
	Leaderboard(ctx context.Context, communityID string, limit int) ([]domain.LeaderboardEntry, error)
}
