package repo

import (
	"context"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

// ChronoRepo is the chrono schedule repository interface
type ChronoRepo interface {
	// SyncDefinitions upserts chrono definitions by handle and sets their IDs
	SyncDefinitions(ctx context.Context, defs []*domain.ChronoDefinition) error

	// EnsureCommunity seeds the community row and an enabled server chrono per definition
	EnsureCommunity(ctx context.Context, communityID string) error

	// GetDue returns the pairs due at now: enabled, hour reached,
	// required feature enabled or unset, not yet run today
	GetDue(ctx context.Context, now time.Time) ([]domain.DueChrono, error)

	// MarkRan records that the pair completed on the given date
	MarkRan(ctx context.Context, communityID string, chronoID int64, date domain.CalendarDate) error

	// SetEnabled toggles a chrono for a community; false when no such chrono row exists
	SetEnabled(ctx context.Context, communityID, handle string, enabled bool) (bool, error)

	// SetFeature sets a community's feature flag
	SetFeature(ctx context.Context, communityID, feature string, enabled bool) error
}
