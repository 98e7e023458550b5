package repo

import (
	"context"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

// CommunityRepo answers questions about the chat platform's communities
// Fetches in real-time from the platform, does not rely on local storage
type CommunityRepo interface {
	// IsKnownCommunity checks the bot is still a member of the community.
	// Returns false with a nil error only when the platform says it is gone;
	// transient lookup failures come back as errors.
	IsKnownCommunity(ctx context.Context, communityID string) (bool, error)

	ChannelExists(ctx context.Context, communityID, channelID string) bool

	RoleExists(ctx context.Context, communityID, roleID string) bool

	MemberHasRole(ctx context.Context, communityID, userID, roleID string) (bool, error)

	// IsAdmin checks the member may run admin commands
	IsAdmin(ctx context.Context, communityID, userID string) (bool, error)
}

// SettingsRepo persists per-community settings
type SettingsRepo interface {
	// Get returns nil when the community has no row
	Get(ctx context.Context, communityID string) (*domain.Community, error)

	Save(ctx context.Context, community *domain.Community) error
}
