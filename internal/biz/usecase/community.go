package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// CommunityUsecase handles per-community settings and chrono switches
type CommunityUsecase struct {
	settingsRepo repo.SettingsRepo
	chronoRepo   repo.ChronoRepo
}

// NewCommunityUsecase creates a new community usecase
func NewCommunityUsecase(settingsRepo repo.SettingsRepo, chronoRepo repo.ChronoRepo) *CommunityUsecase {
	return &CommunityUsecase{
		settingsRepo: settingsRepo,
		chronoRepo:   chronoRepo,
	}
}

// Join seeds the rows a community needs for chronos to run
func (uc *CommunityUsecase) Join(ctx context.Context, communityID string) error {
	if err := uc.chronoRepo.EnsureCommunity(ctx, communityID); err != nil {
		return fmt.Errorf("seed community %s: %w", communityID, err)
	}
	return nil
}

// SetAdminChannel sets where admin alerts are sent
func (uc *CommunityUsecase) SetAdminChannel(ctx context.Context, communityID, channelID string) error {
	settings, err := uc.settingsRepo.Get(ctx, communityID)
	if err != nil {
		return fmt.Errorf("get community settings: %w", err)
	}
	if settings == nil {
		settings = &domain.Community{ID: communityID}
	}
	settings.AdminChannelID = channelID
	if err := uc.settingsRepo.Save(ctx, settings); err != nil {
		return fmt.Errorf("save community settings: %w", err)
	}
	return nil
}

// SetChronoEnabled toggles a chrono for the community
func (uc *CommunityUsecase) SetChronoEnabled(ctx context.Context, communityID, handle string, enabled bool) error {
	found, err := uc.chronoRepo.SetEnabled(ctx, communityID, strings.ToLower(strings.TrimSpace(handle)), enabled)
	if err != nil {
		return fmt.Errorf("set chrono %s: %w", handle, err)
	}
	if !found {
		return domain.NewUserError("There is no chrono named `%s`.", handle)
	}
	return nil
}

// SetFeature toggles a feature flag for the community
func (uc *CommunityUsecase) SetFeature(ctx context.Context, communityID, feature string, enabled bool) error {
	feature = strings.ToLower(strings.TrimSpace(feature))
	if feature == "" {
		return domain.NewUserError("A feature name is required.")
	}
	if err := uc.chronoRepo.SetFeature(ctx, communityID, feature, enabled); err != nil {
		return fmt.Errorf("set feature %s: %w", feature, err)
	}
	return nil
}
