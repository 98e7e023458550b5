package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// BucketUsecase handles bucket configuration and lookup
type BucketUsecase struct {
	bucketRepo    repo.BucketRepo
	communityRepo repo.CommunityRepo
}

// NewBucketUsecase creates a new bucket usecase
func NewBucketUsecase(bucketRepo repo.BucketRepo, communityRepo repo.CommunityRepo) *BucketUsecase {
	return &BucketUsecase{
		bucketRepo:    bucketRepo,
		communityRepo: communityRepo,
	}
}

// IsValid checks the bucket's channel and required role still exist.
// Validity is derived on every call and never stored.
func (uc *BucketUsecase) IsValid(ctx context.Context, b *domain.Bucket) bool {
	if !uc.communityRepo.ChannelExists(ctx, b.CommunityID, b.ChannelID) {
		return false
	}
	if b.HasRequiredRole() && !uc.communityRepo.RoleExists(ctx, b.CommunityID, b.RequiredRoleID) {
		return false
	}
	return true
}

// Resolve finds the bucket a command refers to. An empty handle resolves to
// the community's only bucket when there is exactly one.
func (uc *BucketUsecase) Resolve(ctx context.Context, communityID, handle string) (*domain.Bucket, error) {
	if strings.TrimSpace(handle) == "" {
		buckets, err := uc.bucketRepo.ListByCommunity(ctx, communityID)
		if err != nil {
			return nil, fmt.Errorf("list buckets: %w", err)
		}
		switch len(buckets) {
		case 0:
			return nil, domain.NewUserError("This server has no prompt buckets yet.")
		case 1:
			return buckets[0], nil
		}
		handles := make([]string, 0, len(buckets))
		for _, b := range buckets {
			handles = append(handles, "`"+b.Handle+"`")
		}
		return nil, domain.NewUserError("This server has multiple buckets, so you need to name one: %s.", strings.Join(handles, ", "))
	}

	normalized, err := domain.NormalizeHandle(handle)
	if err != nil {
		return nil, err
	}
	bucket, err := uc.bucketRepo.GetByHandle(ctx, communityID, normalized)
	if err != nil {
		return nil, fmt.Errorf("get bucket %s: %w", normalized, err)
	}
	if bucket == nil {
		return nil, domain.NewUserError("There is no bucket with the handle `%s`.", normalized)
	}
	return bucket, nil
}

// ResolveValid is Resolve plus a validity check
func (uc *BucketUsecase) ResolveValid(ctx context.Context, communityID, handle string) (*domain.Bucket, error) {
	bucket, err := uc.Resolve(ctx, communityID, handle)
	if err != nil {
		return nil, err
	}
	if !uc.IsValid(ctx, bucket) {
		return nil, domain.NewUserError("The `%s` bucket is misconfigured: its channel or required role no longer exists.", bucket.Handle)
	}
	return bucket, nil
}

// ListValid lists the community's buckets that are currently valid.
// Invalid buckets are a configuration error: logged and skipped.
func (uc *BucketUsecase) ListValid(ctx context.Context, communityID string) ([]*domain.Bucket, error) {
	buckets, err := uc.bucketRepo.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}

	valid := make([]*domain.Bucket, 0, len(buckets))
	for _, b := range buckets {
		if !uc.IsValid(ctx, b) {
			fmt.Printf("[Bucket] Skipping invalid bucket %s in community %s\n", b.Handle, communityID)
			continue
		}
		valid = append(valid, b)
	}
	return valid, nil
}

// BucketStatus pairs a bucket with its derived validity
type BucketStatus struct {
	Bucket  *domain.Bucket
	IsValid bool
}

// List lists all buckets of the community with their validity
func (uc *BucketUsecase) List(ctx context.Context, communityID string) ([]BucketStatus, error) {
	buckets, err := uc.bucketRepo.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	statuses := make([]BucketStatus, 0, len(buckets))
	for _, b := range buckets {
		statuses = append(statuses, BucketStatus{Bucket: b, IsValid: uc.IsValid(ctx, b)})
	}
	return statuses, nil
}

// Create registers a new daily bucket posting to channelID
func (uc *BucketUsecase) Create(ctx context.Context, communityID, channelID, handle, displayName string) (*domain.Bucket, error) {
	normalized, err := domain.NormalizeHandle(handle)
	if err != nil {
		return nil, err
	}
	if !uc.communityRepo.ChannelExists(ctx, communityID, channelID) {
		return nil, domain.NewUserError("That channel does not exist on this server.")
	}

	existing, err := uc.bucketRepo.GetByHandle(ctx, communityID, normalized)
	if err != nil {
		return nil, fmt.Errorf("get bucket %s: %w", normalized, err)
	}
	if existing != nil {
		return nil, domain.NewUserError("A bucket with the handle `%s` already exists.", normalized)
	}

	bucket := &domain.Bucket{
		CommunityID:  communityID,
		ChannelID:    channelID,
		Handle:       normalized,
		DisplayName:  strings.TrimSpace(displayName),
		Frequency:    domain.FrequencyDaily,
		AlertWhenLow: true,
	}
	if err := uc.bucketRepo.Create(ctx, bucket); err != nil {
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	fmt.Printf("[Bucket] Created bucket %s (id=%d) in community %s\n", bucket.Handle, bucket.ID, communityID)
	return bucket, nil
}

// SetPaused pauses or unpauses posting for a bucket
func (uc *BucketUsecase) SetPaused(ctx context.Context, b *domain.Bucket, paused bool) error {
	if b.IsPaused == paused {
		if paused {
			return domain.NewUserError("The `%s` bucket is already paused.", b.Handle)
		}
		return domain.NewUserError("The `%s` bucket is not paused.", b.Handle)
	}
	b.IsPaused = paused
	return uc.update(ctx, b)
}

// SetFrequency changes how often a bucket posts
func (uc *BucketUsecase) SetFrequency(ctx context.Context, b *domain.Bucket, arg string) error {
	freq, err := domain.ParseFrequency(arg)
	if err != nil {
		return err
	}
	b.Frequency = freq
	return uc.update(ctx, b)
}

// SetRequiredRole gates submissions behind a role. An empty roleID clears the gate.
func (uc *BucketUsecase) SetRequiredRole(ctx context.Context, b *domain.Bucket, roleID string) error {
	if roleID != "" && !uc.communityRepo.RoleExists(ctx, b.CommunityID, roleID) {
		return domain.NewUserError("That role does not exist on this server.")
	}
	b.RequiredRoleID = roleID
	return uc.update(ctx, b)
}

// SetAlertWhenLow toggles the low-queue alert; enabling it re-arms the alert
func (uc *BucketUsecase) SetAlertWhenLow(ctx context.Context, b *domain.Bucket, enabled bool) error {
	b.AlertWhenLow = enabled
	b.AlertedEmptying = false
	return uc.update(ctx, b)
}

// SetTitleFormat changes the title of posted prompts
func (uc *BucketUsecase) SetTitleFormat(ctx context.Context, b *domain.Bucket, format string) error {
	format = strings.TrimSpace(format)
	if format != "" && !strings.Contains(format, "{number}") {
		return domain.NewUserError("The title format must contain `{number}`.")
	}
	b.PromptTitleFormat = format
	return uc.update(ctx, b)
}

// SetPinPrompts toggles pinning of posted prompts
func (uc *BucketUsecase) SetPinPrompts(ctx context.Context, b *domain.Bucket, pin bool) error {
	b.PinPrompts = pin
	return uc.update(ctx, b)
}

// Describe renders a bucket's configuration
func (uc *BucketUsecase) Describe(ctx context.Context, b *domain.Bucket) domain.Embed {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Handle:** `%s`\n", b.Handle)
	fmt.Fprintf(&sb, "**Channel:** %s\n", b.ChannelMention())
	fmt.Fprintf(&sb, "**Frequency:** %s\n", b.Frequency)
	fmt.Fprintf(&sb, "**Paused:** %s\n", yesNo(b.IsPaused))
	if b.HasRequiredRole() {
		fmt.Fprintf(&sb, "**Required role:** <@&%s>\n", b.RequiredRoleID)
	} else {
		sb.WriteString("**Required role:** none\n")
	}
	fmt.Fprintf(&sb, "**Alert when low:** %s\n", yesNo(b.AlertWhenLow))
	fmt.Fprintf(&sb, "**Title:** %s\n", b.FormatTitle(1))
	fmt.Fprintf(&sb, "**Pin prompts:** %s\n", yesNo(b.PinPrompts))
	if !uc.IsValid(ctx, b) {
		sb.WriteString("\n:warning: This bucket is misconfigured and will not post.")
	}
	return domain.InfoEmbed(b.Name(), sb.String())
}

func (uc *BucketUsecase) update(ctx context.Context, b *domain.Bucket) error {
	if err := uc.bucketRepo.Update(ctx, b); err != nil {
		return fmt.Errorf("update bucket %s: %w", b.Handle, err)
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
