package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// ChannelActivity reports recent activity in channels
type ChannelActivity interface {
	QuietFor(channelID string, d time.Duration, now time.Time) bool
}

// LowQueueUsecase warns admins when a bucket is about to run dry
type LowQueueUsecase struct {
	bucketRepo   repo.BucketRepo
	promptRepo   repo.PromptRepo
	settingsRepo repo.SettingsRepo
	messageRepo  repo.MessageRepo
	buckets      *BucketUsecase
	threshold    int
	quietPeriod  time.Duration
}

// NewLowQueueUsecase creates a new low-queue usecase. An alert is raised when
// a bucket has fewer than threshold queued prompts.
func NewLowQueueUsecase(
	bucketRepo repo.BucketRepo,
	promptRepo repo.PromptRepo,
	settingsRepo repo.SettingsRepo,
	messageRepo repo.MessageRepo,
	buckets *BucketUsecase,
	threshold int,
	quietPeriod time.Duration,
) *LowQueueUsecase {
	return &LowQueueUsecase{
		bucketRepo:   bucketRepo,
		promptRepo:   promptRepo,
		settingsRepo: settingsRepo,
		messageRepo:  messageRepo,
		buckets:      buckets,
		threshold:    threshold,
		quietPeriod:  quietPeriod,
	}
}

// AlertLowQueues alerts once per bucket when its queue runs low and re-arms
// the alert once the queue has recovered. Returns domain.ErrNotReady while
// the admin channel has been active within the quiet period.
func (uc *LowQueueUsecase) AlertLowQueues(ctx context.Context, communityID string, activity ChannelActivity, now time.Time) error {
	settings, err := uc.settingsRepo.Get(ctx, communityID)
	if err != nil {
		return fmt.Errorf("get community settings: %w", err)
	}
	if settings == nil || settings.AdminChannelID == "" {
		return nil
	}

	buckets, err := uc.buckets.ListValid(ctx, communityID)
	if err != nil {
		return err
	}

	type lowBucket struct {
		bucket *domain.Bucket
		count  int
	}
	var low []lowBucket
	for _, b := range buckets {
		if !b.AlertWhenLow || b.IsPaused {
			continue
		}
		count, err := uc.promptRepo.CountQueued(ctx, b.ID)
		if err != nil {
			return fmt.Errorf("count queue of %s: %w", b.Handle, err)
		}

		switch {
		case count < uc.threshold && !b.AlertedEmptying:
			low = append(low, lowBucket{bucket: b, count: count})
		case count >= uc.threshold && b.AlertedEmptying:
			if err := uc.bucketRepo.SetAlertedEmptying(ctx, b.ID, false); err != nil {
				return fmt.Errorf("re-arm alert of %s: %w", b.Handle, err)
			}
		}
	}

	if len(low) == 0 {
		return nil
	}
	if activity != nil && !activity.QuietFor(settings.AdminChannelID, uc.quietPeriod, now) {
		return domain.ErrNotReady
	}

	for _, lb := range low {
		text := fmt.Sprintf("The `%s` bucket only has %d prompt(s) left in its queue. Time to review some submissions!", lb.bucket.Handle, lb.count)
		if _, err := uc.messageRepo.SendEmbed(ctx, settings.AdminChannelID, domain.InfoEmbed("Queue running low", text)); err != nil {
			return fmt.Errorf("send low queue alert for %s: %w", lb.bucket.Handle, err)
		}
		if err := uc.bucketRepo.SetAlertedEmptying(ctx, lb.bucket.ID, true); err != nil {
			return fmt.Errorf("mark alerted %s: %w", lb.bucket.Handle, err)
		}
		fmt.Printf("[Alert] Low queue alert sent for bucket %s (%d queued)\n", lb.bucket.Handle, lb.count)
	}
	return nil
}
