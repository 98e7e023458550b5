package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/usecase"
)

// Chrono handles
const (
	ChronoPostNewPrompts      = "post-new-prompts"
	ChronoAlertLowBucketQueue = "alert-low-bucket-queue"
	ChronoSweepExpiredRecords = "sweep-expired-records"
)

// DefaultAdminQuietPeriod is how long the admin channel must be idle before
// a low-queue alert is sent
const DefaultAdminQuietPeriod = 5 * time.Minute

// ChronoTasks carries the usecases the built-in chronos run
type ChronoTasks struct {
	Prompts    *usecase.PromptUsecase
	LowQueue   *usecase.LowQueueUsecase
	Sessions   *usecase.SessionUsecase
	Reactables *usecase.ReactableUsecase
}

// RegisterChronoTasks registers the built-in chronos with the manager
func RegisterChronoTasks(m *ChronoManager, t ChronoTasks) {
	m.Register(ChronoPostNewPrompts, func(ctx context.Context, cc ChronoContext) error {
		return t.Prompts.PostNewPrompts(ctx, cc.CommunityID, cc.Now)
	})

	m.Register(ChronoAlertLowBucketQueue, func(ctx context.Context, cc ChronoContext) error {
		return t.LowQueue.AlertLowQueues(ctx, cc.CommunityID, cc.Activity, cc.Now)
	})

	m.Register(ChronoSweepExpiredRecords, func(ctx context.Context, cc ChronoContext) error {
		sessions, err := t.Sessions.CleanupExpired(ctx, cc.Now)
		if err != nil {
			return fmt.Errorf("sweep sessions: %w", err)
		}
		reactables, err := t.Reactables.SweepExpired(ctx, cc.Now)
		if err != nil {
			return fmt.Errorf("sweep reactables: %w", err)
		}
		if sessions > 0 || reactables > 0 {
			fmt.Printf("[Chrono] Swept %d session(s) and %d reactable(s)\n", sessions, reactables)
		}
		return nil
	})
}
