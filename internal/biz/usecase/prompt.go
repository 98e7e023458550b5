package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// PromptUsecase handles posting prompts to bucket channels
type PromptUsecase struct {
	promptRepo  repo.PromptRepo
	messageRepo repo.MessageRepo
	buckets     *BucketUsecase

	mu          sync.Mutex
	bucketLocks map[int64]*sync.Mutex
}

// NewPromptUsecase creates a new prompt usecase
func NewPromptUsecase(
	promptRepo repo.PromptRepo,
	messageRepo repo.MessageRepo,
	buckets *BucketUsecase,
) *PromptUsecase {
	return &PromptUsecase{
		promptRepo:  promptRepo,
		messageRepo: messageRepo,
		buckets:     buckets,
		bucketLocks: make(map[int64]*sync.Mutex),
	}
}

// lockBucket serializes number allocation and posting within one bucket
func (uc *PromptUsecase) lockBucket(bucketID int64) func() {
	uc.mu.Lock()
	l, ok := uc.bucketLocks[bucketID]
	if !ok {
		l = &sync.Mutex{}
		uc.bucketLocks[bucketID] = l
	}
	uc.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// PostNewPrompts posts the next prompt of every due bucket in a community.
// Buckets are processed in order; a failing bucket does not stop the others.
func (uc *PromptUsecase) PostNewPrompts(ctx context.Context, communityID string, now time.Time) error {
	buckets, err := uc.buckets.ListValid(ctx, communityID)
	if err != nil {
		return err
	}

	var errs []error
	for _, b := range buckets {
		if b.IsPaused || b.Frequency == domain.FrequencyImmediately {
			continue
		}
		if err := uc.postNextIfDue(ctx, b, now); err != nil {
			errs = append(errs, fmt.Errorf("bucket %s: %w", b.Handle, err))
		}
	}
	return errors.Join(errs...)
}

func (uc *PromptUsecase) postNextIfDue(ctx context.Context, b *domain.Bucket, now time.Time) error {
	unlock := uc.lockBucket(b.ID)
	defer unlock()

	current, err := uc.promptRepo.GetCurrent(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("get current prompt: %w", err)
	}
	if current != nil && !b.Frequency.IsMet(current.PostedAt, now) {
		return nil
	}

	next, err := uc.nextPrompt(ctx, b.ID, now)
	if err != nil {
		return err
	}
	if next == nil {
		fmt.Printf("[Prompt] Bucket %s has nothing to post\n", b.Handle)
		return nil
	}
	return uc.post(ctx, b, next, now)
}

// nextPrompt picks the oldest queued prompt, falling back to a recycled copy
// of the dustiest posted prompt
func (uc *PromptUsecase) nextPrompt(ctx context.Context, bucketID int64, now time.Time) (*domain.Prompt, error) {
	queued, err := uc.promptRepo.GetNextQueued(ctx, bucketID)
	if err != nil {
		return nil, fmt.Errorf("get next queued prompt: %w", err)
	}
	if queued != nil {
		return queued, nil
	}

	dusty, err := uc.promptRepo.GetDustiest(ctx, bucketID)
	if err != nil {
		return nil, fmt.Errorf("get dustiest prompt: %w", err)
	}
	if dusty == nil {
		return nil, nil
	}
	return dusty.Recycle(now)
}

// PostAsNewPrompt posts an approved prompt right away
func (uc *PromptUsecase) PostAsNewPrompt(ctx context.Context, b *domain.Bucket, p *domain.Prompt, now time.Time) error {
	unlock := uc.lockBucket(b.ID)
	defer unlock()
	return uc.post(ctx, b, p, now)
}

// post sends the prompt and only then persists it as posted, so a failed
// send leaves the prompt queued for the next attempt. Caller holds the bucket lock.
func (uc *PromptUsecase) post(ctx context.Context, b *domain.Bucket, p *domain.Prompt, now time.Time) error {
	if !p.IsQueued() {
		return fmt.Errorf("%w: prompt %d is %s, not queued", domain.ErrInvalidTransition, p.ID, p.State)
	}

	number, err := uc.promptRepo.NextPromptNumber(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("get next prompt number: %w", err)
	}

	messageID, err := uc.messageRepo.SendEmbed(ctx, b.ChannelID, RenderPrompt(b, p, number))
	if err != nil {
		return fmt.Errorf("send prompt: %w", err)
	}

	if err := p.MarkPosted(number, now); err != nil {
		return err
	}
	if p.ID == 0 && p.RepostOfID != 0 {
		err = uc.promptRepo.SaveRepost(ctx, p, p.RepostOfID, now)
	} else {
		err = uc.promptRepo.UpdateState(ctx, p)
	}
	if err != nil {
		return fmt.Errorf("save posted prompt: %w", err)
	}
	fmt.Printf("[Prompt] Posted prompt #%d to bucket %s\n", number, b.Handle)

	if b.PinPrompts {
		if err := uc.messageRepo.PinMessage(ctx, b.ChannelID, messageID); err != nil {
			fmt.Printf("[Prompt] Failed to pin prompt #%d in bucket %s: %v\n", number, b.Handle, err)
		}
	}
	return nil
}

// RenderPrompt builds the embed of a posted prompt
func RenderPrompt(b *domain.Bucket, p *domain.Prompt, number int) domain.Embed {
	return domain.Embed{
		Title:       b.FormatTitle(number),
		Description: p.Text + "\n\n" + p.Attribution(),
		Color:       domain.ColorPrompt,
	}
}

// QueuePage is one page of a bucket's queue
type QueuePage struct {
	Bucket      *domain.Bucket
	Prompts     []*domain.Prompt
	Page        int // 1-based
	TotalPages  int
	PageSize    int
	TotalQueued int
}

// GetQueuePage fetches one page of approved prompts. A page beyond the end
// is clamped to the last page.
func (uc *PromptUsecase) GetQueuePage(ctx context.Context, b *domain.Bucket, page, pageSize int) (*QueuePage, error) {
	total, err := uc.promptRepo.CountQueued(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("count queue: %w", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	prompts, err := uc.promptRepo.ListQueued(ctx, b.ID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return &QueuePage{
		Bucket:      b,
		Prompts:     prompts,
		Page:        page,
		TotalPages:  totalPages,
		PageSize:    pageSize,
		TotalQueued: total,
	}, nil
}

// Render builds the embed of a queue page
func (q *QueuePage) Render() domain.Embed {
	var sb strings.Builder
	if len(q.Prompts) == 0 {
		sb.WriteString("There are no prompts in the queue right now.")
	}
	start := (q.Page - 1) * q.PageSize
	for i, p := range q.Prompts {
		fmt.Fprintf(&sb, "**%d.** %s\n", start+i+1, p.Text)
	}
	embed := domain.InfoEmbed(fmt.Sprintf("Queue for %s", q.Bucket.Name()), sb.String())
	embed.Footer = fmt.Sprintf("Page %d of %d. %d prompt(s) queued.", q.Page, q.TotalPages, q.TotalQueued)
	return embed
}

// Leaderboard renders the top submitters of a community
func (uc *PromptUsecase) Leaderboard(ctx context.Context, communityID string, limit int) (domain.Embed, error) {
	entries, err := uc.promptRepo.Leaderboard(ctx, communityID, limit)
	if err != nil {
		return domain.Embed{}, fmt.Errorf("get leaderboard: %w", err)
	}
	if len(entries) == 0 {
		return domain.InfoEmbed("Leaderboard", "Nobody has had a prompt posted yet."), nil
	}

	var sb strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&sb, "**%d.** <@%s> with %d prompt(s)\n", i+1, e.UserID, e.PostedCount)
	}
	return domain.InfoEmbed("Leaderboard", sb.String()), nil
}
