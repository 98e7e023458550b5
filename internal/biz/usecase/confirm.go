package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// ConfirmationUsecase handles the admin review of submissions
type ConfirmationUsecase struct {
	confirmRepo repo.ConfirmationRepo
	promptRepo  repo.PromptRepo
	bucketRepo  repo.BucketRepo
	prompts     *PromptUsecase
	limit       int
}

// NewConfirmationUsecase creates a new confirmation usecase.
// limit caps how many submissions one unconfirmed listing numbers.
func NewConfirmationUsecase(
	confirmRepo repo.ConfirmationRepo,
	promptRepo repo.PromptRepo,
	bucketRepo repo.BucketRepo,
	prompts *PromptUsecase,
	limit int,
) *ConfirmationUsecase {
	if limit <= 0 {
		limit = 10
	}
	return &ConfirmationUsecase{
		confirmRepo: confirmRepo,
		promptRepo:  promptRepo,
		bucketRepo:  bucketRepo,
		prompts:     prompts,
		limit:       limit,
	}
}

// Unconfirmed rebuilds the channel's confirmation numbering from the oldest
// pending submissions of the bucket and renders the numbered list
func (uc *ConfirmationUsecase) Unconfirmed(ctx context.Context, channelID string, b *domain.Bucket) (domain.Embed, error) {
	pending, err := uc.promptRepo.ListUnconfirmed(ctx, b.ID, uc.limit)
	if err != nil {
		return domain.Embed{}, fmt.Errorf("list unconfirmed: %w", err)
	}

	entries := make([]domain.ConfirmationEntry, 0, len(pending))
	for i, p := range pending {
		entries = append(entries, domain.ConfirmationEntry{
			ChannelID:     channelID,
			PromptID:      p.ID,
			ConfirmNumber: i,
		})
	}
	if err := uc.confirmRepo.Replace(ctx, channelID, entries); err != nil {
		return domain.Embed{}, fmt.Errorf("replace confirmation queue: %w", err)
	}

	title := fmt.Sprintf("Unconfirmed submissions for %s", b.Name())
	if len(pending) == 0 {
		return domain.InfoEmbed(title, "There are no unconfirmed submissions."), nil
	}

	var sb strings.Builder
	for i, p := range pending {
		marker := ""
		if p.IsFlagged {
			marker = " :warning:"
		}
		fmt.Fprintf(&sb, "**%d.**%s %s\n", entries[i].DisplayNumber(), marker, p.Text)
	}
	sb.WriteString("\nUse `confirm` or `reject` with a number (`3`) or a range (`2-4`).")
	return domain.InfoEmbed(title, sb.String()), nil
}

// BatchResult counts the outcome of a confirm or reject command
type BatchResult struct {
	Verb         string
	Succeeded    int
	NoOps        int
	PostFailures int // Approved but the immediate post failed; still queued
}

// Render builds the reply for the batch. Zero successes is reported as
// nothing changed rather than as a partial result.
func (r BatchResult) Render() domain.Embed {
	if r.Succeeded == 0 {
		return domain.ErrorEmbed("Nothing changed. Those numbers have already been processed; run `unconfirmed` again to get a fresh list.")
	}
	text := fmt.Sprintf("%s %d submission(s).", r.Verb, r.Succeeded)
	if r.NoOps > 0 {
		text += fmt.Sprintf(" %d number(s) had already been processed.", r.NoOps)
	}
	if r.PostFailures > 0 {
		text += fmt.Sprintf(" %d prompt(s) could not be posted yet and remain queued.", r.PostFailures)
	}
	return domain.SuccessEmbed(text)
}

// Confirm approves the submissions with the given numbers. Prompts of
// immediate buckets are posted right away.
func (uc *ConfirmationUsecase) Confirm(ctx context.Context, channelID, arg string, now time.Time) (BatchResult, error) {
	return uc.apply(ctx, channelID, arg, "Confirmed", func(p *domain.Prompt, result *BatchResult) error {
		if err := p.Approve(); err != nil {
			return err
		}
		if err := uc.promptRepo.UpdateState(ctx, p); err != nil {
			return fmt.Errorf("approve prompt %d: %w", p.ID, err)
		}

		bucket, err := uc.bucketRepo.GetByID(ctx, p.BucketID)
		if err != nil {
			return fmt.Errorf("get bucket %d: %w", p.BucketID, err)
		}
		if bucket == nil || bucket.Frequency != domain.FrequencyImmediately || bucket.IsPaused {
			return nil
		}
		if err := uc.prompts.PostAsNewPrompt(ctx, bucket, p, now); err != nil {
			fmt.Printf("[Confirm] Failed to post prompt %d to bucket %s: %v\n", p.ID, bucket.Handle, err)
			result.PostFailures++
		}
		return nil
	})
}

// Reject removes the submissions with the given numbers
func (uc *ConfirmationUsecase) Reject(ctx context.Context, channelID, arg string) (BatchResult, error) {
	return uc.apply(ctx, channelID, arg, "Rejected", func(p *domain.Prompt, _ *BatchResult) error {
		if err := p.Reject(); err != nil {
			return err
		}
		if err := uc.promptRepo.Delete(ctx, p.ID); err != nil {
			return fmt.Errorf("delete prompt %d: %w", p.ID, err)
		}
		return nil
	})
}

// apply parses the range before touching anything, then runs fn once per
// mapped number and drops that number's mapping
func (uc *ConfirmationUsecase) apply(
	ctx context.Context,
	channelID, arg, verb string,
	fn func(p *domain.Prompt, result *BatchResult) error,
) (BatchResult, error) {
	result := BatchResult{Verb: verb}

	numbers, err := domain.ParseNumberRange(arg, uc.limit)
	if err != nil {
		return result, err
	}

	for _, n := range numbers.ConfirmNumbers() {
		entry, err := uc.confirmRepo.Get(ctx, channelID, n)
		if err != nil {
			return result, fmt.Errorf("get confirmation %d: %w", n+1, err)
		}
		if entry == nil {
			result.NoOps++
			continue
		}

		prompt, err := uc.promptRepo.GetByID(ctx, entry.PromptID)
		if err != nil {
			return result, fmt.Errorf("get prompt %d: %w", entry.PromptID, err)
		}
		if prompt == nil || prompt.State != domain.PromptSubmitted {
			result.NoOps++
		} else {
			if err := fn(prompt, &result); err != nil {
				return result, err
			}
			result.Succeeded++
		}

		if err := uc.confirmRepo.Delete(ctx, channelID, n); err != nil {
			return result, fmt.Errorf("delete confirmation %d: %w", n+1, err)
		}
	}
	return result, nil
}
