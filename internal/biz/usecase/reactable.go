package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// QueueViewTimeLimit is how long a queue view keeps paginating
const QueueViewTimeLimit = time.Hour

// ReactableUsecase sends interactive messages and replays reactions on them
type ReactableUsecase struct {
	reactableRepo repo.ReactableRepo
	messageRepo   repo.MessageRepo
	bucketRepo    repo.BucketRepo
	prompts       *PromptUsecase
	sessions      *SessionUsecase
	pageSize      int
	now           func() time.Time
}

// NewReactableUsecase creates a new reactable usecase
func NewReactableUsecase(
	reactableRepo repo.ReactableRepo,
	messageRepo repo.MessageRepo,
	bucketRepo repo.BucketRepo,
	prompts *PromptUsecase,
	sessions *SessionUsecase,
	pageSize int,
) *ReactableUsecase {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &ReactableUsecase{
		reactableRepo: reactableRepo,
		messageRepo:   messageRepo,
		bucketRepo:    bucketRepo,
		prompts:       prompts,
		sessions:      sessions,
		pageSize:      pageSize,
		now:           time.Now,
	}
}

// compile-time check that every payload type has a handler
var _ domain.ReactableVisitor = (*ReactableUsecase)(nil)

// Send sends the embed, persists the post and adds the monitored reactions
// in order. Older posts of the same type for the same user are removed first.
func (uc *ReactableUsecase) Send(ctx context.Context, post *domain.ReactablePost, embed domain.Embed) error {
	if err := uc.supersede(ctx, post.UserID, post.Type()); err != nil {
		return err
	}

	messageID, err := uc.messageRepo.SendEmbed(ctx, post.ChannelID, embed)
	if err != nil {
		return fmt.Errorf("send reactable message: %w", err)
	}
	post.MessageID = messageID

	if err := uc.reactableRepo.Save(ctx, post); err != nil {
		return fmt.Errorf("save reactable %s: %w", messageID, err)
	}

	for _, emoji := range post.MonitoredReactions {
		if err := uc.messageRepo.AddReaction(ctx, post.ChannelID, messageID, emoji); err != nil {
			return fmt.Errorf("add reaction %s: %w", emoji, err)
		}
	}
	return nil
}

func (uc *ReactableUsecase) supersede(ctx context.Context, userID string, t domain.ReactableType) error {
	old, err := uc.reactableRepo.FindByUserAndType(ctx, userID, t)
	if err != nil {
		return fmt.Errorf("find reactables: %w", err)
	}
	for _, p := range old {
		uc.remove(ctx, p)
	}
	return nil
}

// remove deletes the post's message and record. A message that is already
// gone is not an error.
func (uc *ReactableUsecase) remove(ctx context.Context, post *domain.ReactablePost) {
	if err := uc.messageRepo.DeleteMessage(ctx, post.ChannelID, post.MessageID); err != nil {
		fmt.Printf("[Reactable] Failed to delete message %s: %v\n", post.MessageID, err)
	}
	if err := uc.reactableRepo.Delete(ctx, post.MessageID); err != nil {
		fmt.Printf("[Reactable] Failed to delete record %s: %v\n", post.MessageID, err)
	}
}

// HandleReactionAdd dispatches a reaction to the handler of the post's payload.
// Reactions on unknown messages, by bots, with unmonitored emoji or on expired
// posts are ignored.
func (uc *ReactableUsecase) HandleReactionAdd(ctx context.Context, ev domain.ReactionEvent, now time.Time) error {
	if ev.IsBot {
		return nil
	}

	post, err := uc.reactableRepo.Get(ctx, ev.MessageID)
	if err != nil {
		return fmt.Errorf("get reactable %s: %w", ev.MessageID, err)
	}
	if post == nil || !post.Monitors(ev.Emoji) {
		return nil
	}
	if !post.IsLive(now) {
		if err := uc.reactableRepo.Delete(ctx, post.MessageID); err != nil {
			return fmt.Errorf("delete expired reactable %s: %w", post.MessageID, err)
		}
		return nil
	}

	return post.Payload.Accept(ctx, uc, post, ev)
}

// VisitPromptQueue turns the page. Moving past either end leaves the message
// and record untouched and only takes the user's reaction back off; otherwise
// the page is re-rendered as a new message.
func (uc *ReactableUsecase) VisitPromptQueue(ctx context.Context, post *domain.ReactablePost, data *domain.PromptQueuePayload, ev domain.ReactionEvent) error {
	delta := data.PageDelta(ev.Emoji)
	newPage := data.CurrentPage + delta
	if delta == 0 {
		return nil
	}
	if newPage <= 0 || newPage > data.TotalPages {
		if err := uc.messageRepo.RemoveReaction(ctx, post.ChannelID, post.MessageID, ev.Emoji, ev.UserID); err != nil {
			fmt.Printf("[Reactable] Failed to remove reaction on %s: %v\n", post.MessageID, err)
		}
		return nil
	}

	bucket, err := uc.bucketRepo.GetByID(ctx, data.BucketID)
	if err != nil {
		return fmt.Errorf("get bucket %d: %w", data.BucketID, err)
	}
	if bucket == nil {
		return nil
	}

	pageSize := data.PageSize
	if pageSize <= 0 {
		pageSize = uc.pageSize
	}
	page, err := uc.prompts.GetQueuePage(ctx, bucket, newPage, pageSize)
	if err != nil {
		return err
	}

	uc.remove(ctx, post)
	return uc.sendQueuePage(ctx, post.ChannelID, post.UserID, page, uc.now())
}

// VisitSuggestSession ends the session when its stop emoji is used
func (uc *ReactableUsecase) VisitSuggestSession(ctx context.Context, post *domain.ReactablePost, data *domain.SuggestSessionPayload, ev domain.ReactionEvent) error {
	if domain.NormalizeEmoji(ev.Emoji) != domain.NormalizeEmoji(domain.EmojiStop) {
		return nil
	}

	count, err := uc.sessions.StopSession(ctx, post.UserID)
	if err != nil {
		return err
	}
	if err := uc.reactableRepo.Delete(ctx, post.MessageID); err != nil {
		return fmt.Errorf("delete reactable %s: %w", post.MessageID, err)
	}
	if _, err := uc.messageRepo.SendText(ctx, post.ChannelID, uc.sessions.EndedText(count)); err != nil {
		return fmt.Errorf("send session tally: %w", err)
	}
	return nil
}

// SendQueuePage sends a paginated view of the bucket's queue
func (uc *ReactableUsecase) SendQueuePage(ctx context.Context, channelID, userID string, b *domain.Bucket, page int, now time.Time) error {
	qp, err := uc.prompts.GetQueuePage(ctx, b, page, uc.pageSize)
	if err != nil {
		return err
	}
	return uc.sendQueuePage(ctx, channelID, userID, qp, now)
}

func (uc *ReactableUsecase) sendQueuePage(ctx context.Context, channelID, userID string, qp *QueuePage, now time.Time) error {
	var reactions []string
	if qp.TotalPages > 1 {
		reactions = []string{domain.EmojiPrevious, domain.EmojiNext}
	}

	post := &domain.ReactablePost{
		ChannelID:          channelID,
		UserID:             userID,
		CreatedAt:          now,
		TimeLimit:          QueueViewTimeLimit,
		MonitoredReactions: reactions,
		Payload: &domain.PromptQueuePayload{
			BucketID:    qp.Bucket.ID,
			CurrentPage: qp.Page,
			TotalPages:  qp.TotalPages,
			PageSize:    qp.PageSize,
		},
	}
	return uc.Send(ctx, post, qp.Render())
}

// SendSessionIntro sends the session intro to the user's direct messages
// with a stop reaction that ends the session
func (uc *ReactableUsecase) SendSessionIntro(ctx context.Context, session *domain.SubmissionSession, b *domain.Bucket, now time.Time) error {
	channelID, err := uc.messageRepo.OpenDirectChannel(ctx, session.UserID)
	if err != nil {
		return fmt.Errorf("open direct channel: %w", err)
	}

	post := &domain.ReactablePost{
		ChannelID:          channelID,
		UserID:             session.UserID,
		CreatedAt:          now,
		TimeLimit:          session.Remaining(now),
		MonitoredReactions: []string{domain.EmojiStop},
		Payload: &domain.SuggestSessionPayload{
			BucketID:    b.ID,
			IsAnonymous: session.IsAnonymous,
		},
	}
	return uc.Send(ctx, post, domain.InfoEmbed("Submission session", uc.sessions.IntroText(b, session, now)))
}

// SweepExpired deletes records of posts that no longer accept reactions
func (uc *ReactableUsecase) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	return uc.reactableRepo.DeleteExpired(ctx, now)
}
