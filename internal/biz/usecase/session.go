package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// SessionUsecase handles submission sessions
type SessionUsecase struct {
	sessionRepo   repo.SessionRepo
	bucketRepo    repo.BucketRepo
	promptRepo    repo.PromptRepo
	communityRepo repo.CommunityRepo
	screenRepo    repo.ScreenRepo // Optional
	config        domain.SessionConfig
}

// NewSessionUsecase creates a new session usecase. screenRepo may be nil.
func NewSessionUsecase(
	sessionRepo repo.SessionRepo,
	bucketRepo repo.BucketRepo,
	promptRepo repo.PromptRepo,
	communityRepo repo.CommunityRepo,
	screenRepo repo.ScreenRepo,
	config domain.SessionConfig,
) *SessionUsecase {
	if config.Length <= 0 {
		config.Length = domain.DefaultSessionLength
	}
	return &SessionUsecase{
		sessionRepo:   sessionRepo,
		bucketRepo:    bucketRepo,
		promptRepo:    promptRepo,
		communityRepo: communityRepo,
		screenRepo:    screenRepo,
		config:        config,
	}
}

// StartNewSession replaces any session the user has with a new one on the bucket
func (uc *SessionUsecase) StartNewSession(ctx context.Context, userID string, b *domain.Bucket, anonymous bool, now time.Time) (*domain.SubmissionSession, error) {
	if b.HasRequiredRole() {
		ok, err := uc.communityRepo.MemberHasRole(ctx, b.CommunityID, userID, b.RequiredRoleID)
		if err != nil {
			return nil, fmt.Errorf("check member role: %w", err)
		}
		if !ok {
			return nil, domain.NewUserError("You need the <@&%s> role to submit prompts to `%s`.", b.RequiredRoleID, b.Handle)
		}
	}

	if err := uc.sessionRepo.Delete(ctx, userID); err != nil {
		return nil, fmt.Errorf("delete old session: %w", err)
	}

	session := domain.NewSubmissionSession(userID, b.ID, anonymous, now, uc.config.Length)
	if err := uc.sessionRepo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	fmt.Printf("[Session] Started session for user %s on bucket %s (anonymous=%v)\n", userID, b.Handle, anonymous)
	return session, nil
}

// GetActiveSession returns the user's session when it is live and its bucket
// still exists; otherwise nil
func (uc *SessionUsecase) GetActiveSession(ctx context.Context, userID string, now time.Time) (*domain.SubmissionSession, *domain.Bucket, error) {
	session, err := uc.sessionRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil || !session.IsLive(now) {
		return nil, nil, nil
	}

	bucket, err := uc.bucketRepo.GetByID(ctx, session.BucketID)
	if err != nil {
		return nil, nil, fmt.Errorf("get bucket %d: %w", session.BucketID, err)
	}
	if bucket == nil {
		return nil, nil, nil
	}
	return session, bucket, nil
}

// HandleDirectMessage turns a direct message into a submission when the user
// has an active session. Returns false when there is no active session.
func (uc *SessionUsecase) HandleDirectMessage(ctx context.Context, userID, text string, now time.Time) (bool, error) {
	session, bucket, err := uc.GetActiveSession(ctx, userID, now)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return true, nil
	}

	prompt := domain.NewSubmission(bucket.ID, userID, text, session.IsAnonymous, now)
	prompt.IsFlagged = uc.screen(ctx, text)
	if err := uc.promptRepo.Create(ctx, prompt); err != nil {
		return true, fmt.Errorf("create submission: %w", err)
	}
	if err := uc.sessionRepo.IncrementSubmissions(ctx, userID); err != nil {
		return true, fmt.Errorf("increment submissions: %w", err)
	}
	return true, nil
}

// screen asks the screening model about the text. Screening failures never
// block a submission.
func (uc *SessionUsecase) screen(ctx context.Context, text string) bool {
	if uc.screenRepo == nil {
		return false
	}
	flagged, err := uc.screenRepo.ShouldFlag(ctx, text)
	if err != nil {
		fmt.Printf("[Session] Screening failed: %v\n", err)
		return false
	}
	return flagged
}

// StopSession ends the user's session and returns how many submissions it took
func (uc *SessionUsecase) StopSession(ctx context.Context, userID string) (int, error) {
	session, err := uc.sessionRepo.GetByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return 0, nil
	}
	if err := uc.sessionRepo.Delete(ctx, userID); err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	fmt.Printf("[Session] Stopped session for user %s after %d submission(s)\n", userID, session.SubmissionCount)
	return session.SubmissionCount, nil
}

// EndOngoingDirectMessageProcesses drops any session the user has
func (uc *SessionUsecase) EndOngoingDirectMessageProcesses(ctx context.Context, userID string) error {
	return uc.sessionRepo.Delete(ctx, userID)
}

// CleanupExpired deletes sessions that are no longer live
func (uc *SessionUsecase) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	return uc.sessionRepo.CleanupExpired(ctx, now)
}

// IntroText renders the message sent when a session starts
func (uc *SessionUsecase) IntroText(b *domain.Bucket, session *domain.SubmissionSession, now time.Time) string {
	minutes := int(session.Remaining(now).Round(time.Minute) / time.Minute)
	text := strings.ReplaceAll(uc.config.IntroTemplate, "{bucket}", b.Name())
	text = strings.ReplaceAll(text, "{minutes}", strconv.Itoa(minutes))
	if session.IsAnonymous {
		text += "\n\nYour submissions will be posted anonymously."
	}
	return text
}

// EndedText renders the message sent when a session is stopped
func (uc *SessionUsecase) EndedText(count int) string {
	return strings.ReplaceAll(uc.config.EndedTemplate, "{count}", strconv.Itoa(count))
}
