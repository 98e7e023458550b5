package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

func TestStartNewSession_ReplacesExisting(t *testing.T) {
	f := newFixture()
	art := f.addBucket("art", domain.FrequencyDaily)
	music := f.addBucket("music", domain.FrequencyDaily)
	ctx := context.Background()

	if _, err := f.sessionUC.StartNewSession(ctx, "user-1", art, false, day0); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	session, err := f.sessionUC.StartNewSession(ctx, "user-1", music, true, day0.Add(time.Minute))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(f.sessions.sessions) != 1 {
		t.Fatalf("Expected exactly one session row, got %d", len(f.sessions.sessions))
	}
	if f.sessions.deletes != 1 {
		t.Errorf("Expected old session to be deleted, got %d deletes", f.sessions.deletes)
	}
	stored := f.sessions.sessions["user-1"]
	if stored.BucketID != music.ID || !stored.IsAnonymous {
		t.Errorf("Expected new session on music, got %+v", stored)
	}
	if !session.TimeoutAt.Equal(day0.Add(11 * time.Minute)) {
		t.Errorf("Expected timeout 10 minutes after start, got %v", session.TimeoutAt)
	}
}

func TestStartNewSession_RequiredRole(t *testing.T) {
	f := newFixture()
	b := f.addBucket("art", domain.FrequencyDaily)
	b.RequiredRoleID = "artist"
	f.community.roles["artist"] = true
	ctx := context.Background()

	_, err := f.sessionUC.StartNewSession(ctx, "user-1", b, false, day0)
	if _, ok := domain.AsUserError(err); !ok {
		t.Fatalf("Expected UserError, got %v", err)
	}
	if len(f.sessions.sessions) != 0 {
		t.Error("Expected no session without the role")
	}

	f.community.members["user-1:artist"] = true
	if _, err := f.sessionUC.StartNewSession(ctx, "user-1", b, false, day0); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestHandleDirectMessage(t *testing.T) {
	f := newFixture()
	b := f.addBucket("art", domain.FrequencyDaily)
	ctx := context.Background()

	handled, err := f.sessionUC.HandleDirectMessage(ctx, "user-1", "hello", day0)
	if err != nil || handled {
		t.Fatalf("Expected unhandled without a session, got %v, %v", handled, err)
	}

	if _, err := f.sessionUC.StartNewSession(ctx, "user-1", b, true, day0); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for _, text := range []string{"draw a cat", "  ", "draw a dog"} {
		if _, err := f.sessionUC.HandleDirectMessage(ctx, "user-1", text, day0.Add(time.Minute)); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	pending, _ := f.prompts.ListUnconfirmed(ctx, b.ID, 10)
	if len(pending) != 2 {
		t.Fatalf("Expected 2 submissions, got %d", len(pending))
	}
	if !pending[0].IsAnonymous || pending[0].State != domain.PromptSubmitted {
		t.Errorf("Expected anonymous submitted prompt, got %+v", pending[0])
	}

	count, err := f.sessionUC.StopSession(ctx, "user-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected tally 2, got %d", count)
	}
	if len(f.sessions.sessions) != 0 {
		t.Error("Expected session to be deleted")
	}
}

func TestHandleDirectMessage_ExpiredSession(t *testing.T) {
	f := newFixture()
	b := f.addBucket("art", domain.FrequencyDaily)
	ctx := context.Background()

	if _, err := f.sessionUC.StartNewSession(ctx, "user-1", b, false, day0); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	handled, err := f.sessionUC.HandleDirectMessage(ctx, "user-1", "late", day0.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if handled {
		t.Error("Expected expired session to be treated as absent")
	}

	removed, _ := f.sessionUC.CleanupExpired(ctx, day0.Add(10*time.Minute))
	if removed != 1 {
		t.Errorf("Expected sweep to remove 1 session, got %d", removed)
	}
}

func TestGetActiveSession_BucketGone(t *testing.T) {
	f := newFixture()
	b := f.addBucket("art", domain.FrequencyDaily)
	ctx := context.Background()

	if _, err := f.sessionUC.StartNewSession(ctx, "user-1", b, false, day0); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	delete(f.buckets.buckets, b.ID)

	session, bucket, err := f.sessionUC.GetActiveSession(ctx, "user-1", day0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if session != nil || bucket != nil {
		t.Error("Expected no active session when the bucket is gone")
	}
}

func TestHandleDirectMessage_Screening(t *testing.T) {
	f := newFixture()
	b := f.addBucket("art", domain.FrequencyDaily)
	ctx := context.Background()

	screen := &mockScreenRepo{flag: true}
	uc := NewSessionUsecase(f.sessions, f.buckets, f.prompts, f.community, screen, domain.SessionConfig{})
	if _, err := uc.StartNewSession(ctx, "user-1", b, false, day0); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := uc.HandleDirectMessage(ctx, "user-1", "questionable", day0); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	screen.flag, screen.err = false, errors.New("model unavailable")
	if _, err := uc.HandleDirectMessage(ctx, "user-1", "fine", day0); err != nil {
		t.Fatalf("Expected screening failure not to block the submission, got %v", err)
	}

	pending, _ := f.prompts.ListUnconfirmed(ctx, b.ID, 10)
	if len(pending) != 2 {
		t.Fatalf("Expected 2 submissions, got %d", len(pending))
	}
	if !pending[0].IsFlagged || pending[1].IsFlagged {
		t.Errorf("Unexpected flags: %v, %v", pending[0].IsFlagged, pending[1].IsFlagged)
	}
}

func TestSessionTexts(t *testing.T) {
	f := newFixture()
	b := &domain.Bucket{Handle: "art", DisplayName: "Art Prompts"}
	session := domain.NewSubmissionSession("user-1", 1, false, day0, 10*time.Minute)

	if got := f.sessionUC.IntroText(b, session, day0); got != "Send prompts for Art Prompts. 10 minutes left." {
		t.Errorf("Unexpected intro: %q", got)
	}
	if got := f.sessionUC.EndedText(3); got != "You submitted 3 prompt(s)." {
		t.Errorf("Unexpected ended text: %q", got)
	}
}
