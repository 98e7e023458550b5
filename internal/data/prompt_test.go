package data

import (
	"context"
	"testing"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

func TestPromptRepo_QueueAndNumbering(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	b := createTestBucket(t, db, "guild-1", "sfw")
	r := NewPromptRepo(db)
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	next, err := r.NextPromptNumber(ctx, b.ID)
	if err != nil {
		t.Fatalf("next number: %v", err)
	}
	if next != 1 {
		t.Errorf("Expected first number 1, got %d", next)
	}

	first := domain.NewSubmission(b.ID, "user-1", "first", false, now)
	second := domain.NewSubmission(b.ID, "user-2", "second", false, now.Add(time.Minute))
	for _, p := range []*domain.Prompt{second, first} {
		if err := p.Approve(); err != nil {
			t.Fatalf("approve: %v", err)
		}
		if err := r.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	count, err := r.CountQueued(ctx, b.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 queued, got %d", count)
	}

	head, err := r.GetNextQueued(ctx, b.ID)
	if err != nil {
		t.Fatalf("next queued: %v", err)
	}
	if head == nil || head.Text != "first" {
		t.Fatalf("Expected oldest submission first, got %+v", head)
	}

	if err := head.MarkPosted(1, now.Add(time.Hour)); err != nil {
		t.Fatalf("mark posted: %v", err)
	}
	if err := r.UpdateState(ctx, head); err != nil {
		t.Fatalf("update: %v", err)
	}

	current, err := r.GetCurrent(ctx, b.ID)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current == nil || current.PromptNumber != 1 || !current.PostedAt.Equal(now.Add(time.Hour)) {
		t.Errorf("Expected prompt #1 to be current, got %+v", current)
	}

	next, _ = r.NextPromptNumber(ctx, b.ID)
	if next != 2 {
		t.Errorf("Expected next number 2, got %d", next)
	}

	// A second prompt with the same number violates the unique index
	dup, _ := r.GetNextQueued(ctx, b.ID)
	dup.State = domain.PromptPosted
	dup.PromptNumber = 1
	dup.PostedAt = now
	if err := r.UpdateState(ctx, dup); err == nil {
		t.Error("Expected duplicate prompt number to be rejected")
	}
}

func TestPromptRepo_DustiestAndRepost(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	b := createTestBucket(t, db, "guild-1", "sfw")
	r := NewPromptRepo(db)
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	var posted []*domain.Prompt
	for i, text := range []string{"old", "new"} {
		p := domain.NewSubmission(b.ID, "user-1", text, false, now)
		_ = p.Approve()
		_ = p.MarkPosted(i+1, now.Add(time.Duration(i)*24*time.Hour))
		if err := r.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
		posted = append(posted, p)
	}

	dusty, err := r.GetDustiest(ctx, b.ID)
	if err != nil {
		t.Fatalf("dustiest: %v", err)
	}
	if dusty == nil || dusty.ID != posted[0].ID {
		t.Fatalf("Expected oldest posted prompt, got %+v", dusty)
	}

	reusedAt := now.Add(72 * time.Hour)
	repost, err := dusty.Recycle(reusedAt)
	if err != nil {
		t.Fatalf("recycle: %v", err)
	}
	_ = repost.MarkPosted(3, reusedAt)
	if err := r.SaveRepost(ctx, repost, dusty.ID, reusedAt); err != nil {
		t.Fatalf("save repost: %v", err)
	}

	dusty, _ = r.GetDustiest(ctx, b.ID)
	if dusty == nil || dusty.ID != posted[1].ID {
		t.Errorf("Expected the other prompt to be dustiest after reuse, got %+v", dusty)
	}

	source, _ := r.GetByID(ctx, posted[0].ID)
	if !source.LastReusedAt.Equal(reusedAt) {
		t.Errorf("Expected source reuse time %v, got %v", reusedAt, source.LastReusedAt)
	}

	current, _ := r.GetCurrent(ctx, b.ID)
	if current == nil || current.RepostOfID != posted[0].ID || current.PromptNumber != 3 {
		t.Errorf("Expected repost to be current, got %+v", current)
	}

	board, err := r.Leaderboard(ctx, "guild-1", 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 1 || board[0].PostedCount != 2 {
		t.Errorf("Expected reposts excluded from leaderboard, got %+v", board)
	}
}
