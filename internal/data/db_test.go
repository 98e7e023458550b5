package data

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestBucket(t *testing.T, db *sql.DB, communityID, handle string) *domain.Bucket {
	t.Helper()
	b := &domain.Bucket{
		CommunityID:  communityID,
		ChannelID:    "chan-" + handle,
		Handle:       handle,
		Frequency:    domain.FrequencyDaily,
		AlertWhenLow: true,
	}
	if err := NewBucketRepo(db).Create(context.Background(), b); err != nil {
		t.Fatalf("create bucket: %v", err)
	}
	return b
}

func TestMigrate_IdempotentAndRecordsVersion(t *testing.T) {
	db := openTestDB(t)

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate second: %v", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		t.Fatalf("read schema_migrations: %v", err)
	}
	if current != SchemaVersion {
		t.Fatalf("current version=%d, want %d", current, SchemaVersion)
	}
}

func TestBucketRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := NewBucketRepo(db)

	b := createTestBucket(t, db, "guild-1", "sfw")
	if b.ID == 0 {
		t.Fatal("Expected bucket ID to be set")
	}

	b.IsPaused = true
	b.RequiredRoleID = "role-1"
	b.PromptTitleFormat = "Day {number}"
	if err := r.Update(ctx, b); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := r.GetByHandle(ctx, "guild-1", "sfw")
	if err != nil {
		t.Fatalf("get by handle: %v", err)
	}
	if got == nil || !got.IsPaused || got.RequiredRoleID != "role-1" || got.PromptTitleFormat != "Day {number}" || !got.AlertWhenLow {
		t.Errorf("Expected updated bucket, got %+v", got)
	}

	missing, err := r.GetByHandle(ctx, "guild-2", "sfw")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for other community, got %+v", missing)
	}

	dup := &domain.Bucket{CommunityID: "guild-1", ChannelID: "c", Handle: "sfw", Frequency: domain.FrequencyDaily}
	if err := r.Create(ctx, dup); err == nil {
		t.Error("Expected duplicate handle to be rejected")
	}
}

func TestBucketRepo_SetAlertedEmptyingOnlyTouchesFlag(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := NewBucketRepo(db)

	b := createTestBucket(t, db, "guild-1", "sfw")
	stale := *b

	b.IsPaused = true
	b.Frequency = domain.FrequencyWeekly
	if err := r.Update(ctx, b); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := r.SetAlertedEmptying(ctx, stale.ID, true); err != nil {
		t.Fatalf("set alerted: %v", err)
	}

	got, err := r.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.AlertedEmptying {
		t.Error("Expected AlertedEmptying to be set")
	}
	if !got.IsPaused || got.Frequency != domain.FrequencyWeekly {
		t.Errorf("Expected other fields untouched, got %+v", got)
	}
}

func TestSessionRepo_ReplaceAndCleanup(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := NewSessionRepo(db)
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	first := domain.NewSubmissionSession("user-1", 1, false, now, 10*time.Minute)
	if err := r.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := domain.NewSubmissionSession("user-1", 2, true, now.Add(time.Minute), 10*time.Minute)
	if err := r.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}
	if err := r.IncrementSubmissions(ctx, "user-1"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	got, err := r.GetByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.BucketID != 2 || !got.IsAnonymous || got.SubmissionCount != 1 {
		t.Errorf("Expected replaced session with one submission, got %+v", got)
	}
	if !got.TimeoutAt.Equal(now.Add(11 * time.Minute)) {
		t.Errorf("Expected timeout %v, got %v", now.Add(11*time.Minute), got.TimeoutAt)
	}

	removed, err := r.CleanupExpired(ctx, now.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 0 {
		t.Errorf("Expected live session to survive, removed %d", removed)
	}
	removed, err = r.CleanupExpired(ctx, now.Add(11*time.Minute))
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}
	if got, _ := r.GetByUser(ctx, "user-1"); got != nil {
		t.Errorf("Expected no session, got %+v", got)
	}
}

func TestConfirmationRepo_Replace(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	b := createTestBucket(t, db, "guild-1", "sfw")
	prompts := NewPromptRepo(db)
	r := NewConfirmationRepo(db)
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	var ids []int64
	for _, text := range []string{"a", "b", "c"} {
		p := domain.NewSubmission(b.ID, "user-1", text, false, now)
		if err := prompts.Create(ctx, p); err != nil {
			t.Fatalf("create prompt: %v", err)
		}
		ids = append(ids, p.ID)
	}

	entries := []domain.ConfirmationEntry{
		{ChannelID: "admin", PromptID: ids[0], ConfirmNumber: 0},
		{ChannelID: "admin", PromptID: ids[1], ConfirmNumber: 1},
	}
	if err := r.Replace(ctx, "admin", entries); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := r.Replace(ctx, "admin", []domain.ConfirmationEntry{{ChannelID: "admin", PromptID: ids[2], ConfirmNumber: 0}}); err != nil {
		t.Fatalf("replace again: %v", err)
	}

	got, err := r.Get(ctx, "admin", 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.PromptID != ids[2] {
		t.Errorf("Expected number 0 to map to %d, got %+v", ids[2], got)
	}
	if got, _ := r.Get(ctx, "admin", 1); got != nil {
		t.Errorf("Expected old mapping to be dropped, got %+v", got)
	}

	if err := prompts.Delete(ctx, ids[2]); err != nil {
		t.Fatalf("delete prompt: %v", err)
	}
	if got, _ := r.Get(ctx, "admin", 0); got != nil {
		t.Errorf("Expected mapping to cascade with its prompt, got %+v", got)
	}
}
