package data

import (
	"context"
	"testing"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

func syncTestChronos(t *testing.T, r interface {
	SyncDefinitions(ctx context.Context, defs []*domain.ChronoDefinition) error
}) []*domain.ChronoDefinition {
	t.Helper()
	defs := []*domain.ChronoDefinition{
		{Handle: "post-new-prompts", UTCHour: 12},
		{Handle: "alert-low-bucket-queue", RequiredFeature: "prompts", UTCHour: 0},
	}
	if err := r.SyncDefinitions(context.Background(), defs); err != nil {
		t.Fatalf("sync: %v", err)
	}
	return defs
}

func dueHandles(due []domain.DueChrono) map[string]bool {
	handles := make(map[string]bool)
	for _, d := range due {
		handles[d.CommunityID+"/"+d.Handle] = true
	}
	return handles
}

func TestChronoRepo_GetDue(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := NewChronoRepo(db)

	if err := r.EnsureCommunity(ctx, "guild-1"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	defs := syncTestChronos(t, r)
	if defs[0].ID == 0 || defs[1].ID == 0 {
		t.Fatalf("Expected definition IDs to be set, got %+v %+v", defs[0], defs[1])
	}

	morning := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	due, err := r.GetDue(ctx, morning)
	if err != nil {
		t.Fatalf("get due: %v", err)
	}
	got := dueHandles(due)
	if got["guild-1/post-new-prompts"] {
		t.Error("Expected chrono to wait for its hour")
	}
	if !got["guild-1/alert-low-bucket-queue"] {
		t.Error("Expected chrono with unset feature to be due")
	}

	// A missed hour still fires later the same day
	evening := time.Date(2024, 4, 1, 20, 0, 0, 0, time.UTC)
	due, _ = r.GetDue(ctx, evening)
	if !dueHandles(due)["guild-1/post-new-prompts"] {
		t.Error("Expected chrono to be due after its hour")
	}

	if err := r.MarkRan(ctx, "guild-1", defs[0].ID, domain.DateOf(evening)); err != nil {
		t.Fatalf("mark ran: %v", err)
	}
	due, _ = r.GetDue(ctx, evening.Add(time.Hour))
	if dueHandles(due)["guild-1/post-new-prompts"] {
		t.Error("Expected chrono to run at most once per day")
	}
	due, _ = r.GetDue(ctx, evening.Add(17*time.Hour))
	if !dueHandles(due)["guild-1/post-new-prompts"] {
		t.Error("Expected chrono to be due again the next day")
	}

	if err := r.SetFeature(ctx, "guild-1", "prompts", false); err != nil {
		t.Fatalf("set feature: %v", err)
	}
	due, _ = r.GetDue(ctx, evening)
	if dueHandles(due)["guild-1/alert-low-bucket-queue"] {
		t.Error("Expected disabled feature to gate the chrono")
	}

	ok, err := r.SetEnabled(ctx, "guild-1", "post-new-prompts", false)
	if err != nil || !ok {
		t.Fatalf("set enabled: ok=%v err=%v", ok, err)
	}
	due, _ = r.GetDue(ctx, evening.Add(17*time.Hour))
	if dueHandles(due)["guild-1/post-new-prompts"] {
		t.Error("Expected disabled chrono not to be due")
	}

	ok, _ = r.SetEnabled(ctx, "guild-1", "no-such-chrono", true)
	if ok {
		t.Error("Expected unknown handle to report not found")
	}
}

func TestChronoRepo_SeedsNewCommunities(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := NewChronoRepo(db)
	syncTestChronos(t, r)

	// Syncing twice keeps one row per handle
	syncTestChronos(t, r)
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM chronos`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 chronos, got %d", count)
	}

	if err := r.EnsureCommunity(ctx, "guild-2"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	due, _ := r.GetDue(ctx, time.Date(2024, 4, 1, 23, 0, 0, 0, time.UTC))
	if len(due) != 2 {
		t.Errorf("Expected both chronos due for the new community, got %+v", due)
	}
}
