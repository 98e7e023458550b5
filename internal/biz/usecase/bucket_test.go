package usecase

import (
	"context"
	"testing"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
)

func TestResolve_DefaultBucket(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.bucketUC.Resolve(ctx, testCommunity, ""); err == nil {
		t.Error("Expected error with no buckets")
	}

	art := f.addBucket("art", domain.FrequencyDaily)
	b, err := f.bucketUC.Resolve(ctx, testCommunity, "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if b.ID != art.ID {
		t.Errorf("Expected the only bucket, got %s", b.Handle)
	}

	f.addBucket("music", domain.FrequencyDaily)
	_, err = f.bucketUC.Resolve(ctx, testCommunity, "")
	if _, ok := domain.AsUserError(err); !ok {
		t.Errorf("Expected UserError with multiple buckets, got %v", err)
	}

	b, err = f.bucketUC.Resolve(ctx, testCommunity, "MUSIC")
	if err != nil || b.Handle != "music" {
		t.Errorf("Expected case-insensitive handle lookup, got %v, %v", b, err)
	}

	if _, err := f.bucketUC.Resolve(ctx, testCommunity, "poetry"); err == nil {
		t.Error("Expected error for unknown handle")
	}
}

func TestCreate_HandleUnique(t *testing.T) {
	f := newFixture()
	f.community.channels["chan-1"] = true
	ctx := context.Background()

	b, err := f.bucketUC.Create(ctx, testCommunity, "chan-1", "Art", "Art Prompts")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if b.Handle != "art" || b.Frequency != domain.FrequencyDaily {
		t.Errorf("Unexpected bucket: %+v", b)
	}

	if _, err := f.bucketUC.Create(ctx, testCommunity, "chan-1", "art", ""); err == nil {
		t.Error("Expected duplicate handle to fail")
	}
	if _, err := f.bucketUC.Create(ctx, testCommunity, "missing", "other", ""); err == nil {
		t.Error("Expected missing channel to fail")
	}
}

func TestIsValid(t *testing.T) {
	f := newFixture()
	b := f.addBucket("art", domain.FrequencyDaily)
	ctx := context.Background()

	if !f.bucketUC.IsValid(ctx, b) {
		t.Error("Expected bucket to be valid")
	}

	b.RequiredRoleID = "artist"
	if f.bucketUC.IsValid(ctx, b) {
		t.Error("Expected bucket with a missing role to be invalid")
	}
	f.community.roles["artist"] = true
	if !f.bucketUC.IsValid(ctx, b) {
		t.Error("Expected bucket to be valid once the role exists")
	}

	f.community.channels[b.ChannelID] = false
	if f.bucketUC.IsValid(ctx, b) {
		t.Error("Expected bucket with a missing channel to be invalid")
	}
}

func TestSetPausedAndSettings(t *testing.T) {
	f := newFixture()
	b := f.addBucket("art", domain.FrequencyDaily)
	ctx := context.Background()

	if err := f.bucketUC.SetPaused(ctx, b, true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := f.bucketUC.SetPaused(ctx, b, true); err == nil {
		t.Error("Expected pausing twice to fail")
	}
	if err := f.bucketUC.SetFrequency(ctx, b, "weekly"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := f.bucketUC.SetTitleFormat(ctx, b, "No number"); err == nil {
		t.Error("Expected title without {number} to fail")
	}

	stored, _ := f.buckets.GetByID(ctx, b.ID)
	if !stored.IsPaused || stored.Frequency != domain.FrequencyWeekly {
		t.Errorf("Unexpected stored bucket: %+v", stored)
	}
}
