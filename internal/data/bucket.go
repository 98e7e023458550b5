package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// bucketRepo implements the Bucket repository
type bucketRepo struct {
	db *sql.DB
}

// NewBucketRepo creates a new Bucket repository
func NewBucketRepo(db *sql.DB) repo.BucketRepo {
	return &bucketRepo{db: db}
}

const bucketColumns = `id, community_id, channel_id, handle, display_name, frequency, is_paused,
	required_role_id, alert_when_low, alerted_emptying, prompt_title_format, pin_prompts`

func scanBucket(row scanner) (*domain.Bucket, error) {
	var b domain.Bucket
	var frequency string
	var paused, alertWhenLow, alerted, pin int
	err := row.Scan(&b.ID, &b.CommunityID, &b.ChannelID, &b.Handle, &b.DisplayName, &frequency, &paused,
		&b.RequiredRoleID, &alertWhenLow, &alerted, &b.PromptTitleFormat, &pin)
	if err != nil {
		return nil, err
	}
	b.Frequency = domain.Frequency(frequency)
	b.IsPaused = paused != 0
	b.AlertWhenLow = alertWhenLow != 0
	b.AlertedEmptying = alerted != 0
	b.PinPrompts = pin != 0
	return &b, nil
}

// Create inserts a bucket
func (r *bucketRepo) Create(ctx context.Context, b *domain.Bucket) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO prompt_buckets (community_id, channel_id, handle, display_name, frequency, is_paused,
			required_role_id, alert_when_low, alerted_emptying, prompt_title_format, pin_prompts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.CommunityID, b.ChannelID, b.Handle, b.DisplayName, string(b.Frequency), boolToInt(b.IsPaused),
		b.RequiredRoleID, boolToInt(b.AlertWhenLow), boolToInt(b.AlertedEmptying), b.PromptTitleFormat, boolToInt(b.PinPrompts),
	)
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get bucket id: %w", err)
	}
	b.ID = id
	return nil
}

// GetByID gets a bucket by ID
func (r *bucketRepo) GetByID(ctx context.Context, id int64) (*domain.Bucket, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bucketColumns+` FROM prompt_buckets WHERE id = ?`, id)
	b, err := scanBucket(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bucket: %w", err)
	}
	return b, nil
}

// GetByHandle gets a bucket by community and handle
func (r *bucketRepo) GetByHandle(ctx context.Context, communityID, handle string) (*domain.Bucket, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+bucketColumns+` FROM prompt_buckets WHERE community_id = ? AND handle = ?
	`, communityID, handle)
	b, err := scanBucket(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bucket: %w", err)
	}
	return b, nil
}

// ListByCommunity lists the buckets of a community
func (r *bucketRepo) ListByCommunity(ctx context.Context, communityID string) ([]*domain.Bucket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+bucketColumns+` FROM prompt_buckets WHERE community_id = ? ORDER BY handle
	`, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	defer rows.Close()

	var buckets []*domain.Bucket
	for rows.Next() {
		b, err := scanBucket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// Update saves a bucket
func (r *bucketRepo) Update(ctx context.Context, b *domain.Bucket) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE prompt_buckets SET channel_id = ?, display_name = ?, frequency = ?, is_paused = ?,
			required_role_id = ?, alert_when_low = ?, alerted_emptying = ?, prompt_title_format = ?, pin_prompts = ?
		WHERE id = ?
	`,
		b.ChannelID, b.DisplayName, string(b.Frequency), boolToInt(b.IsPaused),
		b.RequiredRoleID, boolToInt(b.AlertWhenLow), boolToInt(b.AlertedEmptying), b.PromptTitleFormat, boolToInt(b.PinPrompts),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bucket: %w", err)
	}
	return nil
}

// SetAlertedEmptying updates the low-queue alert flag alone
func (r *bucketRepo) SetAlertedEmptying(ctx context.Context, bucketID int64, alerted bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE prompt_buckets SET alerted_emptying = ? WHERE id = ?`, boolToInt(alerted), bucketID)
	if err != nil {
		return fmt.Errorf("failed to update bucket alert flag: %w", err)
	}
	return nil
}
