package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// promptRepo implements the Prompt repository
type promptRepo struct {
	db *sql.DB
}

// NewPromptRepo creates a new Prompt repository
func NewPromptRepo(db *sql.DB) repo.PromptRepo {
	return &promptRepo{db: db}
}

const promptColumns = `id, bucket_id, submitting_user_id, submitted_at, text, is_anonymous, is_flagged,
	state, prompt_number, posted_at, repost_of_id, last_reused_at`

func scanPrompt(row scanner) (*domain.Prompt, error) {
	var p domain.Prompt
	var submittedAt int64
	var anonymous, flagged int
	var state string
	var number, postedAt, repostOf, lastReused sql.NullInt64
	err := row.Scan(&p.ID, &p.BucketID, &p.SubmittingUserID, &submittedAt, &p.Text, &anonymous, &flagged,
		&state, &number, &postedAt, &repostOf, &lastReused)
	if err != nil {
		return nil, err
	}
	p.SubmittedAt = time.Unix(submittedAt, 0).UTC()
	p.IsAnonymous = anonymous != 0
	p.IsFlagged = flagged != 0
	p.State = domain.PromptState(state)
	p.PromptNumber = int(number.Int64)
	p.PostedAt = timeFromNull(postedAt)
	p.RepostOfID = repostOf.Int64
	p.LastReusedAt = timeFromNull(lastReused)
	return &p, nil
}

func (r *promptRepo) queryOne(ctx context.Context, query string, args ...any) (*domain.Prompt, error) {
	p, err := scanPrompt(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query prompt: %w", err)
	}
	return p, nil
}

func (r *promptRepo) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Prompt, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []*domain.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

func insertPrompt(ctx context.Context, db execer, p *domain.Prompt) error {
	var number any
	if p.PromptNumber > 0 {
		number = p.PromptNumber
	}
	var repostOf any
	if p.RepostOfID != 0 {
		repostOf = p.RepostOfID
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO prompts (bucket_id, submitting_user_id, submitted_at, text, is_anonymous, is_flagged,
			state, prompt_number, posted_at, repost_of_id, last_reused_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.BucketID, p.SubmittingUserID, p.SubmittedAt.Unix(), p.Text, boolToInt(p.IsAnonymous), boolToInt(p.IsFlagged),
		string(p.State), number, unixOrNull(p.PostedAt), repostOf, unixOrNull(p.LastReusedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert prompt: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get prompt id: %w", err)
	}
	p.ID = id
	return nil
}

// Create inserts a prompt
func (r *promptRepo) Create(ctx context.Context, p *domain.Prompt) error {
	return insertPrompt(ctx, r.db, p)
}

// GetByID gets a prompt by ID
func (r *promptRepo) GetByID(ctx context.Context, id int64) (*domain.Prompt, error) {
	return r.queryOne(ctx, `SELECT `+promptColumns+` FROM prompts WHERE id = ?`, id)
}

// GetCurrent gets the most recently posted prompt of a bucket
func (r *promptRepo) GetCurrent(ctx context.Context, bucketID int64) (*domain.Prompt, error) {
	return r.queryOne(ctx, `
		SELECT `+promptColumns+` FROM prompts
		WHERE bucket_id = ? AND state = ?
		ORDER BY prompt_number DESC
		LIMIT 1
	`, bucketID, string(domain.PromptPosted))
}

// GetNextQueued gets the oldest approved prompt of a bucket
func (r *promptRepo) GetNextQueued(ctx context.Context, bucketID int64) (*domain.Prompt, error) {
	return r.queryOne(ctx, `
		SELECT `+promptColumns+` FROM prompts
		WHERE bucket_id = ? AND state = ?
		ORDER BY submitted_at ASC, id ASC
		LIMIT 1
	`, bucketID, string(domain.PromptApproved))
}

// GetDustiest gets the original posted prompt that was used least recently
func (r *promptRepo) GetDustiest(ctx context.Context, bucketID int64) (*domain.Prompt, error) {
	return r.queryOne(ctx, `
		SELECT `+promptColumns+` FROM prompts
		WHERE bucket_id = ? AND state = ? AND repost_of_id IS NULL
		ORDER BY COALESCE(last_reused_at, posted_at) ASC, id ASC
		LIMIT 1
	`, bucketID, string(domain.PromptPosted))
}

// ListUnconfirmed lists the oldest submitted prompts of a bucket
func (r *promptRepo) ListUnconfirmed(ctx context.Context, bucketID int64, limit int) ([]*domain.Prompt, error) {
	return r.queryMany(ctx, `
		SELECT `+promptColumns+` FROM prompts
		WHERE bucket_id = ? AND state = ?
		ORDER BY submitted_at ASC, id ASC
		LIMIT ?
	`, bucketID, string(domain.PromptSubmitted), limit)
}

// ListQueued lists approved prompts of a bucket in posting order
func (r *promptRepo) ListQueued(ctx context.Context, bucketID int64, offset, limit int) ([]*domain.Prompt, error) {
	return r.queryMany(ctx, `
		SELECT `+promptColumns+` FROM prompts
		WHERE bucket_id = ? AND state = ?
		ORDER BY submitted_at ASC, id ASC
		LIMIT ? OFFSET ?
	`, bucketID, string(domain.PromptApproved), limit, offset)
}

// CountQueued counts approved prompts of a bucket
func (r *promptRepo) CountQueued(ctx context.Context, bucketID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM prompts WHERE bucket_id = ? AND state = ?
	`, bucketID, string(domain.PromptApproved)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return count, nil
}

// NextPromptNumber returns the number the next posted prompt gets
func (r *promptRepo) NextPromptNumber(ctx context.Context, bucketID int64) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(prompt_number), 0) + 1 FROM prompts WHERE bucket_id = ?
	`, bucketID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to get next prompt number: %w", err)
	}
	return next, nil
}

// UpdateState saves the lifecycle fields of a prompt
func (r *promptRepo) UpdateState(ctx context.Context, p *domain.Prompt) error {
	var number any
	if p.PromptNumber > 0 {
		number = p.PromptNumber
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE prompts SET state = ?, prompt_number = ?, posted_at = ? WHERE id = ?
	`, string(p.State), number, unixOrNull(p.PostedAt), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update prompt: %w", err)
	}
	return nil
}

// SaveRepost inserts a recycled prompt and stamps its source
func (r *promptRepo) SaveRepost(ctx context.Context, repost *domain.Prompt, sourceID int64, reusedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertPrompt(ctx, tx, repost); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE prompts SET last_reused_at = ? WHERE id = ?
	`, reusedAt.Unix(), sourceID); err != nil {
		return fmt.Errorf("failed to stamp reused prompt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit repost: %w", err)
	}
	return nil
}

// Delete deletes a prompt
func (r *promptRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	return nil
}

// Leaderboard counts posted, non-anonymous originals per submitter
func (r *promptRepo) Leaderboard(ctx context.Context, communityID string, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.submitting_user_id, COUNT(*) AS posted
		FROM prompts p
		JOIN prompt_buckets b ON b.id = p.bucket_id
		WHERE b.community_id = ? AND p.state = ? AND p.is_anonymous = 0 AND p.repost_of_id IS NULL
		GROUP BY p.submitting_user_id
		ORDER BY posted DESC, p.submitting_user_id ASC
		LIMIT ?
	`, communityID, string(domain.PromptPosted), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.PostedCount); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
