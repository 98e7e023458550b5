package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// sessionRepo implements the submission session repository
type sessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *sql.DB) repo.SessionRepo {
	return &sessionRepo{db: db}
}

// GetByUser gets the session of a user
func (r *sessionRepo) GetByUser(ctx context.Context, userID string) (*domain.SubmissionSession, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, bucket_id, started_at, timeout_at, is_anonymous, submission_count
		FROM prompt_submission_sessions
		WHERE user_id = ?
	`, userID)

	var session domain.SubmissionSession
	var startedAt, timeoutAt int64
	var anonymous int
	err := row.Scan(&session.UserID, &session.BucketID, &startedAt, &timeoutAt, &anonymous, &session.SubmissionCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	session.StartedAt = time.Unix(startedAt, 0).UTC()
	session.TimeoutAt = time.Unix(timeoutAt, 0).UTC()
	session.IsAnonymous = anonymous != 0
	return &session, nil
}

// Save saves a session, replacing any session of the same user
func (r *sessionRepo) Save(ctx context.Context, session *domain.SubmissionSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO prompt_submission_sessions (user_id, bucket_id, started_at, timeout_at, is_anonymous, submission_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		session.UserID,
		session.BucketID,
		session.StartedAt.Unix(),
		session.TimeoutAt.Unix(),
		boolToInt(session.IsAnonymous),
		session.SubmissionCount,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete deletes a session
func (r *sessionRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM prompt_submission_sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// IncrementSubmissions bumps the submission tally
func (r *sessionRepo) IncrementSubmissions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE prompt_submission_sessions SET submission_count = submission_count + 1 WHERE user_id = ?
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to increment submissions: %w", err)
	}
	return nil
}

// CleanupExpired deletes sessions whose timeout is not after the given time
func (r *sessionRepo) CleanupExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM prompt_submission_sessions WHERE timeout_at <= ?
	`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}
	return result.RowsAffected()
}
