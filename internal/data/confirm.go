package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// confirmationRepo implements the confirmation queue repository
type confirmationRepo struct {
	db *sql.DB
}

// NewConfirmationRepo creates a new confirmation queue repository
func NewConfirmationRepo(db *sql.DB) repo.ConfirmationRepo {
	return &confirmationRepo{db: db}
}

// Replace drops the channel's mapping and writes the new one
func (r *confirmationRepo) Replace(ctx context.Context, channelID string, entries []domain.ConfirmationEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prompt_confirmation_queue WHERE channel_id = ?`, channelID); err != nil {
		return fmt.Errorf("failed to clear confirmation queue: %w", err)
	}
	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO prompt_confirmation_queue (channel_id, prompt_id, confirm_number) VALUES (?, ?, ?)
		`, channelID, e.PromptID, e.ConfirmNumber)
		if err != nil {
			return fmt.Errorf("failed to insert confirmation %d: %w", e.ConfirmNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit confirmation queue: %w", err)
	}
	return nil
}

// Get gets one mapping
func (r *confirmationRepo) Get(ctx context.Context, channelID string, confirmNumber int) (*domain.ConfirmationEntry, error) {
	e := domain.ConfirmationEntry{ChannelID: channelID, ConfirmNumber: confirmNumber}
	err := r.db.QueryRowContext(ctx, `
		SELECT prompt_id FROM prompt_confirmation_queue WHERE channel_id = ? AND confirm_number = ?
	`, channelID, confirmNumber).Scan(&e.PromptID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query confirmation: %w", err)
	}
	return &e, nil
}

// Delete deletes one mapping
func (r *confirmationRepo) Delete(ctx context.Context, channelID string, confirmNumber int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM prompt_confirmation_queue WHERE channel_id = ? AND confirm_number = ?
	`, channelID, confirmNumber)
	if err != nil {
		return fmt.Errorf("failed to delete confirmation: %w", err)
	}
	return nil
}
