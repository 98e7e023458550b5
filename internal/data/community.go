package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// settingsRepo implements the community settings repository
type settingsRepo struct {
	db *sql.DB
}

// NewSettingsRepo creates a new community settings repository
func NewSettingsRepo(db *sql.DB) repo.SettingsRepo {
	return &settingsRepo{db: db}
}

// Get gets a community's settings
func (r *settingsRepo) Get(ctx context.Context, communityID string) (*domain.Community, error) {
	var c domain.Community
	err := r.db.QueryRowContext(ctx, `
		SELECT id, admin_channel_id FROM communities WHERE id = ?
	`, communityID).Scan(&c.ID, &c.AdminChannelID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query community: %w", err)
	}
	return &c, nil
}

// Save saves a community's settings
func (r *settingsRepo) Save(ctx context.Context, c *domain.Community) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO communities (id, admin_channel_id) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET admin_channel_id = excluded.admin_channel_id
	`, c.ID, c.AdminChannelID)
	if err != nil {
		return fmt.Errorf("failed to save community: %w", err)
	}
	return nil
}
