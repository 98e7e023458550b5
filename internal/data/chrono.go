package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// chronoRepo implements the chrono schedule repository
type chronoRepo struct {
	db *sql.DB
}

// NewChronoRepo creates a new chrono repository
func NewChronoRepo(db *sql.DB) repo.ChronoRepo {
	return &chronoRepo{db: db}
}

// SyncDefinitions upserts the chrono registry and seeds server chronos for
// every known community
func (r *chronoRepo) SyncDefinitions(ctx context.Context, defs []*domain.ChronoDefinition) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, def := range defs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chronos (handle, required_feature, utc_hour) VALUES (?, ?, ?)
			ON CONFLICT(handle) DO UPDATE SET required_feature = excluded.required_feature, utc_hour = excluded.utc_hour
		`, def.Handle, stringOrNull(def.RequiredFeature), def.UTCHour)
		if err != nil {
			return fmt.Errorf("failed to upsert chrono %s: %w", def.Handle, err)
		}
		if err := tx.QueryRowContext(ctx, `SELECT id FROM chronos WHERE handle = ?`, def.Handle).Scan(&def.ID); err != nil {
			return fmt.Errorf("failed to read chrono id %s: %w", def.Handle, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO server_chronos (community_id, chrono_id, is_enabled)
		SELECT c.id, ch.id, 1 FROM communities c CROSS JOIN chronos ch
	`); err != nil {
		return fmt.Errorf("failed to seed server chronos: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chronos: %w", err)
	}
	return nil
}

// EnsureCommunity seeds the community row and its server chronos
func (r *chronoRepo) EnsureCommunity(ctx context.Context, communityID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO communities (id) VALUES (?)`, communityID); err != nil {
		return fmt.Errorf("failed to insert community: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO server_chronos (community_id, chrono_id, is_enabled)
		SELECT ?, id, 1 FROM chronos
	`, communityID); err != nil {
		return fmt.Errorf("failed to seed server chronos: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit community: %w", err)
	}
	return nil
}

// GetDue selects the (community, chrono) pairs due at now. The hour gate is
// <= so a chrono whose hour was missed still runs later the same day.
func (r *chronoRepo) GetDue(ctx context.Context, now time.Time) ([]domain.DueChrono, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sc.community_id, c.id, c.handle
		FROM server_chronos sc
		JOIN chronos c ON c.id = sc.chrono_id
		LEFT JOIN server_features sf ON sf.community_id = sc.community_id AND sf.feature = c.required_feature
		WHERE sc.is_enabled = 1
			AND c.utc_hour <= ?
			AND (c.required_feature IS NULL OR sf.is_enabled IS NULL OR sf.is_enabled = 1)
			AND (sc.date_last_ran IS NULL OR sc.date_last_ran < ?)
		ORDER BY sc.community_id, c.id
	`, now.UTC().Hour(), domain.DateOf(now).String())
	if err != nil {
		return nil, fmt.Errorf("failed to query due chronos: %w", err)
	}
	defer rows.Close()

	var due []domain.DueChrono
	for rows.Next() {
		var d domain.DueChrono
		if err := rows.Scan(&d.CommunityID, &d.ChronoID, &d.Handle); err != nil {
			return nil, fmt.Errorf("failed to scan due chrono: %w", err)
		}
		due = append(due, d)
	}
	return due, rows.Err()
}

// MarkRan records a successful run
func (r *chronoRepo) MarkRan(ctx context.Context, communityID string, chronoID int64, date domain.CalendarDate) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE server_chronos SET date_last_ran = ? WHERE community_id = ? AND chrono_id = ?
	`, date.String(), communityID, chronoID)
	if err != nil {
		return fmt.Errorf("failed to mark chrono ran: %w", err)
	}
	return nil
}

// SetEnabled toggles a chrono for a community
func (r *chronoRepo) SetEnabled(ctx context.Context, communityID, handle string, enabled bool) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE server_chronos SET is_enabled = ?
		WHERE community_id = ? AND chrono_id = (SELECT id FROM chronos WHERE handle = ?)
	`, boolToInt(enabled), communityID, handle)
	if err != nil {
		return false, fmt.Errorf("failed to set chrono enabled: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// SetFeature sets a feature flag for a community
func (r *chronoRepo) SetFeature(ctx context.Context, communityID, feature string, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO server_features (community_id, feature, is_enabled) VALUES (?, ?, ?)
		ON CONFLICT(community_id, feature) DO UPDATE SET is_enabled = excluded.is_enabled
	`, communityID, feature, boolToInt(enabled))
	if err != nil {
		return fmt.Errorf("failed to set feature: %w", err)
	}
	return nil
}
