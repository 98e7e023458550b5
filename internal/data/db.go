package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the current schema version of the bot database
const SchemaVersion = 1

// OpenDB opens (or creates) the SQLite database at dbPath and applies migrations
func OpenDB(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("open: empty db path")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writes; never query r.db while a tx is open
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate ensures the schema exists and is at SchemaVersion
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []struct {
		name string
		sql  string
	}{
		{"communities", `
			CREATE TABLE IF NOT EXISTS communities (
				id TEXT PRIMARY KEY,
				admin_channel_id TEXT NOT NULL DEFAULT ''
			)`},
		{"server_features", `
			CREATE TABLE IF NOT EXISTS server_features (
				community_id TEXT NOT NULL,
				feature TEXT NOT NULL,
				is_enabled INTEGER NOT NULL,
				PRIMARY KEY (community_id, feature)
			)`},
		{"chronos", `
			CREATE TABLE IF NOT EXISTS chronos (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				handle TEXT NOT NULL UNIQUE,
				required_feature TEXT NULL,
				utc_hour INTEGER NOT NULL
			)`},
		{"server_chronos", `
			CREATE TABLE IF NOT EXISTS server_chronos (
				community_id TEXT NOT NULL,
				chrono_id INTEGER NOT NULL REFERENCES chronos(id),
				is_enabled INTEGER NOT NULL DEFAULT 1,
				date_last_ran TEXT NULL,
				PRIMARY KEY (community_id, chrono_id)
			)`},
		{"prompt_buckets", `
			CREATE TABLE IF NOT EXISTS prompt_buckets (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				community_id TEXT NOT NULL,
				channel_id TEXT NOT NULL,
				handle TEXT NOT NULL,
				display_name TEXT NOT NULL DEFAULT '',
				frequency TEXT NOT NULL,
				is_paused INTEGER NOT NULL DEFAULT 0,
				required_role_id TEXT NOT NULL DEFAULT '',
				alert_when_low INTEGER NOT NULL DEFAULT 1,
				alerted_emptying INTEGER NOT NULL DEFAULT 0,
				prompt_title_format TEXT NOT NULL DEFAULT '',
				pin_prompts INTEGER NOT NULL DEFAULT 0,
				UNIQUE (community_id, handle)
			)`},
		{"prompts", `
			CREATE TABLE IF NOT EXISTS prompts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				bucket_id INTEGER NOT NULL REFERENCES prompt_buckets(id),
				submitting_user_id TEXT NOT NULL,
				submitted_at INTEGER NOT NULL,
				text TEXT NOT NULL,
				is_anonymous INTEGER NOT NULL DEFAULT 0,
				is_flagged INTEGER NOT NULL DEFAULT 0,
				state TEXT NOT NULL,
				prompt_number INTEGER NULL,
				posted_at INTEGER NULL,
				repost_of_id INTEGER NULL REFERENCES prompts(id),
				last_reused_at INTEGER NULL,
				UNIQUE (bucket_id, prompt_number)
			)`},
		{"idx_prompts_bucket_state", `CREATE INDEX IF NOT EXISTS idx_prompts_bucket_state ON prompts(bucket_id, state, submitted_at)`},
		{"prompt_submission_sessions", `
			CREATE TABLE IF NOT EXISTS prompt_submission_sessions (
				user_id TEXT PRIMARY KEY,
				bucket_id INTEGER NOT NULL,
				started_at INTEGER NOT NULL,
				timeout_at INTEGER NOT NULL,
				is_anonymous INTEGER NOT NULL DEFAULT 0,
				submission_count INTEGER NOT NULL DEFAULT 0
			)`},
		{"prompt_confirmation_queue", `
			CREATE TABLE IF NOT EXISTS prompt_confirmation_queue (
				channel_id TEXT NOT NULL,
				prompt_id INTEGER NOT NULL REFERENCES prompts(id) ON DELETE CASCADE,
				confirm_number INTEGER NOT NULL,
				PRIMARY KEY (channel_id, confirm_number)
			)`},
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt.sql); err != nil {
			return fmt.Errorf("migrate: create %s: %w", stmt.name, err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}

	fmt.Printf("[Data] Migrated database to schema version %d\n", SchemaVersion)
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func unixOrNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}

func timeFromNull(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.Unix(v.Int64, 0).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func stringOrNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}
