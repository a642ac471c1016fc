package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS channels (
		id              INTEGER PRIMARY KEY,
		title           TEXT    NOT NULL DEFAULT '',
		is_active       INTEGER NOT NULL DEFAULT 1,
		last_checked_at TEXT    NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS permissions (
		channel_id      INTEGER NOT NULL,
		user_id         INTEGER NOT NULL,
		role            TEXT    NOT NULL,
		can_post        INTEGER NOT NULL DEFAULT 0,
		can_edit        INTEGER NOT NULL DEFAULT 0,
		can_delete      INTEGER NOT NULL DEFAULT 0,
		can_change_info INTEGER NOT NULL DEFAULT 0,
		can_invite      INTEGER NOT NULL DEFAULT 0,
		last_synced_at  TEXT    NOT NULL,
		sync_error      TEXT    NOT NULL DEFAULT '',
		PRIMARY KEY (channel_id, user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_permissions_user ON permissions(user_id)`,

	`CREATE INDEX IF NOT EXISTS idx_permissions_synced ON permissions(last_synced_at)`,
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(db *sql.DB) error {
	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	return nil
}
