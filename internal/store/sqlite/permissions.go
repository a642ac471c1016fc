package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/channelwise/permsync/internal/permission"
)

// Permissions is the SQLite-backed permission.Store implementation.
type Permissions struct {
	db *sql.DB
}

// Compile-time interface check.
var _ permission.Store = (*Permissions)(nil)

// Upsert stores or replaces the permission record for (channel, user).
func (s *Permissions) Upsert(ctx context.Context, rec permission.Record) error {
	lastSynced := rec.LastSyncedAt
	if lastSynced.IsZero() {
		lastSynced = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO permissions
			(channel_id, user_id, role, can_post, can_edit, can_delete, can_change_info, can_invite, last_synced_at, sync_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ChannelID, rec.UserID, string(rec.Role),
		boolInt(rec.CanPost), boolInt(rec.CanEdit), boolInt(rec.CanDelete),
		boolInt(rec.CanChangeInfo), boolInt(rec.CanInvite),
		formatTime(lastSynced), rec.SyncError,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert permission (%d,%d): %w", rec.ChannelID, rec.UserID, err)
	}
	return nil
}

// Delete removes the permission record for (channel, user). Deleting a
// missing record is not an error: reconciliation may race a webhook-triggered
// sync that already removed it.
func (s *Permissions) Delete(ctx context.Context, channelID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM permissions WHERE channel_id = ? AND user_id = ?",
		channelID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: delete permission (%d,%d): %w", channelID, userID, err)
	}
	return nil
}

// ListByChannel returns all permission records for the channel.
func (s *Permissions) ListByChannel(ctx context.Context, channelID int64) ([]permission.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id, user_id, role, can_post, can_edit, can_delete, can_change_info, can_invite, last_synced_at, sync_error
		FROM permissions WHERE channel_id = ? ORDER BY user_id`,
		channelID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list permissions for channel %d: %w", channelID, err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// ListByUser returns all permission records for the user across channels.
func (s *Permissions) ListByUser(ctx context.Context, userID int64) ([]permission.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id, user_id, role, can_post, can_edit, can_delete, can_change_info, can_invite, last_synced_at, sync_error
		FROM permissions WHERE user_id = ? ORDER BY channel_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list permissions for user %d: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// ListStale returns all records last synced before the given instant.
func (s *Permissions) ListStale(ctx context.Context, before time.Time) ([]permission.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id, user_id, role, can_post, can_edit, can_delete, can_change_info, can_invite, last_synced_at, sync_error
		FROM permissions WHERE last_synced_at < ? ORDER BY channel_id, user_id`,
		formatTime(before),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list stale permissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]permission.Record, error) {
	var recs []permission.Record
	for rows.Next() {
		var (
			rec          permission.Record
			role         string
			post, edit   int
			del, info    int
			invite       int
			lastSyncedAt string
		)

		if err := rows.Scan(&rec.ChannelID, &rec.UserID, &role, &post, &edit, &del, &info, &invite, &lastSyncedAt, &rec.SyncError); err != nil {
			return nil, fmt.Errorf("sqlite: scan permission: %w", err)
		}

		rec.Role = permission.Role(role)
		rec.CanPost = post != 0
		rec.CanEdit = edit != 0
		rec.CanDelete = del != 0
		rec.CanChangeInfo = info != 0
		rec.CanInvite = invite != 0

		t, err := time.Parse(time.RFC3339Nano, lastSyncedAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse last_synced_at %q: %w", lastSyncedAt, err)
		}
		rec.LastSyncedAt = t

		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: scan permission rows: %w", err)
	}

	return recs, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
