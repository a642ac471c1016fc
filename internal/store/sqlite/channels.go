package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/channelwise/permsync/internal/channel"
)

// Channels is the SQLite-backed channel.Store implementation.
type Channels struct {
	db *sql.DB
}

// Compile-time interface check.
var _ channel.Store = (*Channels)(nil)

// Upsert stores or replaces a tracked channel.
func (s *Channels) Upsert(ctx context.Context, ch channel.Channel) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO channels (id, title, is_active, last_checked_at)
		VALUES (?, ?, ?, ?)`,
		ch.ID, ch.Title, boolInt(ch.IsActive), formatTime(ch.LastCheckedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert channel %d: %w", ch.ID, err)
	}
	return nil
}

// Get returns the tracked channel, or nil if it is not tracked.
func (s *Channels) Get(ctx context.Context, id int64) (*channel.Channel, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, is_active, last_checked_at FROM channels WHERE id = ?", id)

	ch, err := scanChannel(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get channel %d: %w", id, err)
	}
	return &ch, nil
}

// ListInactive returns channels whose last successful reachability check is
// older than checkedBefore, plus channels explicitly marked inactive.
func (s *Channels) ListInactive(ctx context.Context, checkedBefore time.Time) ([]channel.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, is_active, last_checked_at
		FROM channels
		WHERE is_active = 0 OR last_checked_at < ?
		ORDER BY id`,
		formatTime(checkedBefore),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list inactive channels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chans []channel.Channel
	for rows.Next() {
		ch, err := scanChannel(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan channel: %w", err)
		}
		chans = append(chans, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: scan channel rows: %w", err)
	}
	return chans, nil
}

// Touch marks the channel active and records the reachability check time.
func (s *Channels) Touch(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE channels SET is_active = 1, last_checked_at = ? WHERE id = ?",
		formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: touch channel %d: %w", id, err)
	}
	return nil
}

// Delete removes the channel and all its permission records in one
// transaction.
func (s *Channels) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: delete channel %d: begin: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM permissions WHERE channel_id = ?", id); err != nil {
		return fmt.Errorf("sqlite: delete channel %d permissions: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM channels WHERE id = ?", id); err != nil {
		return fmt.Errorf("sqlite: delete channel %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: delete channel %d: commit: %w", id, err)
	}
	return nil
}

func scanChannel(scan func(dest ...any) error) (channel.Channel, error) {
	var (
		ch        channel.Channel
		active    int
		checkedAt string
	)
	if err := scan(&ch.ID, &ch.Title, &active, &checkedAt); err != nil {
		return channel.Channel{}, err
	}
	ch.IsActive = active != 0

	if checkedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, checkedAt)
		if err != nil {
			return channel.Channel{}, fmt.Errorf("parse last_checked_at %q: %w", checkedAt, err)
		}
		ch.LastCheckedAt = t
	}
	return ch, nil
}

// timeLayout is RFC3339 with a fixed nine-digit fraction. Every stored
// timestamp is normalized to UTC first, so the strings are uniform width,
// always end in Z, and order lexicographically; the staleness queries rely
// on that for their SQL comparisons. RFC3339Nano would break both
// properties: it trims trailing fraction zeros and would keep the writer's
// offset.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
