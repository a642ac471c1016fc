// Package channel defines the locally tracked Telegram channels permsync
// reconciles permissions for.
package channel

import (
	"context"
	"time"
)

// Channel is one tracked Telegram channel. LastCheckedAt is the last time
// the remote directory confirmed the channel reachable; inactive-channel
// cleanup keys off it, never off permission staleness alone.
type Channel struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title,omitempty"`
	IsActive      bool      `json:"is_active"`
	LastCheckedAt time.Time `json:"last_checked_at"`
}

// Store persists tracked channels.
type Store interface {
	Upsert(ctx context.Context, ch Channel) error
	Get(ctx context.Context, id int64) (*Channel, error)
	ListInactive(ctx context.Context, checkedBefore time.Time) ([]Channel, error)
	// Touch updates LastCheckedAt and the active flag after a successful
	// remote reachability check.
	Touch(ctx context.Context, id int64, at time.Time) error
	// Delete removes the channel and all its permission records in one
	// transaction.
	Delete(ctx context.Context, id int64) error
}
