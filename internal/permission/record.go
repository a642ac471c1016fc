// Package permission defines the local view of channel administrator rights:
// one record per (channel, user), the mapping from remote administrator
// entries, and the read-only capability check used by authorization code.
package permission

import (
	"context"
	"time"
)

// Role is the privilege level of a channel member. Only creators and
// administrators ever get a local record.
type Role string

const (
	RoleCreator       Role = "creator"
	RoleAdministrator Role = "administrator"
)

// Capability names one of the five tracked admin capabilities.
type Capability string

const (
	CapPost       Capability = "post"
	CapEdit       Capability = "edit"
	CapDelete     Capability = "delete"
	CapChangeInfo Capability = "change_info"
	CapInvite     Capability = "invite"
)

// Record is the locally persisted permission state for one user on one
// channel. The remote directory is the source of truth; a record exists only
// for users holding creator/administrator status at last successful sync.
type Record struct {
	ChannelID     int64     `json:"channel_id"`
	UserID        int64     `json:"user_id"`
	Role          Role      `json:"role"`
	CanPost       bool      `json:"can_post"`
	CanEdit       bool      `json:"can_edit"`
	CanDelete     bool      `json:"can_delete"`
	CanChangeInfo bool      `json:"can_change_info"`
	CanInvite     bool      `json:"can_invite"`
	LastSyncedAt  time.Time `json:"last_synced_at"`
	SyncError     string    `json:"sync_error,omitempty"`
}

// Allows reports whether the record grants the given capability.
func (r Record) Allows(cap Capability) bool {
	switch cap {
	case CapPost:
		return r.CanPost
	case CapEdit:
		return r.CanEdit
	case CapDelete:
		return r.CanDelete
	case CapChangeInfo:
		return r.CanChangeInfo
	case CapInvite:
		return r.CanInvite
	default:
		return false
	}
}

// Changed reports whether role or any capability flag differs between the
// two records. Sync timestamps and error strings are excluded: they change
// on every pass and must not force an upsert by themselves.
func Changed(old, new Record) bool {
	return old.Role != new.Role ||
		old.CanPost != new.CanPost ||
		old.CanEdit != new.CanEdit ||
		old.CanDelete != new.CanDelete ||
		old.CanChangeInfo != new.CanChangeInfo ||
		old.CanInvite != new.CanInvite
}

// Store persists permission records, one per (channel, user). Implementations
// make no cross-channel transactional guarantee; each channel's reconciliation
// is its own unit of consistency.
type Store interface {
	Upsert(ctx context.Context, rec Record) error
	Delete(ctx context.Context, channelID, userID int64) error
	ListByChannel(ctx context.Context, channelID int64) ([]Record, error)
	ListByUser(ctx context.Context, userID int64) ([]Record, error)
	ListStale(ctx context.Context, before time.Time) ([]Record, error)
}
