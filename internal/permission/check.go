package permission

import (
	"context"
	"fmt"
	"time"
)

// CheckResult is the outcome of a read-only capability check.
type CheckResult struct {
	Allowed bool   `json:"allowed"`
	Role    Role   `json:"role,omitempty"`
	Stale   bool   `json:"stale,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Check reports whether userID holds the given capability on channelID
// according to the local store. A record older than freshness is still
// honored but flagged stale so callers can decide to trigger a refresh.
// The store is a cache of the remote directory; Check never issues remote
// calls.
func Check(ctx context.Context, store Store, userID, channelID int64, cap Capability, freshness time.Duration, now time.Time) (CheckResult, error) {
	recs, err := store.ListByUser(ctx, userID)
	if err != nil {
		return CheckResult{}, fmt.Errorf("permission: check user %d: %w", userID, err)
	}

	for _, rec := range recs {
		if rec.ChannelID != channelID {
			continue
		}
		res := CheckResult{
			Allowed: rec.Allows(cap),
			Role:    rec.Role,
			Stale:   freshness > 0 && now.Sub(rec.LastSyncedAt) > freshness,
		}
		if !res.Allowed {
			res.Reason = fmt.Sprintf("role %s does not grant %s", rec.Role, cap)
		}
		return res, nil
	}

	return CheckResult{Reason: "no permission record"}, nil
}
