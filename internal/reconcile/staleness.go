package reconcile

import "time"

// DefaultStalenessWindow is the freshness window applied when none is
// configured.
const DefaultStalenessWindow = time.Hour

// Staleness decides whether a synced record is old enough to warrant a
// fresh remote check. It is a pure policy over a fixed window.
type Staleness struct {
	Window time.Duration
}

// NewStaleness returns a policy with the given window, falling back to
// DefaultStalenessWindow for non-positive values.
func NewStaleness(window time.Duration) Staleness {
	if window <= 0 {
		window = DefaultStalenessWindow
	}
	return Staleness{Window: window}
}

// NeedsSync reports whether a record synced at lastSynced is stale at now.
// A zero lastSynced always needs a sync.
func (s Staleness) NeedsSync(lastSynced, now time.Time) bool {
	if lastSynced.IsZero() {
		return true
	}
	return now.Sub(lastSynced) > s.Window
}
