package reconcile

import "time"

// Outcome is the result of one channel's reconciliation attempt. It is
// returned to the caller and optionally logged, never persisted.
type Outcome struct {
	ChannelID    int64         `json:"channel_id"`
	Success      bool          `json:"success"`
	SyncedCount  int           `json:"synced_count"`
	RemovedCount int           `json:"removed_count"`
	Errors       []string      `json:"errors,omitempty"`
	Duration     time.Duration `json:"duration"`
	CompletedAt  time.Time     `json:"completed_at"`
}

// failedOutcome builds an Outcome for a sync that failed before or during
// processing.
func failedOutcome(channelID int64, started, completed time.Time, errs ...string) Outcome {
	return Outcome{
		ChannelID:   channelID,
		Success:     false,
		Errors:      errs,
		Duration:    completed.Sub(started),
		CompletedAt: completed,
	}
}

// Report aggregates Outcomes for a batch of channels.
type Report struct {
	Total       int           `json:"total"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Outcomes    []Outcome     `json:"outcomes"`
	Duration    time.Duration `json:"duration"`
	CompletedAt time.Time     `json:"completed_at"`
}

// add records one channel outcome into the report.
func (r *Report) add(o Outcome) {
	r.Total++
	if o.Success {
		r.Succeeded++
	} else {
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// CleanupReport summarises one inactive-channel cleanup pass.
type CleanupReport struct {
	Checked  int      `json:"checked"`
	Removed  int      `json:"removed"`
	Retained int      `json:"retained"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
