package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/channelwise/permsync/internal/reconcile"
)

// StaleSweepJob periodically finds all stale permission records and
// force-syncs the channels they belong to.
type StaleSweepJob struct {
	Orchestrator *reconcile.Orchestrator
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/10 * * * *"
}

// Compile-time interface check.
var _ Job = (*StaleSweepJob)(nil)

// Name implements Job.
func (j *StaleSweepJob) Name() string { return "stale_sweep" }

// Schedule implements Job.
func (j *StaleSweepJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/10 * * * *"
}

// Run sweeps stale records.
func (j *StaleSweepJob) Run(ctx context.Context) error {
	report, err := j.Orchestrator.SweepStale(ctx)
	if err != nil {
		return fmt.Errorf("cron: stale sweep: %w", err)
	}
	if report.Total > 0 {
		j.Logger.Info("cron: stale sweep done",
			"channels", report.Total,
			"succeeded", report.Succeeded,
			"failed", report.Failed,
		)
	}
	return nil
}

// InactiveCleanupJob removes local state for channels the bot can no longer
// reach, after double-checking with the remote directory.
type InactiveCleanupJob struct {
	Orchestrator *reconcile.Orchestrator
	MaxAge       time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 3 * * *"
}

// Compile-time interface check.
var _ Job = (*InactiveCleanupJob)(nil)

// Name implements Job.
func (j *InactiveCleanupJob) Name() string { return "inactive_cleanup" }

// Schedule implements Job.
func (j *InactiveCleanupJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 3 * * *"
}

// Run checks inactive channels against the remote directory and deletes the
// confirmed-gone ones.
func (j *InactiveCleanupJob) Run(ctx context.Context) error {
	report, err := j.Orchestrator.CleanupInactive(ctx, j.MaxAge)
	if err != nil {
		return fmt.Errorf("cron: inactive cleanup: %w", err)
	}
	if report.Checked > 0 {
		j.Logger.Info("cron: inactive cleanup done",
			"checked", report.Checked,
			"removed", report.Removed,
			"retained", report.Retained,
			"skipped", report.Skipped,
		)
	}
	return nil
}
