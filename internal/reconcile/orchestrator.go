package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/channelwise/permsync/internal/channel"
	"github.com/channelwise/permsync/internal/permission"
	"github.com/channelwise/permsync/internal/telegram"
	"golang.org/x/time/rate"
)

// DefaultPacePerSecond caps remote-call-bearing reconciliations at five per
// second (200 ms apart); the Bot API enforces a strict per-bot limit shared
// across all channels.
const DefaultPacePerSecond = 5

// Orchestrator drives the engine across many channels, sequentially, with a
// shared token-bucket limiter between remote-call-bearing operations.
type Orchestrator struct {
	engine    *Engine
	store     permission.Store
	channels  channel.Store
	dir       Directory
	limiter   *rate.Limiter
	staleness Staleness
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrchestrator constructs an orchestrator sharing the engine's directory
// and store. limiter may be nil, in which case the default pacing applies.
// batchSize bounds how many channels one stale sweep may sync; non-positive
// means unbounded.
func NewOrchestrator(engine *Engine, store permission.Store, channels channel.Store, dir Directory, limiter *rate.Limiter, staleness Staleness, batchSize int, logger *slog.Logger) *Orchestrator {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(DefaultPacePerSecond), 1)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		engine:    engine,
		store:     store,
		channels:  channels,
		dir:       dir,
		limiter:   limiter,
		staleness: staleness,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

// SyncMany reconciles the given channels strictly sequentially, waiting on
// the limiter before each channel. One channel's crash cannot abort the
// batch: panics are caught into a failed Outcome. Cancellation is honored
// between channels; an in-flight channel always runs to completion.
func (o *Orchestrator) SyncMany(ctx context.Context, channelIDs []int64, force bool) Report {
	started := o.now()
	var report Report

	for _, id := range channelIDs {
		if err := o.limiter.Wait(ctx); err != nil {
			o.logger.Warn("batch interrupted",
				"completed", report.Total,
				"remaining", len(channelIDs)-report.Total,
				"error", err,
			)
			break
		}
		report.add(o.syncOne(ctx, id, force))
	}

	report.CompletedAt = o.now()
	report.Duration = report.CompletedAt.Sub(started)

	o.logger.Info("batch sync finished",
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duration", report.Duration,
	)

	return report
}

// syncOne runs a single reconciliation with panic containment.
func (o *Orchestrator) syncOne(ctx context.Context, channelID int64, force bool) (out Outcome) {
	started := o.now()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("reconciliation panicked",
				"channel_id", channelID,
				"panic", r,
			)
			out = failedOutcome(channelID, started, o.now(),
				fmt.Sprintf("unexpected fault: %v", r))
		}
	}()
	return o.engine.SyncChannel(ctx, channelID, force)
}

// SweepStale finds every stale permission record store-wide, deduplicates to
// channel ids, and force-syncs them. The configured batch size bounds one
// sweep; anything left over is picked up by the next tick.
func (o *Orchestrator) SweepStale(ctx context.Context) (Report, error) {
	cutoff := o.now().Add(-o.staleness.Window)

	stale, err := o.store.ListStale(ctx, cutoff)
	if err != nil {
		return Report{}, fmt.Errorf("reconcile: list stale records: %w", err)
	}

	seen := make(map[int64]struct{})
	var ids []int64
	for _, rec := range stale {
		if _, ok := seen[rec.ChannelID]; ok {
			continue
		}
		seen[rec.ChannelID] = struct{}{}
		ids = append(ids, rec.ChannelID)
	}

	if o.batchSize > 0 && len(ids) > o.batchSize {
		o.logger.Info("stale sweep truncated to batch size",
			"stale_channels", len(ids),
			"batch_size", o.batchSize,
		)
		ids = ids[:o.batchSize]
	}

	if len(ids) == 0 {
		return Report{CompletedAt: o.now()}, nil
	}

	o.logger.Info("stale sweep starting", "channels", len(ids))
	return o.SyncMany(ctx, ids, true), nil
}

// CleanupInactive removes local state for channels that have not been
// confirmed reachable for longer than maxAge. The remote directory is
// double-checked first: deletion happens only on a definite not_found or
// forbidden answer, never on local staleness alone.
func (o *Orchestrator) CleanupInactive(ctx context.Context, maxAge time.Duration) (CleanupReport, error) {
	cutoff := o.now().Add(-maxAge)

	candidates, err := o.channels.ListInactive(ctx, cutoff)
	if err != nil {
		return CleanupReport{}, fmt.Errorf("reconcile: list inactive channels: %w", err)
	}

	var report CleanupReport
	for _, ch := range candidates {
		if err := o.limiter.Wait(ctx); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("cleanup interrupted: %v", err))
			break
		}
		report.Checked++

		_, err := o.dir.GetChat(ctx, ch.ID)
		switch {
		case err == nil:
			// Still reachable; refresh the check timestamp.
			if terr := o.channels.Touch(ctx, ch.ID, o.now()); terr != nil {
				report.Errors = append(report.Errors,
					fmt.Sprintf("touch channel %d: %v", ch.ID, terr))
				continue
			}
			report.Retained++

		case telegram.IsNotFound(err) || telegram.IsForbidden(err):
			if derr := o.channels.Delete(ctx, ch.ID); derr != nil {
				report.Errors = append(report.Errors,
					fmt.Sprintf("delete channel %d: %v", ch.ID, derr))
				continue
			}
			report.Removed++
			o.logger.Info("inactive channel removed",
				"channel_id", ch.ID,
				"reason", telegram.Kind(err).String(),
			)

		default:
			// Transient or unclassified failure: keep the channel, retry on
			// a later pass.
			report.Skipped++
			o.logger.Warn("inactive channel check inconclusive, keeping",
				"channel_id", ch.ID,
				"kind", telegram.Kind(err).String(),
				"error", err,
			)
		}
	}

	o.logger.Info("inactive cleanup finished",
		"checked", report.Checked,
		"removed", report.Removed,
		"retained", report.Retained,
		"skipped", report.Skipped,
	)

	return report, nil
}
