// Package reconcile keeps locally stored channel permissions consistent with
// the Telegram side. The engine re-derives each channel's record set from a
// fresh remote administrator snapshot and applies the minimal upsert/delete
// diff, so every pass is idempotent and safe to repeat or race.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/channelwise/permsync/internal/permission"
	"github.com/channelwise/permsync/internal/telegram"
)

// Directory is the subset of the Telegram client the engine needs. Defined
// here so tests can reconcile against a fake remote directory.
type Directory interface {
	GetChat(ctx context.Context, chatID int64) (*telegram.Chat, error)
	GetChatMember(ctx context.Context, chatID, userID int64) (*telegram.ChatMember, error)
	GetChatAdministrators(ctx context.Context, chatID int64) ([]telegram.ChatMember, error)
}

// Engine reconciles one channel at a time against the remote directory.
type Engine struct {
	dir       Directory
	store     permission.Store
	botID     int64
	staleness Staleness
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
}

// NewEngine constructs an engine. botID is the bot's own user id, used to
// verify the bot still holds administrator rights before touching records.
// metrics may be nil.
func NewEngine(dir Directory, store permission.Store, botID int64, staleness Staleness, logger *slog.Logger, metrics *Metrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		dir:       dir,
		store:     store,
		botID:     botID,
		staleness: staleness,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// SyncChannel reconciles the stored permission records for channelID against
// the current remote administrator list. Failures never surface as errors:
// the returned Outcome carries success=false and the reasons. A failed sync
// leaves previously stored records untouched.
//
// When force is false and every stored record for the channel is fresher than
// the staleness window, the call returns a no-op success without any remote
// call.
func (e *Engine) SyncChannel(ctx context.Context, channelID int64, force bool) Outcome {
	started := e.now()

	existing, err := e.store.ListByChannel(ctx, channelID)
	if err != nil {
		return e.done(failedOutcome(channelID, started, e.now(),
			fmt.Sprintf("load stored records: %v", err)))
	}

	// Freshness short-circuit: bound remote call volume. Only applies when
	// there is something stored to serve from.
	if !force && len(existing) > 0 && !e.anyStale(existing, started) {
		e.logger.Debug("sync skipped, records fresh",
			"channel_id", channelID,
			"records", len(existing),
		)
		completed := e.now()
		return Outcome{
			ChannelID:   channelID,
			Success:     true,
			Duration:    completed.Sub(started),
			CompletedAt: completed,
		}
	}

	// Precondition: the channel must be reachable and the bot itself must
	// still be an administrator. On failure, serve stale-but-valid data
	// rather than wiping records on what may be a transient outage.
	if _, err := e.dir.GetChat(ctx, channelID); err != nil {
		return e.done(failedOutcome(channelID, started, e.now(),
			fmt.Sprintf("channel not accessible (%s): %v", telegram.Kind(err), err)))
	}

	me, err := e.dir.GetChatMember(ctx, channelID, e.botID)
	if err != nil {
		return e.done(failedOutcome(channelID, started, e.now(),
			fmt.Sprintf("bot membership check failed (%s): %v", telegram.Kind(err), err)))
	}
	if !me.IsPrivileged() {
		return e.done(failedOutcome(channelID, started, e.now(),
			fmt.Sprintf("bot is not an administrator (status %q)", me.Status)))
	}

	admins, err := e.dir.GetChatAdministrators(ctx, channelID)
	if err != nil {
		return e.done(failedOutcome(channelID, started, e.now(),
			fmt.Sprintf("fetch administrators (%s): %v", telegram.Kind(err), err)))
	}

	// A channel always has at least its creator. An empty list is a remote
	// anomaly, not "zero privileged users"; abort without deleting anything.
	if len(admins) == 0 {
		return e.done(failedOutcome(channelID, started, e.now(),
			"remote returned no administrators for an accessible channel"))
	}

	previous := make(map[int64]permission.Record, len(existing))
	for _, rec := range existing {
		previous[rec.UserID] = rec
	}

	outcome := Outcome{ChannelID: channelID}

	// First pass: upsert every current administrator. Per-user failures are
	// collected and do not stop the remaining users.
	current := make(map[int64]struct{}, len(admins))
	for _, admin := range admins {
		if !admin.IsPrivileged() {
			// getChatAdministrators should only return privileged members;
			// skip anything else rather than feeding it to the mapper.
			e.logger.Warn("skipping non-privileged entry in administrator list",
				"channel_id", channelID,
				"user_id", admin.User.ID,
				"status", admin.Status,
			)
			continue
		}

		// Membership in the current set depends on the remote snapshot, not
		// on whether the upsert below succeeds: a user whose update failed
		// is still privileged remotely and must not be deleted in pass two.
		current[admin.User.ID] = struct{}{}

		rec, err := permission.FromChatMember(channelID, admin)
		if err != nil {
			outcome.Errors = append(outcome.Errors, err.Error())
			continue
		}
		rec.LastSyncedAt = e.now()

		if err := e.store.Upsert(ctx, rec); err != nil {
			outcome.Errors = append(outcome.Errors,
				fmt.Sprintf("upsert user %d: %v", admin.User.ID, err))
			e.recordSyncError(ctx, previous, admin.User.ID, err)
			continue
		}

		outcome.SyncedCount++

		if old, ok := previous[admin.User.ID]; ok && permission.Changed(old, rec) {
			e.logger.Info("administrator rights changed",
				"channel_id", channelID,
				"user_id", admin.User.ID,
				"old_role", old.Role,
				"new_role", rec.Role,
			)
		}
	}

	// Second pass: delete anyone no longer in the current privileged set.
	for userID := range previous {
		if _, ok := current[userID]; ok {
			continue
		}
		if err := e.store.Delete(ctx, channelID, userID); err != nil {
			outcome.Errors = append(outcome.Errors,
				fmt.Sprintf("delete user %d: %v", userID, err))
			continue
		}
		outcome.RemovedCount++
		e.logger.Info("administrator removed",
			"channel_id", channelID,
			"user_id", userID,
		)
	}

	completed := e.now()
	outcome.Success = len(outcome.Errors) == 0
	outcome.Duration = completed.Sub(started)
	outcome.CompletedAt = completed

	e.logger.Info("channel reconciled",
		"channel_id", channelID,
		"success", outcome.Success,
		"synced", outcome.SyncedCount,
		"removed", outcome.RemovedCount,
		"errors", len(outcome.Errors),
		"duration", outcome.Duration,
	)

	return e.done(outcome)
}

// anyStale reports whether at least one record needs a sync at now.
func (e *Engine) anyStale(recs []permission.Record, now time.Time) bool {
	for _, rec := range recs {
		if e.staleness.NeedsSync(rec.LastSyncedAt, now) {
			return true
		}
	}
	return false
}

// recordSyncError stores the failure reason on the user's previous record,
// best effort. The prior role and capabilities are preserved so a failed
// update never corrupts existing data.
func (e *Engine) recordSyncError(ctx context.Context, previous map[int64]permission.Record, userID int64, cause error) {
	old, ok := previous[userID]
	if !ok {
		return
	}
	old.SyncError = cause.Error()
	if err := e.store.Upsert(ctx, old); err != nil {
		e.logger.Warn("failed to record sync error",
			"channel_id", old.ChannelID,
			"user_id", userID,
			"error", err,
		)
	}
}

func (e *Engine) done(o Outcome) Outcome {
	e.metrics.observe(o)
	return o
}
