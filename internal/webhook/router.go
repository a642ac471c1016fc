package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/channelwise/permsync/internal/channel"
	"github.com/channelwise/permsync/internal/reconcile"
	"github.com/channelwise/permsync/internal/telegram"
)

// Syncer is the single engine operation the router needs.
type Syncer interface {
	SyncChannel(ctx context.Context, channelID int64, force bool) reconcile.Outcome
}

// Result is what the router reports back to the HTTP layer. Internal sync
// failures are carried inside the result; only a signature mismatch or an
// unreadable envelope makes Success false.
type Result struct {
	Success           bool      `json:"success"`
	EventType         EventType `json:"event_type"`
	PermissionUpdated bool      `json:"permission_updated"`
	Error             string    `json:"error,omitempty"`
}

// ErrSignature is the reason string used when the shared secret does not match.
const ErrSignature = "invalid webhook secret"

// Router dispatches inbound Telegram updates. It is state-free apart from
// its collaborators.
type Router struct {
	syncer   Syncer
	channels channel.Store
	secret   string
	logger   *slog.Logger
	now      func() time.Time
}

// NewRouter constructs a router. channels may be nil if bot-membership
// bookkeeping is not wanted (tests). An empty secret disables verification.
func NewRouter(syncer Syncer, channels channel.Store, secret string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		syncer:   syncer,
		channels: channels,
		secret:   secret,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle processes one webhook delivery. The secret token is verified in
// constant time before the body is parsed; a mismatch rejects the delivery
// without trusting any of its content. Handle never panics past its boundary.
func (r *Router) Handle(ctx context.Context, body []byte, secretToken string) Result {
	if r.secret != "" {
		if subtle.ConstantTimeCompare([]byte(r.secret), []byte(secretToken)) != 1 {
			r.logger.Warn("webhook rejected: secret mismatch")
			return Result{Success: false, EventType: EventUnknown, Error: ErrSignature}
		}
	}

	var update telegram.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return Result{
			Success:   false,
			EventType: EventUnknown,
			Error:     fmt.Sprintf("invalid update JSON: %v", err),
		}
	}

	eventType := Classify(&update)
	res := Result{Success: true, EventType: eventType}

	switch eventType {
	case EventMembership:
		r.handleMembership(ctx, update.ChatMember, &res)

	case EventBotMembership:
		r.trackChannel(ctx, update.MyChatMember)
		r.handleMembership(ctx, update.MyChatMember, &res)

	default:
		// Routing, not validation: posts, callbacks and plain messages
		// belong to other parts of the product. Accepted, unhandled.
		r.logger.Debug("webhook event accepted, unhandled",
			"update_id", update.UpdateID,
			"type", eventType,
		)
	}

	return res
}

// handleMembership triggers a forced reconciliation when the change affects
// administrator status or capabilities. The sync runs synchronously; the
// caller's HTTP response waits for it, which keeps the result truthful about
// whether a permission update happened.
func (r *Router) handleMembership(ctx context.Context, mu *telegram.ChatMemberUpdated, res *Result) {
	if !affectsPermissions(mu) {
		r.logger.Debug("membership change without permission impact",
			"channel_id", mu.Chat.ID,
			"user_id", mu.NewChatMember.User.ID,
		)
		return
	}

	outcome := r.syncer.SyncChannel(ctx, mu.Chat.ID, true)
	res.PermissionUpdated = outcome.Success

	if !outcome.Success {
		// Reported inside the result; the delivery itself is still accepted
		// so Telegram does not redeliver a payload we already consumed.
		res.Error = fmt.Sprintf("sync failed: %v", outcome.Errors)
		r.logger.Warn("webhook-triggered sync failed",
			"channel_id", mu.Chat.ID,
			"errors", outcome.Errors,
		)
		return
	}

	r.logger.Info("webhook-triggered sync completed",
		"channel_id", mu.Chat.ID,
		"synced", outcome.SyncedCount,
		"removed", outcome.RemovedCount,
	)
}

// trackChannel keeps the channels table in step with the bot's own
// membership: joining a channel starts tracking it, losing access marks it
// inactive for the cleanup job to verify later.
func (r *Router) trackChannel(ctx context.Context, mu *telegram.ChatMemberUpdated) {
	if r.channels == nil {
		return
	}

	switch mu.NewChatMember.Status {
	case telegram.StatusLeft, telegram.StatusKicked:
		ch := channel.Channel{
			ID:            mu.Chat.ID,
			Title:         mu.Chat.Title,
			IsActive:      false,
			LastCheckedAt: r.now(),
		}
		if err := r.channels.Upsert(ctx, ch); err != nil {
			r.logger.Warn("failed to mark channel inactive",
				"channel_id", mu.Chat.ID,
				"error", err,
			)
		}
	default:
		ch := channel.Channel{
			ID:            mu.Chat.ID,
			Title:         mu.Chat.Title,
			IsActive:      true,
			LastCheckedAt: r.now(),
		}
		if err := r.channels.Upsert(ctx, ch); err != nil {
			r.logger.Warn("failed to track channel",
				"channel_id", mu.Chat.ID,
				"error", err,
			)
		}
	}
}
