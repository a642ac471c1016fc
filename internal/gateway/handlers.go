package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/channelwise/permsync/internal/permission"
	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func channelIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// handleSyncChannel serves POST /api/channels/{id}/sync?force=true.
// The outcome is always 200: failures are structured data, not HTTP errors.
func (g *Gateway) handleSyncChannel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := channelIDParam(r)
		if !ok {
			http.Error(w, "invalid channel id", http.StatusBadRequest)
			return
		}

		force := r.URL.Query().Get("force") == "true"
		outcome := g.engine.SyncChannel(r.Context(), id, force)
		writeJSON(w, http.StatusOK, outcome)
	}
}

// handleListPermissions serves GET /api/channels/{id}/permissions.
func (g *Gateway) handleListPermissions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := channelIDParam(r)
		if !ok {
			http.Error(w, "invalid channel id", http.StatusBadRequest)
			return
		}

		recs, err := g.store.ListByChannel(r.Context(), id)
		if err != nil {
			g.logger.Error("list permissions failed", "channel_id", id, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if recs == nil {
			recs = []permission.Record{}
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

// syncManyRequest is the body for POST /api/sync.
type syncManyRequest struct {
	ChannelIDs []int64 `json:"channel_ids"`
	Force      bool    `json:"force"`
}

// handleSyncMany serves POST /api/sync.
func (g *Gateway) handleSyncMany() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req syncManyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if len(req.ChannelIDs) == 0 {
			http.Error(w, "channel_ids is required", http.StatusBadRequest)
			return
		}

		report := g.orchestrator.SyncMany(r.Context(), req.ChannelIDs, req.Force)
		writeJSON(w, http.StatusOK, report)
	}
}

// handleSweep serves POST /api/sweep: the on-demand version of the periodic
// stale sweep.
func (g *Gateway) handleSweep() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := g.orchestrator.SweepStale(r.Context())
		if err != nil {
			g.logger.Error("sweep failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// handleCheckPermission serves
// GET /api/permissions/check?user_id=&channel_id=&capability=.
func (g *Gateway) handleCheckPermission() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		userID, err := strconv.ParseInt(q.Get("user_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid user_id", http.StatusBadRequest)
			return
		}
		channelID, err := strconv.ParseInt(q.Get("channel_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid channel_id", http.StatusBadRequest)
			return
		}
		cap := permission.Capability(q.Get("capability"))
		switch cap {
		case permission.CapPost, permission.CapEdit, permission.CapDelete,
			permission.CapChangeInfo, permission.CapInvite:
		default:
			http.Error(w, "invalid capability", http.StatusBadRequest)
			return
		}

		res, err := permission.Check(r.Context(), g.store, userID, channelID, cap, g.staleness.Window, time.Now())
		if err != nil {
			g.logger.Error("permission check failed",
				"user_id", userID,
				"channel_id", channelID,
				"error", err,
			)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
