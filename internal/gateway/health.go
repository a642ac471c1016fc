package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string `json:"status"` // "ok" or "degraded"
	Bot    string `json:"bot,omitempty"`
	Uptime string `json:"uptime"`
	Store  string `json:"store"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 200 when the store answers a ping, 503 otherwise.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status: "ok",
			Bot:    g.botUsername,
			Uptime: time.Since(g.startedAt).Truncate(time.Second).String(),
			Store:  "ok",
		}

		if g.pinger != nil {
			if err := g.pinger.Ping(r.Context()); err != nil {
				resp.Status = "degraded"
				resp.Store = err.Error()
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
