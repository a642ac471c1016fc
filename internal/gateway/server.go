package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public, no auth required.
	r.Get("/health", g.handleHealth())

	// Webhook: shared-secret auth handled by the webhook router itself.
	// Rate limited per source IP to shield the sync path from floods.
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(60, time.Minute))
		r.Post("/webhooks/telegram", g.handleWebhook())
	})

	if g.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(g.registry, promhttp.HandlerOpts{}))
	}

	// Admin endpoints require auth and are not mounted without it.
	if g.config.Auth.IsConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Auth))
			r.Route("/api", func(r chi.Router) {
				r.Post("/channels/{id}/sync", g.handleSyncChannel())
				r.Get("/channels/{id}/permissions", g.handleListPermissions())
				r.Post("/sync", g.handleSyncMany())
				r.Post("/sweep", g.handleSweep())
				r.Get("/permissions/check", g.handleCheckPermission())
			})
		})
	}

	return r
}
