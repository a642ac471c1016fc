// Package gateway exposes permsync over HTTP: the Telegram webhook entry
// point, the admin sync API, the read-only permission check, health, and
// prometheus metrics.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/channelwise/permsync/internal/config"
	"github.com/channelwise/permsync/internal/permission"
	"github.com/channelwise/permsync/internal/reconcile"
	"github.com/channelwise/permsync/internal/webhook"
	"github.com/prometheus/client_golang/prometheus"
)

// Pinger is the store health surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Gateway is the HTTP server. It is a leaf component: it drives the engine,
// orchestrator and router but nothing imports it.
type Gateway struct {
	config       config.GatewayConfig
	engine       *reconcile.Engine
	orchestrator *reconcile.Orchestrator
	router       *webhook.Router
	store        permission.Store
	pinger       Pinger
	staleness    reconcile.Staleness
	registry     *prometheus.Registry
	logger       *slog.Logger
	server       *http.Server
	botUsername  string
	startedAt    time.Time
}

// New constructs a gateway. registry may be nil to disable /metrics.
func New(cfg config.GatewayConfig, engine *reconcile.Engine, orch *reconcile.Orchestrator, router *webhook.Router, store permission.Store, pinger Pinger, staleness reconcile.Staleness, registry *prometheus.Registry, logger *slog.Logger, botUsername string) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config:       cfg,
		engine:       engine,
		orchestrator: orch,
		router:       router,
		store:        store,
		pinger:       pinger,
		staleness:    staleness,
		registry:     registry,
		logger:       logger,
		botUsername:  botUsername,
	}
}

// Start binds the listener and serves in a background goroutine.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen on %s: %w", g.config.Bind, err)
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully within the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	if err := g.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway: shutdown: %w", err)
	}
	g.logger.Info("gateway stopped")
	return nil
}
