package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/channelwise/permsync/internal/config"
	"github.com/channelwise/permsync/internal/cron"
	"github.com/channelwise/permsync/internal/gateway"
	"github.com/channelwise/permsync/internal/reconcile"
	"github.com/channelwise/permsync/internal/store/sqlite"
	"github.com/channelwise/permsync/internal/telegram"
	"github.com/channelwise/permsync/internal/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// app is the composition root. Every component is constructed explicitly
// here and handed its dependencies; nothing is a package-level singleton.
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	store        *sqlite.Store
	client       *telegram.Client
	engine       *reconcile.Engine
	orchestrator *reconcile.Orchestrator
	router       *webhook.Router
	gateway      *gateway.Gateway
	scheduler    *cron.Scheduler
	registry     *prometheus.Registry
	botUsername  string
}

// newApp wires the full object graph: store, client, engine, orchestrator,
// webhook router, gateway and scheduler. It calls getMe once to fail fast on
// a bad token and to learn the bot's own id for admin-status checks.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	client := telegram.NewClient(cfg.Telegram.Token, cfg.Telegram.APIURL)

	me, err := client.GetMe(context.Background())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("getMe failed (check token): %w", err)
	}
	logger.Info("telegram bot authenticated", "id", me.ID, "username", me.Username)

	staleness := reconcile.NewStaleness(cfg.Sync.StalenessWindow)
	registry := prometheus.NewRegistry()
	metrics := reconcile.NewMetrics(registry)

	engine := reconcile.NewEngine(client, store.Permissions(), me.ID, staleness, logger, metrics)

	limiter := rate.NewLimiter(rate.Limit(cfg.Sync.PacePerSecond), 1)
	orch := reconcile.NewOrchestrator(engine, store.Permissions(), store.Channels(), client, limiter, staleness, cfg.Sync.SweepBatchSize, logger)

	router := webhook.NewRouter(engine, store.Channels(), cfg.Telegram.WebhookSecret, logger)

	gw := gateway.New(cfg.Gateway, engine, orch, router, store.Permissions(), store, staleness, registry, logger, me.Username)

	scheduler := cron.NewScheduler(logger)
	if err := scheduler.RegisterJob(&cron.StaleSweepJob{
		Orchestrator: orch,
		Logger:       logger,
		ScheduleExpr: cfg.Sync.SweepSchedule,
	}); err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := scheduler.RegisterJob(&cron.InactiveCleanupJob{
		Orchestrator: orch,
		MaxAge:       cfg.Sync.InactiveAge,
		Logger:       logger,
		ScheduleExpr: cfg.Sync.CleanupSchedule,
	}); err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		client:       client,
		engine:       engine,
		orchestrator: orch,
		router:       router,
		gateway:      gw,
		scheduler:    scheduler,
		registry:     registry,
		botUsername:  me.Username,
	}, nil
}

// run starts the gateway, registers the webhook with Telegram when
// configured, starts the scheduler, and blocks until SIGINT/SIGTERM.
func (a *app) run(ctx context.Context) error {
	defer a.close()

	if err := a.gateway.Start(); err != nil {
		return err
	}

	if a.cfg.Telegram.WebhookURL != "" {
		if a.cfg.Telegram.WebhookSecret == "" {
			a.logger.Warn("webhook running without secret token; " +
				"set telegram.webhook_secret for production deployments")
		}
		if err := a.client.SetWebhook(ctx, telegram.SetWebhookRequest{
			URL:            a.cfg.Telegram.WebhookURL,
			SecretToken:    a.cfg.Telegram.WebhookSecret,
			AllowedUpdates: []string{"chat_member", "my_chat_member", "channel_post", "edited_channel_post", "message", "callback_query"},
		}); err != nil {
			return fmt.Errorf("setWebhook failed: %w", err)
		}
		a.logger.Info("webhook configured", "url", a.cfg.Telegram.WebhookURL)
	}

	if err := a.scheduler.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		a.logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("shutting down", "reason", ctx.Err())
	}

	shutdownCtx := context.Background()

	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler stop failed", "error", err)
	}

	if a.cfg.Telegram.WebhookURL != "" {
		if err := a.client.DeleteWebhook(shutdownCtx); err != nil {
			a.logger.Warn("failed to delete webhook on shutdown", "error", err)
		}
	}

	if err := a.gateway.Stop(shutdownCtx); err != nil {
		a.logger.Warn("gateway stop failed", "error", err)
	}

	return nil
}

// close releases resources held by the app. Safe to call after run.
func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("store close failed", "error", err)
		}
		a.store = nil
	}
}
