package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"time"

	"github.com/robfig/cron/v3"
)

// tokenPattern matches the Telegram bot token format: <digits>:<alphanum+dash>.
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// cronParser mirrors the scheduler's 5-field parser so bad expressions are
// rejected at startup instead of at Scheduler.Start.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks configuration field constraints. Call after Load.
func Validate(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return errors.New("config: telegram.token is required")
	}
	if !tokenPattern.MatchString(cfg.Telegram.Token) {
		return errors.New("config: telegram.token format invalid (expected <bot_id>:<hash>)")
	}

	if u, err := url.Parse(cfg.Telegram.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("config: telegram.api_url must be a valid http/https URL, got %q", cfg.Telegram.APIURL)
	}

	if cfg.Telegram.WebhookURL != "" {
		if u, err := url.Parse(cfg.Telegram.WebhookURL); err != nil || u.Scheme != "https" {
			return fmt.Errorf("config: telegram.webhook_url must be a valid https URL, got %q", cfg.Telegram.WebhookURL)
		}
	}

	if cfg.Sync.StalenessWindow < time.Minute || cfg.Sync.StalenessWindow > 24*time.Hour {
		return fmt.Errorf("config: sync.staleness_window must be 1m-24h, got %s", cfg.Sync.StalenessWindow)
	}

	if cfg.Sync.PacePerSecond > 30 {
		return fmt.Errorf("config: sync.pace_per_second must not exceed 30, got %g", cfg.Sync.PacePerSecond)
	}

	for _, expr := range []struct{ name, value string }{
		{"sync.sweep_schedule", cfg.Sync.SweepSchedule},
		{"sync.cleanup_schedule", cfg.Sync.CleanupSchedule},
	} {
		if _, err := cronParser.Parse(expr.value); err != nil {
			return fmt.Errorf("config: %s is not a valid cron expression: %w", expr.name, err)
		}
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.Gateway.Bind); err != nil {
		return fmt.Errorf("config: gateway.bind invalid: %q", cfg.Gateway.Bind)
	}

	return nil
}
