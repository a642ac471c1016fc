package config

import "time"

// Config is the root configuration. All values are supplied at process
// start and never mutated at runtime.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Store    StoreConfig    `yaml:"store"`
	Sync     SyncConfig     `yaml:"sync"`
	Gateway  GatewayConfig  `yaml:"gateway"`
}

// TelegramConfig holds the Bot API credentials and webhook settings.
type TelegramConfig struct {
	Token         string `yaml:"token"`
	APIURL        string `yaml:"api_url"`
	WebhookURL    string `yaml:"webhook_url"`
	WebhookSecret string `yaml:"webhook_secret"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SyncConfig tunes the reconciliation engine and the periodic jobs.
type SyncConfig struct {
	StalenessWindow time.Duration `yaml:"staleness_window"`
	PacePerSecond   float64       `yaml:"pace_per_second"`
	SweepSchedule   string        `yaml:"sweep_schedule"`
	SweepBatchSize  int           `yaml:"sweep_batch_size"`
	CleanupSchedule string        `yaml:"cleanup_schedule"`
	InactiveAge     time.Duration `yaml:"inactive_age"`
}

// GatewayConfig holds HTTP server configuration.
type GatewayConfig struct {
	Bind            string        `yaml:"bind"`
	Auth            AuthConfig    `yaml:"auth"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig configures authentication for admin endpoints.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
}

// IsConfigured returns true if an auth method is configured.
func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != ""
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = "https://api.telegram.org"
	}
	if c.Store.Path == "" {
		c.Store.Path = "permsync.db"
	}
	if c.Sync.StalenessWindow <= 0 {
		c.Sync.StalenessWindow = time.Hour
	}
	if c.Sync.PacePerSecond <= 0 {
		c.Sync.PacePerSecond = 5
	}
	if c.Sync.SweepSchedule == "" {
		c.Sync.SweepSchedule = "*/10 * * * *"
	}
	if c.Sync.SweepBatchSize <= 0 {
		c.Sync.SweepBatchSize = 50
	}
	if c.Sync.CleanupSchedule == "" {
		c.Sync.CleanupSchedule = "0 3 * * *"
	}
	if c.Sync.InactiveAge <= 0 {
		c.Sync.InactiveAge = 7 * 24 * time.Hour
	}
	if c.Gateway.Bind == "" {
		c.Gateway.Bind = "127.0.0.1:8080"
	}
	if c.Gateway.ReadTimeout <= 0 {
		c.Gateway.ReadTimeout = 10 * time.Second
	}
	if c.Gateway.WriteTimeout <= 0 {
		c.Gateway.WriteTimeout = 30 * time.Second
	}
	if c.Gateway.ShutdownTimeout <= 0 {
		c.Gateway.ShutdownTimeout = 5 * time.Second
	}
}
