package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultFeedURL         = "https://loot.farm"
	DefaultFeedGame        = "TF2"
	DefaultFeedTimeout     = 30 * time.Second
	DefaultPriceAPIURL     = "https://backpack.tf/api"
	DefaultAPITimeout      = 30 * time.Second
	DefaultMaxRetries      = 3
	DefaultRetryBackoff    = 1 * time.Second
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultSnapshotBackend = "postgres"
	DefaultCacheDuration   = 1 * time.Hour
	DefaultRateWindow      = 1 * time.Minute
	DefaultRateQuota       = 60
	DefaultRefreshInterval = 1 * time.Hour
	DefaultCallGate        = 1 * time.Hour
	DefaultTopListings     = 3
	DefaultScanInterval    = 5 * time.Second
	DefaultScanRetries     = 3
	DefaultScanBackoff     = 2 * time.Second
	DefaultSchemaURL       = "https://schema.autobot.tf"
	DefaultPricingBotURL   = "https://autobot.tf"
	DefaultSchemaInterval  = 168 * time.Hour
	DefaultNotifyTimeout   = 10 * time.Second
	DefaultStatusInterval  = 1 * time.Hour
	DefaultStartupDelay    = 10 * time.Minute
)

func (c *Config) applyDefaults() {
	// Feed defaults
	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = DefaultFeedURL
	}
	if c.Feed.Game == "" {
		c.Feed.Game = DefaultFeedGame
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = DefaultFeedTimeout
	}

	// Price API defaults
	if c.PriceAPI.BaseURL == "" {
		c.PriceAPI.BaseURL = DefaultPriceAPIURL
	}
	if c.PriceAPI.Timeout == 0 {
		c.PriceAPI.Timeout = DefaultAPITimeout
	}
	if c.PriceAPI.MaxRetries == 0 {
		c.PriceAPI.MaxRetries = DefaultMaxRetries
	}
	if c.PriceAPI.RetryBackoff == 0 {
		c.PriceAPI.RetryBackoff = DefaultRetryBackoff
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Store defaults
	if c.Store.SnapshotBackend == "" {
		c.Store.SnapshotBackend = DefaultSnapshotBackend
	}

	// Snapshot defaults
	if c.Snapshot.CacheDuration == 0 {
		c.Snapshot.CacheDuration = DefaultCacheDuration
	}
	if c.Snapshot.RateWindow == 0 {
		c.Snapshot.RateWindow = DefaultRateWindow
	}
	if c.Snapshot.RateQuota == 0 {
		c.Snapshot.RateQuota = DefaultRateQuota
	}

	// Currency defaults
	if c.Currency.RefreshInterval == 0 {
		c.Currency.RefreshInterval = DefaultRefreshInterval
	}
	if c.Currency.CallGate == 0 {
		c.Currency.CallGate = DefaultCallGate
	}
	if c.Currency.PricingBotURL == "" {
		c.Currency.PricingBotURL = DefaultPricingBotURL
	}

	// Evaluator defaults
	if c.Evaluator.TopListings == 0 {
		c.Evaluator.TopListings = DefaultTopListings
	}

	// Scanner defaults
	if c.Scanner.Interval == 0 {
		c.Scanner.Interval = DefaultScanInterval
	}
	if c.Scanner.MaxRetries == 0 {
		c.Scanner.MaxRetries = DefaultScanRetries
	}
	if c.Scanner.RetryBackoff == 0 {
		c.Scanner.RetryBackoff = DefaultScanBackoff
	}

	// Schema defaults
	if c.Schema.BaseURL == "" {
		c.Schema.BaseURL = DefaultSchemaURL
	}
	if c.Schema.RefreshInterval == 0 {
		c.Schema.RefreshInterval = DefaultSchemaInterval
	}
	if c.Schema.Timeout == 0 {
		c.Schema.Timeout = DefaultAPITimeout
	}

	// Notify defaults
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = DefaultNotifyTimeout
	}

	// Status defaults
	if c.Status.Interval == 0 {
		c.Status.Interval = DefaultStatusInterval
	}
	if c.Status.StartupDelay == 0 {
		c.Status.StartupDelay = DefaultStartupDelay
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
