package config

import "time"

// Config is the root configuration for a scanner instance.
type Config struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Feed      FeedConfig      `yaml:"feed"`
	PriceAPI  PriceAPIConfig  `yaml:"price_api"`
	Database  DatabaseConfig  `yaml:"database"`
	Store     StoreConfig     `yaml:"store"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Currency  CurrencyConfig  `yaml:"currency"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	Schema    SchemaConfig    `yaml:"schema"`
	Notify    NotifyConfig    `yaml:"notify"`
	Status    StatusConfig    `yaml:"status"`
}

// InstanceConfig identifies this scanner.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// FeedConfig holds trade-site price feed settings.
type FeedConfig struct {
	BaseURL string        `yaml:"base_url"`
	Game    string        `yaml:"game"` // "TF2", "CSGO", "Dota 2", "Rust"
	Timeout time.Duration `yaml:"timeout"`
}

// PriceAPIConfig holds classifieds price-discovery API settings.
type PriceAPIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Token        string        `yaml:"token"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// DatabaseConfig holds the Postgres connection for durable state: snapshots,
// currency price history, the API call log and error records.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// StoreConfig selects the snapshot-cache backend. Postgres is the default;
// Redis keeps snapshots in a shared cache with native TTLs.
type StoreConfig struct {
	SnapshotBackend string      `yaml:"snapshot_backend"` // "postgres", "redis" or "memory"
	Redis           RedisConfig `yaml:"redis"`
}

// RedisConfig holds the Redis connection for the snapshot cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SnapshotConfig holds snapshot cache and rate limiter settings.
type SnapshotConfig struct {
	CacheDuration time.Duration `yaml:"cache_duration"` // TTL for cached snapshots
	RateWindow    time.Duration `yaml:"rate_window"`    // Rate limiter window length
	RateQuota     int           `yaml:"rate_quota"`     // Acquisitions allowed per window
}

// CurrencyConfig holds currency valuation settings.
type CurrencyConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"` // Provider poll cadence
	CallGate        time.Duration `yaml:"call_gate"`        // Per-provider staleness gate
	PricingBotURL   string        `yaml:"pricing_bot_url"`  // Second reference provider

	// Fallback feed-side sell rates used until live quotes arrive.
	FallbackMetalSellUSD float64 `yaml:"fallback_metal_sell_usd"`
	FallbackKeySellUSD   float64 `yaml:"fallback_key_sell_usd"`
	FallbackQuotedAt     string  `yaml:"fallback_quoted_at"` // DD/MM/YYYY
}

// EvaluatorConfig holds profitability policy settings.
type EvaluatorConfig struct {
	Threshold    float64 `yaml:"threshold"`      // USD margin required on top of the source price
	TopListings  int     `yaml:"top_listings"`   // Listings averaged into the reference price
	MaxItemPrice float64 `yaml:"max_item_price"` // Absolute price cap; 0 disables
	InitialFunds float64 `yaml:"initial_funds"`  // Starting available funds in USD
}

// ScannerConfig holds the scan loop settings.
type ScannerConfig struct {
	Interval     time.Duration `yaml:"interval"`      // Pause between scan passes
	MaxRetries   int           `yaml:"max_retries"`   // Transient-failure retries per pass
	RetryBackoff time.Duration `yaml:"retry_backoff"` // Base backoff between retries
	IgnoredItems []string      `yaml:"ignored_items"` // Names excluded from detection
}

// SchemaConfig holds item-schema refresh settings.
type SchemaConfig struct {
	BaseURL         string        `yaml:"base_url"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Timeout         time.Duration `yaml:"timeout"`
}

// NotifyConfig holds webhook notification settings.
type NotifyConfig struct {
	WebhookURL string        `yaml:"webhook_url"` // Empty disables notifications
	Timeout    time.Duration `yaml:"timeout"`
}

// StatusConfig holds periodic status report settings.
type StatusConfig struct {
	Interval     time.Duration `yaml:"interval"`
	StartupDelay time.Duration `yaml:"startup_delay"`
}
