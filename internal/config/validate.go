package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.PriceAPI.Token == "" {
		return errors.New("price_api.token is required")
	}

	if err := c.Database.Postgres.validate("database.postgres"); err != nil {
		return err
	}

	switch c.Store.SnapshotBackend {
	case "postgres", "memory":
	case "redis":
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required when store.snapshot_backend is redis")
		}
	default:
		return fmt.Errorf("store.snapshot_backend must be postgres, redis or memory, got %q", c.Store.SnapshotBackend)
	}

	if c.Snapshot.RateQuota < 1 {
		return errors.New("snapshot.rate_quota must be >= 1")
	}
	if c.Snapshot.RateWindow < time.Second {
		return errors.New("snapshot.rate_window must be >= 1s")
	}
	if c.Snapshot.CacheDuration < time.Minute {
		return errors.New("snapshot.cache_duration must be >= 1m")
	}

	if c.Currency.CallGate < time.Hour || c.Currency.CallGate > 168*time.Hour {
		return fmt.Errorf("currency.call_gate must be between 1h and 168h, got %v", c.Currency.CallGate)
	}

	if c.Evaluator.Threshold < 0 {
		return errors.New("evaluator.threshold must be >= 0")
	}
	if c.Evaluator.TopListings < 1 {
		return errors.New("evaluator.top_listings must be >= 1")
	}
	if c.Evaluator.MaxItemPrice < 0 {
		return errors.New("evaluator.max_item_price must be >= 0")
	}

	if c.Scanner.MaxRetries < 0 {
		return errors.New("scanner.max_retries must be >= 0")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns must be <= max_conns", prefix)
	}
	return nil
}
