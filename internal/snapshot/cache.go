// Package snapshot implements the TTL cache over classifieds snapshots.
//
// Reads go through the durable store first; a fresh entry is served as is.
// A miss or stale entry triggers one upstream fetch, provided the rate
// limiter grants a slot. Concurrent requests for the same item collapse
// into a single fetch.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/scrapyard-labs/lootscan/internal/api"
	"github.com/scrapyard-labs/lootscan/internal/model"
	"github.com/scrapyard-labs/lootscan/internal/store"
)

// ErrUnavailable means no usable snapshot exists right now: the entry is
// stale or absent and a refetch was denied, rate limited, or came back
// empty. The caller should skip the item, not fail the pass.
var ErrUnavailable = errors.New("snapshot: unavailable")

// Fetcher pulls current listings for a canonical item name.
type Fetcher interface {
	GetSnapshot(ctx context.Context, sku string) ([]model.RawListing, error)
}

// Normalizer filters and values raw listings.
type Normalizer interface {
	Normalize(raw []model.RawListing) []model.NormalizedListing
}

// Limiter grants upstream call slots.
type Limiter interface {
	TryAcquire() bool
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	TTL time.Duration // Entry freshness window (default: 1h)
}

// Cache is the read-through snapshot cache. Expiry is lazy: entries are
// never evicted, only judged against the TTL at read time.
type Cache struct {
	cfg     CacheConfig
	store   store.SnapshotStore
	fetcher Fetcher
	norm    Normalizer
	limiter Limiter
	logger  *slog.Logger

	group singleflight.Group
	now   func() time.Time
}

// NewCache creates a Cache over the given store and fetcher.
func NewCache(
	cfg CacheConfig,
	st store.SnapshotStore,
	fetcher Fetcher,
	norm Normalizer,
	limiter Limiter,
	logger *slog.Logger,
) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		cfg:     cfg,
		store:   st,
		fetcher: fetcher,
		norm:    norm,
		limiter: limiter,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the normalized listings for a canonical item name, refetching
// if the cached entry is stale or absent.
//
// A stale entry is only replaced when the refetch yields listings; an empty
// or failed refetch leaves the old entry in place and returns
// ErrUnavailable, so a later pass can try again.
func (c *Cache) Get(ctx context.Context, key string) ([]model.NormalizedListing, error) {
	entry, err := c.store.GetSnapshot(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("cache lookup %s: %w", key, err)
	}
	if entry != nil && entry.Fresh(c.now(), c.cfg.TTL) {
		c.logger.Debug("snapshot cache hit", "key", key)
		return entry.Listings, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.refetch(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.NormalizedListing), nil
}

func (c *Cache) refetch(ctx context.Context, key string) ([]model.NormalizedListing, error) {
	if !c.limiter.TryAcquire() {
		c.logger.Debug("snapshot fetch denied by rate limiter", "key", key)
		return nil, ErrUnavailable
	}

	raw, err := c.fetcher.GetSnapshot(ctx, key)
	switch {
	case errors.Is(err, api.ErrNotFound):
		c.logger.Info("no classifieds presence", "key", key)
		return nil, ErrUnavailable
	case errors.Is(err, api.ErrRateLimited):
		c.logger.Warn("upstream rate limited", "key", key)
		return nil, ErrUnavailable
	case err != nil:
		return nil, fmt.Errorf("fetch snapshot %s: %w", key, err)
	}

	listings := c.norm.Normalize(raw)
	if len(listings) == 0 {
		// Keep whatever entry is cached; an empty result now does not
		// invalidate what we knew an hour ago.
		c.logger.Info("snapshot yielded no usable listings", "key", key, "raw", len(raw))
		return nil, ErrUnavailable
	}

	entry := model.CacheEntry{
		Key:       key,
		Listings:  listings,
		FetchedAt: c.now(),
	}
	if err := c.store.PutSnapshot(ctx, entry); err != nil {
		// Serve the fresh listings even if persisting them failed.
		c.logger.Error("persist snapshot failed", "key", key, "err", err)
	}

	return listings, nil
}
