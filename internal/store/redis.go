package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scrapyard-labs/lootscan/internal/model"
)

// Redis backs the snapshot cache with a shared Redis instance. Entries are
// stored as JSON with a server-side TTL slightly beyond the cache duration,
// so stale entries vanish on their own while the in-band freshness check
// stays authoritative.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func snapshotKey(name string) string { return "snapshot:" + name }

// NewRedis connects to Redis and verifies reachability with a ping.
// cacheDuration is the snapshot TTL the cache evaluates; keys expire server
// side at twice that.
func NewRedis(ctx context.Context, addr, password string, db int, cacheDuration time.Duration) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{rdb: rdb, ttl: cacheDuration * 2}, nil
}

// Close shuts down the client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

// GetSnapshot returns the cached entry for key, or nil when absent or
// expired server side.
func (r *Redis) GetSnapshot(ctx context.Context, key string) (*model.CacheEntry, error) {
	raw, err := r.rdb.Get(ctx, snapshotKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", key, err)
	}

	var entry model.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return &entry, nil
}

// PutSnapshot stores entry, replacing any previous entry for the same key.
func (r *Redis) PutSnapshot(ctx context.Context, entry model.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", entry.Key, err)
	}
	if err := r.rdb.Set(ctx, snapshotKey(entry.Key), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("put snapshot %s: %w", entry.Key, err)
	}
	return nil
}
