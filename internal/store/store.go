package store

import (
	"context"

	"github.com/scrapyard-labs/lootscan/internal/model"
)

// SnapshotStore persists cached snapshot entries keyed by canonical item
// name. GetSnapshot returns nil for an absent key; staleness is the
// caller's concern.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, key string) (*model.CacheEntry, error)
	PutSnapshot(ctx context.Context, entry model.CacheEntry) error
}
