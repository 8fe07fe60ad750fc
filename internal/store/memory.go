package store

import (
	"context"
	"sync"

	"github.com/scrapyard-labs/lootscan/internal/model"
)

// Memory is an in-process snapshot store for tests and dry runs. Nothing
// survives a restart.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]model.CacheEntry
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]model.CacheEntry)}
}

// GetSnapshot returns the cached entry for key, or nil when absent.
func (m *Memory) GetSnapshot(_ context.Context, key string) (*model.CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// PutSnapshot stores entry, replacing any previous entry for the same key.
func (m *Memory) PutSnapshot(_ context.Context, entry model.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Key] = entry
	return nil
}
