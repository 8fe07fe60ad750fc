package schema

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Client fetches the attribute tables from the schema API.
type Client interface {
	GetEffects(ctx context.Context) (map[string]float64, error)
	GetStrangeParts(ctx context.Context) (map[string]float64, error)
}

// Store persists fetched tables so the process starts with the last known
// full tables instead of the seeds.
type Store interface {
	ReplaceSchemaEntries(ctx context.Context, kind string, entries map[string]float64) error
	LoadSchemaEntries(ctx context.Context, kind string) (map[string]float64, error)
}

// CallGate is the per-endpoint staleness gate backed by the API call log.
type CallGate interface {
	ShouldCall(ctx context.Context, endpoint string, maxAge time.Duration) (bool, error)
	RecordCall(ctx context.Context, endpoint string) error
}

// Persisted table kinds, doubling as call-log endpoints.
const (
	KindEffects      = "schema-effects"
	KindStrangeParts = "schema-strange-parts"
)

// LoaderConfig holds schema refresh settings.
type LoaderConfig struct {
	RefreshInterval time.Duration // Gate age for refetching (default: 168h)
	TickInterval    time.Duration // How often the gate is rechecked
	Timeout         time.Duration // Per-fetch timeout
}

// DefaultLoaderConfig returns sensible defaults.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		RefreshInterval: 168 * time.Hour,
		TickInterval:    12 * time.Hour,
		Timeout:         time.Minute,
	}
}

// Loader keeps a Table current: persisted entries on start, then periodic
// refetches behind the call-log gate.
type Loader struct {
	cfg    LoaderConfig
	table  *Table
	client Client
	store  Store
	gate   CallGate
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLoader creates a schema loader for the given table.
func NewLoader(cfg LoaderConfig, table *Table, client Client, store Store, gate CallGate, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		cfg:    cfg,
		table:  table,
		client: client,
		store:  store,
		gate:   gate,
		logger: logger,
	}
}

// Start loads persisted tables, refreshes if due, and begins the
// background refresh loop.
func (l *Loader) Start(ctx context.Context) error {
	l.ctx, l.cancel = context.WithCancel(ctx)

	l.loadPersisted(l.ctx)
	l.refresh()

	l.wg.Add(1)
	go l.run()

	l.logger.Info("schema loader started", "refresh_interval", l.cfg.RefreshInterval)
	return nil
}

// Stop gracefully shuts down the loader.
func (l *Loader) Stop(ctx context.Context) error {
	if l.cancel != nil {
		l.cancel()
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("schema loader stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loader) run() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			l.refresh()
		}
	}
}

// loadPersisted fills the table from the store. Missing kinds keep their
// seed data.
func (l *Loader) loadPersisted(ctx context.Context) {
	if effects, err := l.store.LoadSchemaEntries(ctx, KindEffects); err != nil {
		l.logger.Warn("load persisted effects failed", "err", err)
	} else if len(effects) > 0 {
		l.table.ReplaceEffects(effects)
	}

	if parts, err := l.store.LoadSchemaEntries(ctx, KindStrangeParts); err != nil {
		l.logger.Warn("load persisted strange parts failed", "err", err)
	} else if len(parts) > 0 {
		l.table.ReplaceStrangeParts(parts)
	}
}

func (l *Loader) refresh() {
	l.refreshKind(KindEffects, l.client.GetEffects, l.table.ReplaceEffects)
	l.refreshKind(KindStrangeParts, l.client.GetStrangeParts, l.table.ReplaceStrangeParts)
}

func (l *Loader) refreshKind(
	kind string,
	fetch func(context.Context) (map[string]float64, error),
	replace func(map[string]float64),
) {
	ctx, cancel := context.WithTimeout(l.ctx, l.cfg.Timeout)
	defer cancel()

	ok, err := l.gate.ShouldCall(ctx, kind, l.cfg.RefreshInterval)
	if err != nil {
		l.logger.Error("schema gate check failed", "kind", kind, "err", err)
		return
	}
	if !ok {
		return
	}

	entries, err := fetch(ctx)
	if err != nil {
		l.logger.Error("schema fetch failed", "kind", kind, "err", err)
		return
	}
	if len(entries) == 0 {
		l.logger.Warn("schema fetch returned no entries, keeping current table", "kind", kind)
		return
	}

	if err := l.store.ReplaceSchemaEntries(ctx, kind, entries); err != nil {
		l.logger.Error("persist schema entries failed", "kind", kind, "err", err)
	}
	replace(entries)

	if err := l.gate.RecordCall(ctx, kind); err != nil {
		l.logger.Error("record schema call failed", "kind", kind, "err", err)
	}

	l.logger.Info("schema table refreshed", "kind", kind, "entries", len(entries))
}
