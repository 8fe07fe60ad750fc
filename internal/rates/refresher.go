package rates

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
)

// QuoteStore persists currency quotes for audit and fallback.
type QuoteStore interface {
	// InsertQuote appends one quote to the price history.
	InsertQuote(ctx context.Context, q model.CurrencyQuote) error

	// NewestQuote returns the most recent quote matching the given fields,
	// or nil when none has been persisted.
	NewestQuote(ctx context.Context, origin, name, currency string, intent model.Direction) (*model.CurrencyQuote, error)
}

// CallGate is the per-endpoint staleness gate backed by the API call log.
type CallGate interface {
	// ShouldCall reports whether endpoint was last called more than maxAge ago.
	ShouldCall(ctx context.Context, endpoint string, maxAge time.Duration) (bool, error)

	// RecordCall logs a completed call to endpoint.
	RecordCall(ctx context.Context, endpoint string) error
}

// RefresherConfig holds refresh loop settings.
type RefresherConfig struct {
	Interval time.Duration // Tick cadence (default: 1h)
	CallGate time.Duration // Per-provider staleness gate
	Timeout  time.Duration // Per-refresh timeout
}

// DefaultRefresherConfig returns sensible defaults.
func DefaultRefresherConfig() RefresherConfig {
	return RefresherConfig{
		Interval: time.Hour,
		CallGate: time.Hour,
		Timeout:  time.Minute,
	}
}

// Refresher periodically pulls quotes from each reference currency provider,
// persists them and writes the derived USD conversion rates into the
// registry. When a provider is gated or down, the newest persisted quotes
// are applied instead so the registry survives restarts.
type Refresher struct {
	cfg       RefresherConfig
	providers []Provider
	registry  *Registry
	quotes    QuoteStore
	gate      CallGate
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefresher creates a currency refresher over the given providers.
func NewRefresher(
	cfg RefresherConfig,
	providers []Provider,
	registry *Registry,
	quotes QuoteStore,
	gate CallGate,
	logger *slog.Logger,
) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		cfg:       cfg,
		providers: providers,
		registry:  registry,
		quotes:    quotes,
		gate:      gate,
		logger:    logger,
	}
}

// Start begins the refresh loop.
func (f *Refresher) Start(ctx context.Context) error {
	f.ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go f.run()

	f.logger.Info("currency refresher started",
		"providers", len(f.providers),
		"interval", f.cfg.Interval,
	)
	return nil
}

// Stop gracefully shuts down the refresher.
func (f *Refresher) Stop(ctx context.Context) error {
	if f.cancel != nil {
		f.cancel()
	}

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		f.logger.Info("currency refresher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Refresher) run() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	// Refresh immediately on start.
	f.refreshAll()

	for {
		select {
		case <-f.ctx.Done():
			return
		case <-ticker.C:
			f.refreshAll()
		}
	}
}

func (f *Refresher) refreshAll() {
	for _, p := range f.providers {
		if err := f.refreshProvider(p); err != nil {
			f.logger.Error("currency refresh failed",
				"provider", p.Name(),
				"err", err,
			)
		}
	}
}

// refreshProvider fetches and applies one provider's quotes. Gated or failed
// fetches fall back to the newest persisted quotes.
func (f *Refresher) refreshProvider(p Provider) error {
	ctx, cancel := context.WithTimeout(f.ctx, f.cfg.Timeout)
	defer cancel()

	ok, err := f.gate.ShouldCall(ctx, p.Endpoint(), f.cfg.CallGate)
	if err != nil {
		return err
	}
	if !ok {
		f.logger.Debug("provider call gated, applying persisted quotes", "provider", p.Name())
		return f.applyPersisted(ctx, p)
	}

	quotes, err := p.Fetch(ctx)
	if err != nil {
		f.logger.Warn("provider fetch failed, applying persisted quotes",
			"provider", p.Name(),
			"err", err,
		)
		return f.applyPersisted(ctx, p)
	}

	for _, q := range quotes {
		q.Diff = f.diffAgainstNewest(ctx, q)
		if err := f.quotes.InsertQuote(ctx, q); err != nil {
			f.logger.Error("persist quote failed", "provider", p.Name(), "err", err)
		}
		f.apply(q)
	}

	if err := f.gate.RecordCall(ctx, p.Endpoint()); err != nil {
		f.logger.Error("record call failed", "endpoint", p.Endpoint(), "err", err)
	}

	f.logger.Info("currency rates refreshed",
		"provider", p.Name(),
		"quotes", len(quotes),
	)
	return nil
}

// applyPersisted loads the newest persisted quote for each currency unit and
// direction the provider covers and applies it to the registry.
func (f *Refresher) applyPersisted(ctx context.Context, p Provider) error {
	for _, name := range []string{KeyItemName, MetalItemName} {
		for _, currency := range []string{"usd", "metal"} {
			for _, dir := range []model.Direction{model.DirectionBuy, model.DirectionSell} {
				q, err := f.quotes.NewestQuote(ctx, p.Name(), name, currency, dir)
				if err != nil {
					return err
				}
				if q != nil {
					f.apply(*q)
				}
			}
		}
	}
	return nil
}

// apply writes the USD conversion implied by one quote into the registry.
// Metal-denominated key quotes are converted through the same-direction
// metal rate when it is known.
func (f *Refresher) apply(q model.CurrencyQuote) {
	unit, known := UnitForName(q.Name)
	if !known {
		return
	}

	switch q.Currency {
	case "usd":
		f.registry.Set(unit, q.Intent, q.Price)
	case "metal":
		if unit != model.UnitKey {
			return
		}
		metalUSD, ok := f.registry.Rate(model.UnitMetal, q.Intent)
		if !ok {
			return
		}
		f.registry.Set(model.UnitKey, q.Intent, q.Price.Mul(metalUSD))
	}
}

func (f *Refresher) diffAgainstNewest(ctx context.Context, q model.CurrencyQuote) decimal.Decimal {
	prev, err := f.quotes.NewestQuote(ctx, q.Origin, q.Name, q.Currency, q.Intent)
	if err != nil || prev == nil {
		return decimal.Zero
	}
	return q.Price.Sub(prev.Price)
}
