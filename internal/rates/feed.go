package rates

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
	"github.com/scrapyard-labs/lootscan/internal/notify"
)

// Fallback feed-side rates older than this trigger an operator warning.
const fallbackStaleAfter = 7 * 24 * time.Hour

// FeedObserver writes currency quotes observed on the feed into the
// registry's buy side. The detector hands it every currency item it sees in
// the inventory view.
type FeedObserver struct {
	registry *Registry
	logger   *slog.Logger
}

// NewFeedObserver creates an observer over the registry.
func NewFeedObserver(registry *Registry, logger *slog.Logger) *FeedObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedObserver{registry: registry, logger: logger}
}

// ObserveQuote records a feed listing price for a currency item. Unknown
// names and non-positive prices are dropped.
func (o *FeedObserver) ObserveQuote(name string, price decimal.Decimal) {
	unit, ok := UnitForName(name)
	if !ok || !price.IsPositive() {
		return
	}
	o.registry.Set(unit, model.DirectionBuy, price)
	o.logger.Debug("feed currency quote observed", "unit", unit, "price", price)
}

// Fallback holds the configured feed-side sell rates used until live quotes
// arrive.
type Fallback struct {
	MetalSellUSD decimal.Decimal
	KeySellUSD   decimal.Decimal
	QuotedAt     time.Time
}

// ParseFallback builds a Fallback from config values. quotedAt is the date
// the operator last verified the rates, in DD/MM/YYYY.
func ParseFallback(metalSellUSD, keySellUSD float64, quotedAt string) (Fallback, error) {
	at, err := time.Parse("02/01/2006", quotedAt)
	if err != nil {
		return Fallback{}, fmt.Errorf("parse fallback date %q: %w", quotedAt, err)
	}
	if metalSellUSD <= 0 || keySellUSD <= 0 {
		return Fallback{}, fmt.Errorf("fallback rates must be positive (metal %v, key %v)", metalSellUSD, keySellUSD)
	}
	return Fallback{
		MetalSellUSD: decimal.NewFromFloat(metalSellUSD),
		KeySellUSD:   decimal.NewFromFloat(keySellUSD),
		QuotedAt:     at,
	}, nil
}

// Seed writes the fallback sell rates into the registry, stamped with their
// quote date so later live quotes win. Rates older than a week warn the
// operator to re-verify them.
func (fb Fallback) Seed(ctx context.Context, registry *Registry, notifier notify.Notifier, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	registry.SetAt(model.UnitMetal, model.DirectionSell, fb.MetalSellUSD, fb.QuotedAt)
	registry.SetAt(model.UnitKey, model.DirectionSell, fb.KeySellUSD, fb.QuotedAt)

	age := time.Since(fb.QuotedAt)
	if age < fallbackStaleAfter {
		return
	}

	logger.Warn("fallback feed rates are stale",
		"quoted_at", fb.QuotedAt.Format("02/01/2006"),
		"age_days", int(age.Hours()/24),
	)
	if notifier != nil {
		notifier.Notify(ctx, notify.Message{
			Title: "Fallback rates need updating",
			Body: fmt.Sprintf(
				"The configured feed sell rates were last verified on %s. Update them in the config.",
				fb.QuotedAt.Format("02/01/2006"),
			),
			Severity: notify.SeverityWarning,
		})
	}
}
