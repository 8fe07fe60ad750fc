// Package evaluate decides whether a feed item is profitable against its
// classifieds reference listings.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
	"github.com/scrapyard-labs/lootscan/internal/normalize"
	"github.com/scrapyard-labs/lootscan/internal/snapshot"
)

// ListingSource serves normalized reference listings by canonical name.
type ListingSource interface {
	Get(ctx context.Context, key string) ([]model.NormalizedListing, error)
}

// FundsSource reports the funds currently available for buying.
type FundsSource interface {
	RemainingFunds() decimal.Decimal
}

// Config holds the profitability policy.
type Config struct {
	Threshold    decimal.Decimal // Required margin on top of the source price
	TopListings  int             // Listings averaged into the reference price
	MaxItemPrice decimal.Decimal // Absolute price cap; zero disables
}

// Evaluator prices one inventory item against the cheapest reference
// listings for its canonical name.
type Evaluator struct {
	cfg      Config
	listings ListingSource
	effects  normalize.EffectTable
	funds    FundsSource
	logger   *slog.Logger

	now func() time.Time
}

// New creates an Evaluator. funds may be nil to disable the funds check.
func New(cfg Config, listings ListingSource, effects normalize.EffectTable, funds FundsSource, logger *slog.Logger) *Evaluator {
	if cfg.TopListings <= 0 {
		cfg.TopListings = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		cfg:      cfg,
		listings: listings,
		effects:  effects,
		funds:    funds,
		logger:   logger,
		now:      time.Now,
	}
}

// Evaluate returns the decision for item, or nil when the item was skipped:
// out of policy (over the price cap or beyond available funds) or its
// reference listings are unavailable right now.
//
// The reference price is the mean settlement value of the cheapest
// TopListings references. Profitability requires the source price plus the
// threshold to be strictly below that reference.
func (e *Evaluator) Evaluate(ctx context.Context, item model.InventoryItem) (*model.Decision, error) {
	if e.cfg.MaxItemPrice.IsPositive() && item.Price.GreaterThan(e.cfg.MaxItemPrice) {
		e.logger.Debug("item over price cap", "name", item.Name, "price", item.Price)
		return nil, nil
	}
	if e.funds != nil && item.Price.GreaterThan(e.funds.RemainingFunds()) {
		e.logger.Debug("item beyond available funds", "name", item.Name, "price", item.Price)
		return nil, nil
	}

	canonical := normalize.CanonicalName(item.Name, item.Attachments, e.effects)

	listings, err := e.listings.Get(ctx, canonical)
	if errors.Is(err, snapshot.ErrUnavailable) {
		e.logger.Info("reference listings unavailable", "name", canonical)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("evaluate %s: no reference listings", canonical)
	}

	sorted := make([]model.NormalizedListing, len(listings))
	copy(sorted, listings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SettlementValue.LessThan(sorted[j].SettlementValue)
	})

	top := sorted
	if len(top) > e.cfg.TopListings {
		top = top[:e.cfg.TopListings]
	}

	sum := decimal.Zero
	for _, l := range top {
		sum = sum.Add(l.SettlementValue)
	}
	reference := sum.Div(decimal.NewFromInt(int64(len(top))))

	decision := &model.Decision{
		ID:             uuid.New(),
		ItemID:         item.ID,
		ItemName:       canonical,
		SourcePrice:    item.Price,
		ReferencePrice: reference,
		Profitable:     item.Price.Add(e.cfg.Threshold).LessThan(reference),
		EvaluatedAt:    e.now(),
	}

	e.logger.Info("evaluated item",
		"name", canonical,
		"price", item.Price,
		"reference", reference,
		"profitable", decision.Profitable,
	)

	return decision, nil
}
