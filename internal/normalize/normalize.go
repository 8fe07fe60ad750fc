// Package normalize converts raw classifieds listings into the canonical,
// filtered form the cache stores and the evaluator compares against.
package normalize

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
)

// RateSource provides conversion rates into the settlement unit.
type RateSource interface {
	Rate(unit model.Unit, dir model.Direction) (decimal.Decimal, bool)
}

// AttributeTable answers blacklist lookups for listing attributes.
type AttributeTable interface {
	IsSpell(defindex int) bool
	IsStrangePart(defindex int, floatValue float64) bool
}

// Normalizer filters raw listings and computes their settlement values.
type Normalizer struct {
	rates  RateSource
	attrs  AttributeTable
	logger *slog.Logger
}

// New creates a Normalizer.
func New(rates RateSource, attrs AttributeTable, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		rates:  rates,
		attrs:  attrs,
		logger: logger,
	}
}

// Normalize applies the exclusion rules in order and values the survivors.
// Listings whose value cannot be determined (missing conversion rate,
// non-positive result) are dropped rather than cached with a garbage value.
func (n *Normalizer) Normalize(raw []model.RawListing) []model.NormalizedListing {
	out := make([]model.NormalizedListing, 0, len(raw))

	for _, l := range raw {
		// Only buy-side listings are comparable references.
		if l.Intent == "sell" {
			continue
		}

		// Negotiable-only listings are not reliable references.
		if !l.BuyoutOnly {
			continue
		}

		if n.hasBlacklistedAttribute(l.Attributes) {
			continue
		}

		value, ok := n.settlementValue(l)
		if !ok {
			continue
		}

		out = append(out, model.NormalizedListing{
			Price:           l.Price,
			SettlementValue: value,
			IsBuyIntent:     true,
			IsBuyoutOnly:    true,
		})
	}

	return out
}

func (n *Normalizer) hasBlacklistedAttribute(attrs []model.ItemAttribute) bool {
	for _, a := range attrs {
		if n.attrs.IsSpell(a.Defindex) {
			return true
		}
		if n.attrs.IsStrangePart(a.Defindex, a.FloatValue) {
			return true
		}
	}
	return false
}

// settlementValue converts a listing's price into USD. A primary
// metal-denominated price takes precedence; otherwise the mixed-currency
// bag is decomposed component by component.
func (n *Normalizer) settlementValue(l model.RawListing) (decimal.Decimal, bool) {
	if l.Price.IsPositive() {
		metalRate, ok := n.rates.Rate(model.UnitMetal, model.DirectionSell)
		if !ok {
			return decimal.Zero, false
		}
		return l.Price.Mul(metalRate), true
	}

	total := decimal.Zero

	if l.Keys.IsPositive() {
		keyRate, ok := n.rates.Rate(model.UnitKey, model.DirectionSell)
		if !ok {
			return decimal.Zero, false
		}
		total = total.Add(l.Keys.Mul(keyRate))
	}

	if l.Metal.IsPositive() {
		metalRate, ok := n.rates.Rate(model.UnitMetal, model.DirectionSell)
		if !ok {
			return decimal.Zero, false
		}
		total = total.Add(l.Metal.Mul(metalRate))
	}

	if !total.IsPositive() {
		return decimal.Zero, false
	}
	return total, true
}
