package evaluate

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
	"github.com/scrapyard-labs/lootscan/internal/snapshot"
)

type fakeListings struct {
	key    string
	values []float64
	err    error
}

func (f *fakeListings) Get(_ context.Context, key string) ([]model.NormalizedListing, error) {
	f.key = key
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.NormalizedListing, 0, len(f.values))
	for _, v := range f.values {
		out = append(out, model.NormalizedListing{SettlementValue: decimal.NewFromFloat(v)})
	}
	return out, nil
}

type noEffects struct{}

func (noEffects) EffectName([]string) (string, bool) { return "", false }

type fixedFunds float64

func (f fixedFunds) RemainingFunds() decimal.Decimal { return decimal.NewFromFloat(float64(f)) }

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func newTestEvaluator(cfg Config, listings ListingSource, funds FundsSource) *Evaluator {
	return New(cfg, listings, noEffects{}, funds, nil)
}

func TestEvaluate_TopNMean(t *testing.T) {
	// Unsorted input: the evaluator must pick the three cheapest.
	listings := &fakeListings{values: []float64{15, 9, 30, 12}}
	e := newTestEvaluator(Config{Threshold: dec(1), TopListings: 3}, listings, nil)

	d, err := e.Evaluate(context.Background(), model.InventoryItem{ID: "1", Name: "Team Captain", Price: dec(10)})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	// Mean of 9, 12, 15.
	if !d.ReferencePrice.Equal(dec(12)) {
		t.Errorf("ReferencePrice = %s, want 12", d.ReferencePrice)
	}
	if !d.Profitable {
		t.Error("Profitable = false, want true (10 + 1 < 12)")
	}
	if !d.Margin().Equal(dec(2)) {
		t.Errorf("Margin() = %s, want 2", d.Margin())
	}
}

func TestEvaluate_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		name       string
		price      float64
		profitable bool
	}{
		{"strictly below reference minus threshold", 10.49, true},
		{"exactly at boundary", 10.50, false},
		{"above boundary", 10.51, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listings := &fakeListings{values: []float64{11.50}}
			e := newTestEvaluator(Config{Threshold: dec(1), TopListings: 3}, listings, nil)

			d, err := e.Evaluate(context.Background(), model.InventoryItem{Name: "x", Price: dec(tt.price)})
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if d.Profitable != tt.profitable {
				t.Errorf("Profitable = %v, want %v", d.Profitable, tt.profitable)
			}
		})
	}
}

func TestEvaluate_FewerListingsThanTopN(t *testing.T) {
	listings := &fakeListings{values: []float64{8, 10}}
	e := newTestEvaluator(Config{Threshold: dec(0), TopListings: 3}, listings, nil)

	d, err := e.Evaluate(context.Background(), model.InventoryItem{Name: "x", Price: dec(5)})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !d.ReferencePrice.Equal(dec(9)) {
		t.Errorf("ReferencePrice = %s, want mean of all available", d.ReferencePrice)
	}
}

func TestEvaluate_PriceCapSkips(t *testing.T) {
	listings := &fakeListings{values: []float64{100}}
	e := newTestEvaluator(Config{Threshold: dec(1), TopListings: 3, MaxItemPrice: dec(20)}, listings, nil)

	d, err := e.Evaluate(context.Background(), model.InventoryItem{Name: "x", Price: dec(25)})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if d != nil {
		t.Errorf("Evaluate() = %+v, want nil for item over cap", d)
	}
	if listings.key != "" {
		t.Error("listing source consulted for a capped item")
	}
}

func TestEvaluate_FundsSkip(t *testing.T) {
	listings := &fakeListings{values: []float64{100}}
	e := newTestEvaluator(Config{Threshold: dec(1), TopListings: 3}, listings, fixedFunds(8))

	d, err := e.Evaluate(context.Background(), model.InventoryItem{Name: "x", Price: dec(10)})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if d != nil {
		t.Errorf("Evaluate() = %+v, want nil beyond available funds", d)
	}
}

func TestEvaluate_CanonicalNameLookup(t *testing.T) {
	listings := &fakeListings{values: []float64{10}}
	e := newTestEvaluator(Config{Threshold: dec(0), TopListings: 3}, listings, nil)

	_, err := e.Evaluate(context.Background(), model.InventoryItem{Name: "Crate #57", Price: dec(1)})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if listings.key != "Crate %2357" {
		t.Errorf("lookup key = %q, want canonical name", listings.key)
	}
}

func TestEvaluate_UnavailableSkips(t *testing.T) {
	listings := &fakeListings{err: snapshot.ErrUnavailable}
	e := newTestEvaluator(Config{Threshold: dec(0), TopListings: 3}, listings, nil)

	d, err := e.Evaluate(context.Background(), model.InventoryItem{Name: "x", Price: dec(1)})
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want skip", err)
	}
	if d != nil {
		t.Errorf("Evaluate() = %+v, want nil when listings unavailable", d)
	}
}

func TestEvaluate_StoreFailurePropagates(t *testing.T) {
	listings := &fakeListings{err: errors.New("connection lost")}
	e := newTestEvaluator(Config{Threshold: dec(0), TopListings: 3}, listings, nil)

	if _, err := e.Evaluate(context.Background(), model.InventoryItem{Name: "x", Price: dec(1)}); err == nil {
		t.Error("Evaluate() error = nil, want store failure surfaced")
	}
}
