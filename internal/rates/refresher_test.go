package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
)

type fakeProvider struct {
	name   string
	quotes []model.CurrencyQuote
	err    error
	calls  int
}

func (p *fakeProvider) Name() string     { return p.name }
func (p *fakeProvider) Endpoint() string { return p.name + "-currencies" }
func (p *fakeProvider) Fetch(ctx context.Context) ([]model.CurrencyQuote, error) {
	p.calls++
	return p.quotes, p.err
}

type fakeQuoteStore struct {
	inserted []model.CurrencyQuote
	newest   map[string]*model.CurrencyQuote
}

func quoteSel(origin, name, currency string, intent model.Direction) string {
	return origin + "|" + name + "|" + currency + "|" + string(intent)
}

func (s *fakeQuoteStore) InsertQuote(ctx context.Context, q model.CurrencyQuote) error {
	s.inserted = append(s.inserted, q)
	return nil
}

func (s *fakeQuoteStore) NewestQuote(ctx context.Context, origin, name, currency string, intent model.Direction) (*model.CurrencyQuote, error) {
	if s.newest == nil {
		return nil, nil
	}
	return s.newest[quoteSel(origin, name, currency, intent)], nil
}

type fakeGate struct {
	allow    bool
	recorded []string
}

func (g *fakeGate) ShouldCall(ctx context.Context, endpoint string, maxAge time.Duration) (bool, error) {
	return g.allow, nil
}

func (g *fakeGate) RecordCall(ctx context.Context, endpoint string) error {
	g.recorded = append(g.recorded, endpoint)
	return nil
}

func newTestRefresher(p Provider, store *fakeQuoteStore, gate *fakeGate) (*Refresher, *Registry) {
	reg := NewRegistry()
	f := NewRefresher(DefaultRefresherConfig(), []Provider{p}, reg, store, gate, nil)
	f.ctx, f.cancel = context.WithCancel(context.Background())
	return f, reg
}

func TestRefresher_AppliesFetchedQuotes(t *testing.T) {
	p := &fakeProvider{
		name: "Backpack.TF",
		quotes: []model.CurrencyQuote{
			{Name: MetalItemName, Price: decimal.RequireFromString("0.05"), Intent: model.DirectionSell, Currency: "usd", Origin: "Backpack.TF"},
			{Name: KeyItemName, Price: decimal.RequireFromString("60"), Intent: model.DirectionSell, Currency: "metal", Origin: "Backpack.TF"},
		},
	}
	store := &fakeQuoteStore{}
	gate := &fakeGate{allow: true}

	f, reg := newTestRefresher(p, store, gate)
	defer f.cancel()

	f.refreshAll()

	metal, ok := reg.Rate(model.UnitMetal, model.DirectionSell)
	if !ok || !metal.Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("metal sell rate = %s (ok=%v), want 0.05", metal, ok)
	}

	// Metal-denominated key quote converts through the metal rate: 60 * 0.05.
	key, ok := reg.Rate(model.UnitKey, model.DirectionSell)
	if !ok || !key.Equal(decimal.RequireFromString("3")) {
		t.Errorf("key sell rate = %s (ok=%v), want 3", key, ok)
	}

	if len(store.inserted) != 2 {
		t.Errorf("persisted %d quotes, want 2", len(store.inserted))
	}
	if len(gate.recorded) != 1 {
		t.Errorf("recorded %d calls, want 1", len(gate.recorded))
	}
}

func TestRefresher_GatedAppliesPersisted(t *testing.T) {
	p := &fakeProvider{name: "Backpack.TF"}
	store := &fakeQuoteStore{
		newest: map[string]*model.CurrencyQuote{
			quoteSel("Backpack.TF", MetalItemName, "usd", model.DirectionSell): {
				Name: MetalItemName, Price: decimal.RequireFromString("0.04"),
				Intent: model.DirectionSell, Currency: "usd", Origin: "Backpack.TF",
			},
		},
	}
	gate := &fakeGate{allow: false}

	f, reg := newTestRefresher(p, store, gate)
	defer f.cancel()

	f.refreshAll()

	if p.calls != 0 {
		t.Errorf("provider fetched %d times while gated, want 0", p.calls)
	}
	metal, ok := reg.Rate(model.UnitMetal, model.DirectionSell)
	if !ok || !metal.Equal(decimal.RequireFromString("0.04")) {
		t.Errorf("metal sell rate = %s (ok=%v), want persisted 0.04", metal, ok)
	}
}

func TestRefresher_FetchFailureAppliesPersisted(t *testing.T) {
	p := &fakeProvider{name: "Autobot.TF", err: errors.New("connection refused")}
	store := &fakeQuoteStore{
		newest: map[string]*model.CurrencyQuote{
			quoteSel("Autobot.TF", MetalItemName, "usd", model.DirectionBuy): {
				Name: MetalItemName, Price: decimal.RequireFromString("0.06"),
				Intent: model.DirectionBuy, Currency: "usd", Origin: "Autobot.TF",
			},
		},
	}
	gate := &fakeGate{allow: true}

	f, reg := newTestRefresher(p, store, gate)
	defer f.cancel()

	f.refreshAll()

	metal, ok := reg.Rate(model.UnitMetal, model.DirectionBuy)
	if !ok || !metal.Equal(decimal.RequireFromString("0.06")) {
		t.Errorf("metal buy rate = %s (ok=%v), want persisted 0.06", metal, ok)
	}
	if len(gate.recorded) != 0 {
		t.Errorf("recorded %d calls after failure, want 0", len(gate.recorded))
	}
}

func TestRefresher_DiffAgainstNewest(t *testing.T) {
	p := &fakeProvider{
		name: "Backpack.TF",
		quotes: []model.CurrencyQuote{
			{Name: MetalItemName, Price: decimal.RequireFromString("0.07"), Intent: model.DirectionSell, Currency: "usd", Origin: "Backpack.TF"},
		},
	}
	store := &fakeQuoteStore{
		newest: map[string]*model.CurrencyQuote{
			quoteSel("Backpack.TF", MetalItemName, "usd", model.DirectionSell): {
				Name: MetalItemName, Price: decimal.RequireFromString("0.05"),
				Intent: model.DirectionSell, Currency: "usd", Origin: "Backpack.TF",
			},
		},
	}
	gate := &fakeGate{allow: true}

	f, _ := newTestRefresher(p, store, gate)
	defer f.cancel()

	f.refreshAll()

	if len(store.inserted) != 1 {
		t.Fatalf("persisted %d quotes, want 1", len(store.inserted))
	}
	if !store.inserted[0].Diff.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("quote diff = %s, want 0.02", store.inserted[0].Diff)
	}
}
