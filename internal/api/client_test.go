package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
	"github.com/scrapyard-labs/lootscan/internal/rates"
)

func TestGetSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classifieds/listings/snapshot" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("token") != "tok" || q.Get("sku") != "Team Captain" || q.Get("appid") != "440" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{
			"listings": [
				{
					"steamid": "765",
					"intent": "sell",
					"buyout": 1,
					"price": 2.55,
					"currencies": {"metal": 2.55},
					"timestamp": 100,
					"bump": 200,
					"item": {"attributes": [{"defindex": 1004, "float_value": "8"}]}
				},
				{
					"steamid": "766",
					"intent": "sell",
					"currencies": {"keys": 2, "metal": 1.33},
					"timestamp": 300
				}
			],
			"appid": 440,
			"sku": "Team Captain"
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "key")
	listings, err := c.GetSnapshot(context.Background(), "Team Captain")
	if err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}

	first := listings[0]
	if first.SteamID != "765" || first.Intent != "sell" || !first.BuyoutOnly {
		t.Errorf("first listing = %+v", first)
	}
	if !first.Price.Equal(decimal.NewFromFloat(2.55)) {
		t.Errorf("Price = %s, want 2.55", first.Price)
	}
	if len(first.Attributes) != 1 || first.Attributes[0].Defindex != 1004 || first.Attributes[0].FloatValue != 8 {
		t.Errorf("Attributes = %+v", first.Attributes)
	}
	if first.ListedAt != 100 || first.BumpedAt != 200 {
		t.Errorf("timestamps = %d/%d", first.ListedAt, first.BumpedAt)
	}

	second := listings[1]
	if !second.BuyoutOnly {
		t.Error("absent buyout flag should mean buyout-only")
	}
	if !second.Keys.Equal(decimal.NewFromInt(2)) || !second.Metal.Equal(decimal.NewFromFloat(1.33)) {
		t.Errorf("currencies = %s keys %s metal", second.Keys, second.Metal)
	}
	if second.BumpedAt != 300 {
		t.Errorf("BumpedAt = %d, want fallback to ListedAt", second.BumpedAt)
	}
}

func TestGetSnapshot_StatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "tok", "key")
			_, err := c.GetSnapshot(context.Background(), "x")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("GetSnapshot() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetSnapshot_NoRetryOnRateLimit(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "key", WithRetries(3, time.Millisecond))
	if _, err := c.GetSnapshot(context.Background(), "x"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("GetSnapshot() error = %v, want ErrRateLimited", err)
	}
	if calls != 1 {
		t.Errorf("upstream called %d times, want 1", calls)
	}
}

func TestCurrencyProviderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/IGetCurrencies/v1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "apikey" {
			t.Errorf("key = %s", r.URL.Query().Get("key"))
		}
		w.Write([]byte(`{"response": {"success": 1, "currencies": {
			"keys": {"price": {"value": 60.11, "value_high": 60.22, "currency": "metal", "difference": 0.11}},
			"metal": {"price": {"value": 0.05, "value_high": 0.06, "currency": "usd", "difference": 0}}
		}}}`))
	}))
	defer srv.Close()

	p := NewCurrencyProvider(NewClient(srv.URL, "tok", "apikey"))
	quotes, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(quotes) != 4 {
		t.Fatalf("got %d quotes, want 4", len(quotes))
	}

	find := func(name string, intent model.Direction) model.CurrencyQuote {
		t.Helper()
		for _, q := range quotes {
			if q.Name == name && q.Intent == intent {
				return q
			}
		}
		t.Fatalf("quote %s/%s missing", name, intent)
		return model.CurrencyQuote{}
	}

	keySell := find(rates.KeyItemName, model.DirectionSell)
	if !keySell.Price.Equal(decimal.NewFromFloat(60.11)) || keySell.Currency != "metal" {
		t.Errorf("key sell = %+v", keySell)
	}
	keyBuy := find(rates.KeyItemName, model.DirectionBuy)
	if !keyBuy.Price.Equal(decimal.NewFromFloat(60.22)) {
		t.Errorf("key buy = %+v", keyBuy)
	}
	metalSell := find(rates.MetalItemName, model.DirectionSell)
	metalBuy := find(rates.MetalItemName, model.DirectionBuy)
	if !metalSell.Price.Equal(metalBuy.Price) {
		t.Error("metal buy and sell should carry the same quoted value")
	}
	if metalSell.Origin != "Backpack.TF" {
		t.Errorf("Origin = %s", metalSell.Origin)
	}
}

func TestCurrencyProviderFetch_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": {"success": 0, "message": "invalid key"}}`))
	}))
	defer srv.Close()

	p := NewCurrencyProvider(NewClient(srv.URL, "tok", "bad"))
	if _, err := p.Fetch(context.Background()); err == nil {
		t.Fatal("Fetch() error = nil, want rejection")
	}
}

func TestPricingBotProviderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/items/5021;6" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"success": true, "name": "Mann Co. Supply Crate Key", "sku": "5021;6",
			"buy": {"keys": 0, "metal": 59.88}, "sell": {"keys": 0, "metal": 60.11}}`))
	}))
	defer srv.Close()

	p := NewPricingBotProvider(srv.URL, nil, nil)
	quotes, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("got %d quotes, want 2", len(quotes))
	}
	for _, q := range quotes {
		if q.Name != rates.KeyItemName || q.Currency != "metal" || q.Origin != "Autobot.TF" {
			t.Errorf("quote = %+v", q)
		}
	}
	if !quotes[0].Price.Equal(decimal.NewFromFloat(60.11)) || quotes[0].Intent != model.DirectionSell {
		t.Errorf("sell quote = %+v", quotes[0])
	}
	if !quotes[1].Price.Equal(decimal.NewFromFloat(59.88)) || quotes[1].Intent != model.DirectionBuy {
		t.Errorf("buy quote = %+v", quotes[1])
	}
}

func TestSchemaClientGetEffects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/properties/effects" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"success": true, "value": {
			"Burning Flames": 13,
			"13": "Burning Flames",
			"Scorching Flames": 14,
			"14": "Scorching Flames"
		}}`))
	}))
	defer srv.Close()

	c := NewSchemaClient(srv.URL, nil, nil)
	effects, err := c.GetEffects(context.Background())
	if err != nil {
		t.Fatalf("GetEffects() error = %v", err)
	}
	if len(effects) != 2 {
		t.Fatalf("got %d entries, want reverse entries dropped: %v", len(effects), effects)
	}
	if effects["Burning Flames"] != 13 {
		t.Errorf("Burning Flames = %v, want 13", effects["Burning Flames"])
	}
}
