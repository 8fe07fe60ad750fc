package api

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
	"github.com/scrapyard-labs/lootscan/internal/rates"
)

// currenciesResponse is the classifieds currency endpoint payload. Keys are
// quoted in metal, metal in USD.
type currenciesResponse struct {
	Response struct {
		Success    int    `json:"success"`
		Message    string `json:"message"`
		Currencies struct {
			Keys  currencyInfo `json:"keys"`
			Metal currencyInfo `json:"metal"`
		} `json:"currencies"`
	} `json:"response"`
}

type currencyInfo struct {
	Price struct {
		Value      decimal.Decimal `json:"value"`
		ValueHigh  decimal.Decimal `json:"value_high"`
		Currency   string          `json:"currency"`
		Difference decimal.Decimal `json:"difference"`
	} `json:"price"`
}

// CurrencyProvider serves currency quotes from the classifieds API.
type CurrencyProvider struct {
	client *Client
}

// NewCurrencyProvider wraps an existing classifieds client.
func NewCurrencyProvider(c *Client) *CurrencyProvider {
	return &CurrencyProvider{client: c}
}

func (p *CurrencyProvider) Name() string { return "Backpack.TF" }

func (p *CurrencyProvider) Endpoint() string { return "backpack-currencies" }

// Fetch returns both sides for both currency units. The endpoint quotes a
// single metal price, so metal's buy and sell sides carry the same value;
// the key buy side is the quoted high value.
func (p *CurrencyProvider) Fetch(ctx context.Context) ([]model.CurrencyQuote, error) {
	query := url.Values{}
	query.Set("key", p.client.apiKey)

	var resp currenciesResponse
	if err := p.client.get(ctx, "/IGetCurrencies/v1", query, &resp); err != nil {
		return nil, fmt.Errorf("get currencies: %w", err)
	}
	if resp.Response.Success != 1 {
		return nil, fmt.Errorf("get currencies: upstream rejected request: %s", resp.Response.Message)
	}

	now := time.Now()
	keys := resp.Response.Currencies.Keys.Price
	metal := resp.Response.Currencies.Metal.Price

	return []model.CurrencyQuote{
		{
			Name:      rates.KeyItemName,
			Price:     keys.Value,
			Intent:    model.DirectionSell,
			Currency:  keys.Currency,
			Origin:    p.Name(),
			FetchedAt: now,
		},
		{
			Name:      rates.KeyItemName,
			Price:     keys.ValueHigh,
			Intent:    model.DirectionBuy,
			Currency:  keys.Currency,
			Origin:    p.Name(),
			FetchedAt: now,
		},
		{
			Name:      rates.MetalItemName,
			Price:     metal.Value,
			Intent:    model.DirectionSell,
			Currency:  metal.Currency,
			Origin:    p.Name(),
			FetchedAt: now,
		},
		{
			Name:      rates.MetalItemName,
			Price:     metal.Value,
			Intent:    model.DirectionBuy,
			Currency:  metal.Currency,
			Origin:    p.Name(),
			FetchedAt: now,
		},
	}, nil
}
