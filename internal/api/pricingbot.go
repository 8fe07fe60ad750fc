package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
	"github.com/scrapyard-labs/lootscan/internal/rates"
)

// keySKU identifies the premium currency item on the pricing bot.
const keySKU = "5021;6"

type pricingBotItem struct {
	Success bool   `json:"success"`
	Name    string `json:"name"`
	SKU     string `json:"sku"`
	Buy     struct {
		Keys  decimal.Decimal `json:"keys"`
		Metal decimal.Decimal `json:"metal"`
	} `json:"buy"`
	Sell struct {
		Keys  decimal.Decimal `json:"keys"`
		Metal decimal.Decimal `json:"metal"`
	} `json:"sell"`
}

// PricingBotProvider serves key quotes from the community pricing bot. Its
// quotes are metal-denominated, so the registry derives the USD rate through
// the current metal rate.
type PricingBotProvider struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewPricingBotProvider creates a provider against the pricing bot host.
// httpClient and logger may be nil.
func NewPricingBotProvider(baseURL string, httpClient *http.Client, logger *slog.Logger) *PricingBotProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PricingBotProvider{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (p *PricingBotProvider) Name() string { return "Autobot.TF" }

func (p *PricingBotProvider) Endpoint() string { return "autobot-currencies" }

// Fetch returns buy and sell key quotes in metal.
func (p *PricingBotProvider) Fetch(ctx context.Context) ([]model.CurrencyQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/json/items/"+keySKU, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	var item pricingBotItem
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("unmarshal key quote: %w", err)
	}
	if !item.Success {
		return nil, fmt.Errorf("get key quote: upstream reported failure for %s", keySKU)
	}

	now := time.Now()
	return []model.CurrencyQuote{
		{
			Name:      rates.KeyItemName,
			Price:     item.Sell.Metal,
			Intent:    model.DirectionSell,
			Currency:  "metal",
			Origin:    p.Name(),
			FetchedAt: now,
		},
		{
			Name:      rates.KeyItemName,
			Price:     item.Buy.Metal,
			Intent:    model.DirectionBuy,
			Currency:  "metal",
			Origin:    p.Name(),
			FetchedAt: now,
		},
	}, nil
}
