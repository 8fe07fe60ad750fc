// Package feed implements the trade-site price feed client and the inventory
// source built on top of it.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ErrSessionClosed means the trade site refused the session outright. There
// is no point retrying the pass; the operator has to intervene.
var ErrSessionClosed = errors.New("feed: session closed")

// Price list endpoints per game.
var gameEndpoints = map[string]string{
	"TF2":    "/fullpriceTF2.json",
	"CSGO":   "/fullprice.json",
	"Dota 2": "/fullpriceDota.json",
	"Rust":   "/fullpriceRust.json",
}

// Item is one entry of the full price list. Price arrives in cents.
type Item struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Have  int    `json:"have"`
	Max   int    `json:"max"`
	Rate  int64  `json:"rate"`
}

// PriceUSD returns the item's feed price in USD.
func (i Item) PriceUSD() decimal.Decimal {
	return decimal.New(i.Price, -2)
}

// Tradeable reports whether the site will actually trade this item: it must
// hold stock and have room to accept more.
func (i Item) Tradeable() bool {
	return i.Have > 0 && i.Max > 0 && i.Have != i.Max
}

// Client fetches the full price list.
type Client struct {
	baseURL    string
	game       string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed client for one game. httpClient and logger may
// be nil.
func NewClient(baseURL, game string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if _, ok := gameEndpoints[game]; !ok {
		return nil, fmt.Errorf("unknown feed game %q", game)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		game:       game,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// GetItems fetches the current full price list.
func (c *Client) GetItems(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+gameEndpoints[c.game], nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch price list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrSessionClosed
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch price list: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read price list: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("unmarshal price list: %w", err)
	}

	c.logger.Debug("fetched price list", "game", c.game, "items", len(items))
	return items, nil
}
