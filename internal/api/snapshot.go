package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
)

// Sentinel errors for the snapshot endpoint. ErrNotFound means the item has
// no classifieds presence; ErrRateLimited means the upstream refused the call
// and the caller should back off rather than retry immediately.
var (
	ErrNotFound    = errors.New("api: item not found")
	ErrRateLimited = errors.New("api: rate limited")
)

type snapshotResponse struct {
	Listings  []snapshotListing `json:"listings"`
	AppID     int               `json:"appid"`
	SKU       string            `json:"sku"`
	CreatedAt int64             `json:"createdAt"`
}

type snapshotListing struct {
	SteamID    string          `json:"steamid"`
	Intent     string          `json:"intent"`
	Buyout     *int            `json:"buyout"` // Absent means buyout-only
	Price      decimal.Decimal `json:"price"`
	Currencies struct {
		Keys  decimal.Decimal `json:"keys"`
		Metal decimal.Decimal `json:"metal"`
	} `json:"currencies"`
	Timestamp int64 `json:"timestamp"`
	Bump      int64 `json:"bump"`
	Item      struct {
		Attributes []snapshotAttribute `json:"attributes"`
	} `json:"item"`
}

// snapshotAttribute tolerates float_value arriving as either a JSON number
// or a quoted string, which the upstream mixes freely.
type snapshotAttribute struct {
	Defindex   int       `json:"defindex"`
	FloatValue flexFloat `json:"float_value"`
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse float_value %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

// GetSnapshot fetches the current classifieds listings for a canonical item
// name. It performs exactly one upstream call: pacing is the caller's
// responsibility, so a 429 surfaces as ErrRateLimited instead of being
// retried here.
func (c *Client) GetSnapshot(ctx context.Context, sku string) ([]model.RawListing, error) {
	query := url.Values{}
	query.Set("token", c.token)
	query.Set("sku", sku)
	query.Set("appid", "440")

	body, err := c.doRequest(ctx, http.MethodGet, "/classifieds/listings/snapshot", query)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusNotFound:
				return nil, ErrNotFound
			case http.StatusTooManyRequests:
				return nil, ErrRateLimited
			}
		}
		return nil, fmt.Errorf("get snapshot %s: %w", sku, err)
	}

	var resp snapshotResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", sku, err)
	}

	listings := make([]model.RawListing, 0, len(resp.Listings))
	for _, l := range resp.Listings {
		raw := model.RawListing{
			SteamID:    l.SteamID,
			Intent:     l.Intent,
			BuyoutOnly: l.Buyout == nil || *l.Buyout != 0,
			Price:      l.Price,
			Keys:       l.Currencies.Keys,
			Metal:      l.Currencies.Metal,
			ListedAt:   l.Timestamp,
			BumpedAt:   l.Bump,
		}
		if raw.BumpedAt == 0 {
			raw.BumpedAt = raw.ListedAt
		}
		for _, a := range l.Item.Attributes {
			raw.Attributes = append(raw.Attributes, model.ItemAttribute{
				Defindex:   a.Defindex,
				FloatValue: float64(a.FloatValue),
			})
		}
		listings = append(listings, raw)
	}

	return listings, nil
}
