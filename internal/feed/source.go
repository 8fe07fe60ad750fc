package feed

import (
	"context"
	"sort"

	"github.com/scrapyard-labs/lootscan/internal/model"
)

// Source synthesizes an ordered inventory view from the price list. The feed
// has no listing ids, so the item name doubles as the id; the view is sorted
// by price descending with names breaking ties, matching how the trade site
// presents its inventory.
type Source struct {
	client *Client
}

// NewSource wraps a feed client.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// View refetches the price list and returns the tradeable items as an
// ordered view.
func (s *Source) View(ctx context.Context) ([]model.InventoryItem, error) {
	items, err := s.client.GetItems(ctx)
	if err != nil {
		return nil, err
	}

	view := make([]model.InventoryItem, 0, len(items))
	for _, it := range items {
		if !it.Tradeable() {
			continue
		}
		view = append(view, model.InventoryItem{
			ID:    it.Name,
			Name:  it.Name,
			Price: it.PriceUSD(),
		})
	}

	sort.SliceStable(view, func(i, j int) bool {
		if !view[i].Price.Equal(view[j].Price) {
			return view[i].Price.GreaterThan(view[j].Price)
		}
		return view[i].Name < view[j].Name
	})

	return view, nil
}
