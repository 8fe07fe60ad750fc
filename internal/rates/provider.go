package rates

import (
	"context"

	"github.com/scrapyard-labs/lootscan/internal/model"
)

// Display names of the two currency items on the feed.
const (
	KeyItemName   = "Mann Co. Supply Crate Key"
	MetalItemName = "Refined Metal"
)

// UnitForName maps a currency item's display name to its pricing unit.
func UnitForName(name string) (model.Unit, bool) {
	switch name {
	case KeyItemName:
		return model.UnitKey, true
	case MetalItemName:
		return model.UnitMetal, true
	}
	return "", false
}

// Provider fetches current currency quotes from one reference source.
type Provider interface {
	// Name identifies the provider in quote records ("Backpack.TF").
	Name() string

	// Endpoint is the call-log key gating this provider's fetches.
	Endpoint() string

	// Fetch returns the provider's current quotes. Implementations carry
	// their own request timeout.
	Fetch(ctx context.Context) ([]model.CurrencyQuote, error)
}
