package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Currency Types
// -----------------------------------------------------------------------------

// Unit is a pricing unit used by the feed and the classifieds site.
type Unit string

const (
	// UnitKey is the premium currency item ("Mann Co. Supply Crate Key").
	UnitKey Unit = "key"
	// UnitMetal is the common currency item ("Refined Metal").
	UnitMetal Unit = "metal"
)

// Direction distinguishes buy-side and sell-side quotes for a unit.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// CurrencyQuote is one observed price for a currency unit, persisted for
// audit and used as a fallback when a provider is unreachable.
type CurrencyQuote struct {
	Name      string          // Currency item display name
	Price     decimal.Decimal // Quoted price
	Intent    Direction       // buy or sell side
	Diff      decimal.Decimal // Change against the previous quote
	Currency  string          // Unit the price is denominated in ("metal", "usd")
	Origin    string          // Provider that produced the quote
	FetchedAt time.Time       // Observation time
}

// -----------------------------------------------------------------------------
// Inventory Types
// -----------------------------------------------------------------------------

// InventoryItem is one entry of the trade-site inventory view.
//
// Identity is ID, which the source assigns and which is unique within a
// single scan pass. Name is not unique: multiple copies of the same item may
// appear in one view.
type InventoryItem struct {
	ID          string          // Source-assigned id, unique per scan
	Name        string          // Display name
	Price       decimal.Decimal // Feed price in USD
	Attachments []string        // Ordered attachment labels (effects, parts)
}

// ScanResult is the outcome of a change-detection pass that found new items.
type ScanResult struct {
	// NewItems holds the first occurrence of each newly listed name, in
	// display order.
	NewItems []InventoryItem

	// RepeatedNames holds names that appeared more than once among the new
	// items of this pass.
	RepeatedNames map[string]struct{}
}

// Repeated reports whether name occurred more than once in this pass.
func (r *ScanResult) Repeated(name string) bool {
	_, ok := r.RepeatedNames[name]
	return ok
}

// -----------------------------------------------------------------------------
// Listing Types
// -----------------------------------------------------------------------------

// ItemAttribute is one attribute attached to a listed item.
type ItemAttribute struct {
	Defindex   int
	FloatValue float64
}

// RawListing is one classifieds listing as returned by the price-discovery
// API, before filtering and valuation.
type RawListing struct {
	SteamID    string
	Intent     string          // "buy" or "sell"
	BuyoutOnly bool            // Listing accepts buyout only (no negotiation)
	Price      decimal.Decimal // Primary price, metal-denominated; zero if absent
	Keys       decimal.Decimal // Mixed-currency component: premium units
	Metal      decimal.Decimal // Mixed-currency component: common units
	Attributes []ItemAttribute
	ListedAt   int64 // Unix seconds
	BumpedAt   int64 // Unix seconds
}

// NormalizedListing is the cached projection of a listing that survived
// filtering, with its price converted into the settlement unit.
type NormalizedListing struct {
	Price           decimal.Decimal `json:"price"`            // Metal-denominated price
	SettlementValue decimal.Decimal `json:"settlement_value"` // USD value
	IsBuyIntent     bool            `json:"is_buy_intent"`
	IsBuyoutOnly    bool            `json:"is_buyout_only"`
}

// CacheEntry is one cached snapshot: all normalized reference listings for a
// canonical item name and the time they were fetched. Expiry is evaluated
// lazily at read time against FetchedAt.
type CacheEntry struct {
	Key       string              `json:"key"`
	Listings  []NormalizedListing `json:"listings"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// Fresh reports whether the entry is within ttl of its fetch time.
func (e *CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// -----------------------------------------------------------------------------
// Decision Types
// -----------------------------------------------------------------------------

// Decision is the outcome of evaluating one inventory item against its
// reference listings. Produced per evaluation and handed to the notification
// sink; not persisted beyond the audit trail.
type Decision struct {
	ID             uuid.UUID
	ItemID         string
	ItemName       string          // Canonical name used for the lookup
	SourcePrice    decimal.Decimal // Feed price in USD
	ReferencePrice decimal.Decimal // Mean settlement value of the top listings
	Profitable     bool
	EvaluatedAt    time.Time
}

// Margin returns the gap between the reference price and the source price.
func (d *Decision) Margin() decimal.Decimal {
	return d.ReferencePrice.Sub(d.SourcePrice)
}

// ErrorRecord is the persisted audit entry for a caught per-item failure,
// with enough context for offline diagnosis.
type ErrorRecord struct {
	ID        uuid.UUID
	ItemName  string
	ItemPrice decimal.Decimal
	Context   string // Free-form context (attempted snapshot, stage)
	Message   string // Error message
	CreatedAt time.Time
}
