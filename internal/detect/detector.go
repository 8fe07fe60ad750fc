// Package detect finds newly listed inventory items between scan passes.
//
// The trade site prepends new listings to its inventory view. The detector
// remembers the id of the most recent listing it has seen (the anchor) and,
// on each pass, walks the view from the top until it reaches that anchor.
// Everything above it is new.
package detect

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
	"github.com/scrapyard-labs/lootscan/internal/rates"
)

// ErrNotSeeded is returned by Observe before the first anchor has been set.
var ErrNotSeeded = errors.New("detect: anchor not seeded")

// CurrencyObserver receives feed prices of currency items. Currency listings
// are reported here instead of appearing as new items, since their feed price
// is a live buy quote rather than a tradable find.
type CurrencyObserver interface {
	ObserveQuote(name string, price decimal.Decimal)
}

// Detector tracks the inventory anchor across scan passes.
//
// Safe for concurrent use, though the scanner drives it from a single
// goroutine in practice.
type Detector struct {
	mu       sync.Mutex
	anchor   string
	seeded   bool
	ignored  map[string]struct{}
	currency CurrencyObserver
	logger   *slog.Logger
}

// New creates a Detector. Items whose name appears in ignoredNames are
// silently dropped from scan results. currency may be nil, in which case
// currency listings are dropped as well.
func New(ignoredNames []string, currency CurrencyObserver, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	ignored := make(map[string]struct{}, len(ignoredNames))
	for _, n := range ignoredNames {
		ignored[n] = struct{}{}
	}
	return &Detector{
		ignored:  ignored,
		currency: currency,
		logger:   logger,
	}
}

// Seed sets the anchor without producing a result. Used on startup so the
// first real pass only reports items listed after the process came up.
func (d *Detector) Seed(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.anchor = id
	d.seeded = true
}

// Seeded reports whether an anchor has been set.
func (d *Detector) Seeded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seeded
}

// Observe compares view against the stored anchor and returns the items
// listed since the previous pass.
//
// A nil result means nothing changed. When the anchor is not present in the
// view at all (it sold or was delisted since the last pass), the entire view
// is treated as new. On any non-error return the anchor advances to the id
// of the first item in the view, so observing the same view twice yields a
// result at most once.
//
// An empty view is a transient source glitch and yields no change; the
// anchor is left where it was.
func (d *Detector) Observe(view []model.InventoryItem) (*model.ScanResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.seeded {
		return nil, ErrNotSeeded
	}
	if len(view) == 0 {
		d.logger.Warn("empty inventory view, keeping anchor")
		return nil, nil
	}
	if view[0].ID == d.anchor {
		return nil, nil
	}

	fresh := view
	for i, item := range view {
		if item.ID == d.anchor {
			fresh = view[:i]
			break
		}
	}

	result := &model.ScanResult{
		RepeatedNames: make(map[string]struct{}),
	}
	seen := make(map[string]struct{}, len(fresh))
	for _, item := range fresh {
		if _, ok := d.ignored[item.Name]; ok {
			d.logger.Debug("ignoring listed item", "name", item.Name)
			continue
		}
		if _, ok := rates.UnitForName(item.Name); ok {
			if d.currency != nil {
				d.currency.ObserveQuote(item.Name, item.Price)
			}
			continue
		}
		if _, dup := seen[item.Name]; dup {
			result.RepeatedNames[item.Name] = struct{}{}
			continue
		}
		seen[item.Name] = struct{}{}
		result.NewItems = append(result.NewItems, item)
	}

	// A batch of only ignored or currency entries is not a change; leaving
	// the anchor alone keeps the next pass cheap and refreshes currency
	// quotes until a real item shows up.
	if len(result.NewItems) == 0 {
		return nil, nil
	}

	d.anchor = view[0].ID
	return result, nil
}
