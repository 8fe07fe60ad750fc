// Package rates maintains the currency valuation registry: the
// process-wide table of conversion rates between the feed's pricing units
// (keys, refined metal) and the USD settlement unit, plus the refresh loop
// that keeps it current from the reference currency providers.
package rates

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/model"
)

type rateKey struct {
	unit model.Unit
	dir  model.Direction
}

type rateEntry struct {
	rate      decimal.Decimal
	updatedAt time.Time
}

// Registry is the valuation table keyed by (unit, direction). Fields are
// independently updated, last writer wins per field. A zero or unset rate is
// reported as unavailable, never handed out as a multiplier.
type Registry struct {
	mu      sync.RWMutex
	entries map[rateKey]rateEntry

	now func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[rateKey]rateEntry),
		now:     time.Now,
	}
}

// Set records a conversion rate stamped with the current time.
func (r *Registry) Set(unit model.Unit, dir model.Direction, rate decimal.Decimal) {
	r.SetAt(unit, dir, rate, r.now())
}

// SetAt records a conversion rate with an explicit observation time. Used
// when seeding from configured fallback values that carry their own date.
func (r *Registry) SetAt(unit model.Unit, dir model.Direction, rate decimal.Decimal, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[rateKey{unit, dir}] = rateEntry{rate: rate, updatedAt: at}
}

// Rate returns the conversion rate for (unit, dir). ok is false when the
// field was never written or holds a non-positive rate.
func (r *Registry) Rate(unit model.Unit, dir model.Direction) (decimal.Decimal, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, found := r.entries[rateKey{unit, dir}]
	if !found || !e.rate.IsPositive() {
		return decimal.Zero, false
	}
	return e.rate, true
}

// UpdatedAt returns when the field was last written.
func (r *Registry) UpdatedAt(unit model.Unit, dir model.Direction) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, found := r.entries[rateKey{unit, dir}]
	if !found {
		return time.Time{}, false
	}
	return e.updatedAt, true
}
