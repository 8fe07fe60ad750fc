// Package stats tracks run counters and funds, and reports them on a
// schedule.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/notify"
)

// Funds below this trigger a one-time low-balance warning.
var lowBalanceFloor = decimal.NewFromInt(5)

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Uptime          time.Duration
	NewItems        int64
	IgnoredItems    int64
	ProfitableItems int64
	Errors          int64
	EstimatedProfit decimal.Decimal
	RemainingFunds  decimal.Decimal
}

// Tracker accumulates run statistics. Safe for concurrent use.
type Tracker struct {
	mu sync.Mutex

	startTime       time.Time
	newItems        int64
	ignoredItems    int64
	profitableItems int64
	errors          int64
	estimatedProfit decimal.Decimal
	remainingFunds  decimal.Decimal
	lowWarned       bool

	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewTracker creates a Tracker with the given starting funds. notifier may
// be nil to disable the low-balance warning.
func NewTracker(initialFunds decimal.Decimal, notifier notify.Notifier, logger *slog.Logger) *Tracker {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		remainingFunds: initialFunds,
		notifier:       notifier,
		logger:         logger,
		now:            time.Now,
	}
	t.startTime = t.now()
	return t
}

// AddNewItems bumps the new-items counter.
func (t *Tracker) AddNewItems(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.newItems += int64(n)
}

// AddIgnoredItems bumps the ignored-items counter.
func (t *Tracker) AddIgnoredItems(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ignoredItems += int64(n)
}

// RecordError bumps the error counter.
func (t *Tracker) RecordError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors++
}

// RecordPurchase books a profitable find: the item's price leaves the
// available funds and the margin joins the estimated profit. Dropping under
// the low-balance floor warns the operator once.
func (t *Tracker) RecordPurchase(ctx context.Context, price, margin decimal.Decimal) {
	t.mu.Lock()
	t.profitableItems++
	t.estimatedProfit = t.estimatedProfit.Add(margin)
	t.remainingFunds = t.remainingFunds.Sub(price)
	warn := !t.lowWarned && t.remainingFunds.LessThan(lowBalanceFloor)
	if warn {
		t.lowWarned = true
	}
	remaining := t.remainingFunds
	t.mu.Unlock()

	if warn {
		t.logger.Warn("funds running low", "remaining", remaining)
		t.notifier.Notify(ctx, notify.Message{
			Title:    "Low balance",
			Body:     fmt.Sprintf("Remaining funds down to $%s.", remaining.StringFixed(2)),
			Severity: notify.SeverityWarning,
		})
	}
}

// RemainingFunds returns the funds currently available.
func (t *Tracker) RemainingFunds() decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remainingFunds
}

// Stats returns a snapshot of the counters.
func (t *Tracker) Stats() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Uptime:          t.now().Sub(t.startTime),
		NewItems:        t.newItems,
		IgnoredItems:    t.ignoredItems,
		ProfitableItems: t.profitableItems,
		Errors:          t.errors,
		EstimatedProfit: t.estimatedProfit,
		RemainingFunds:  t.remainingFunds,
	}
}
