// Package scanner drives the scan loop: fetch the inventory view, detect
// newly listed items, evaluate each one and report profitable finds.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scrapyard-labs/lootscan/internal/detect"
	"github.com/scrapyard-labs/lootscan/internal/feed"
	"github.com/scrapyard-labs/lootscan/internal/model"
	"github.com/scrapyard-labs/lootscan/internal/notify"
	"github.com/scrapyard-labs/lootscan/internal/stats"
)

// Source produces the current ordered inventory view, newest first.
type Source interface {
	View(ctx context.Context) ([]model.InventoryItem, error)
}

// Evaluator prices one item. A nil decision means the item was skipped.
type Evaluator interface {
	Evaluate(ctx context.Context, item model.InventoryItem) (*model.Decision, error)
}

// ErrorSink persists caught per-item failures.
type ErrorSink interface {
	InsertErrorRecord(ctx context.Context, rec model.ErrorRecord) error
}

// Config holds scan loop settings.
type Config struct {
	Interval     time.Duration // Pause between passes (default: 5s)
	MaxRetries   int           // View-fetch retries per pass
	RetryBackoff time.Duration // Base backoff between retries
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     5 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 2 * time.Second,
	}
}

// Scanner runs the scan loop. The first successful pass only seeds the
// change detector; items listed before startup are never evaluated.
type Scanner struct {
	cfg       Config
	source    Source
	detector  *detect.Detector
	evaluator Evaluator
	errs      ErrorSink
	tracker   *stats.Tracker
	notifier  notify.Notifier
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scanner. errs and notifier may be nil.
func New(
	cfg Config,
	source Source,
	detector *detect.Detector,
	evaluator Evaluator,
	errs ErrorSink,
	tracker *stats.Tracker,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Scanner {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 2 * time.Second
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		cfg:       cfg,
		source:    source,
		detector:  detector,
		evaluator: evaluator,
		errs:      errs,
		tracker:   tracker,
		notifier:  notifier,
		logger:    logger,
	}
}

// Start begins the scan loop.
func (s *Scanner) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("scanner started", "interval", s.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the scanner.
func (s *Scanner) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scanner stopped")
	case <-ctx.Done():
		s.logger.Warn("scanner stop timed out")
	}
	return nil
}

func (s *Scanner) run() {
	defer s.wg.Done()

	for {
		if err := s.pass(s.ctx); err != nil {
			if errors.Is(err, feed.ErrSessionClosed) {
				s.logger.Error("trade-site session closed, stopping scanner")
				s.notifier.Notify(s.ctx, notify.Message{
					Title:    "Scanner halted",
					Body:     "The trade site closed the session. Manual restart required.",
					Severity: notify.SeverityError,
				})
				return
			}
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Error("scan pass failed", "err", err)
			s.tracker.RecordError()
		}

		select {
		case <-s.ctx.Done():
			return
		case <-time.After(s.cfg.Interval):
		}
	}
}

// pass runs one scan cycle. The detector is only consulted after a
// successful view fetch, so a failed pass never moves the anchor.
func (s *Scanner) pass(ctx context.Context) error {
	view, err := s.fetchView(ctx)
	if err != nil {
		return err
	}

	if !s.detector.Seeded() {
		if len(view) > 0 {
			s.detector.Seed(view[0].ID)
			s.logger.Info("anchor seeded", "id", view[0].ID, "view", len(view))
		}
		return nil
	}

	result, err := s.detector.Observe(view)
	if err != nil {
		return fmt.Errorf("observe view: %w", err)
	}
	if result == nil {
		return nil
	}

	s.tracker.AddNewItems(len(result.NewItems))
	s.logger.Info("new items listed",
		"count", len(result.NewItems),
		"repeated", len(result.RepeatedNames),
	)

	for _, item := range result.NewItems {
		s.evaluateItem(ctx, item, result)
	}
	return nil
}

// fetchView pulls the current view with bounded retries. Session loss is
// never retried.
func (s *Scanner) fetchView(ctx context.Context) ([]model.InventoryItem, error) {
	backoff := s.cfg.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Debug("retrying view fetch", "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		view, err := s.source.View(ctx)
		if err == nil {
			return view, nil
		}
		if errors.Is(err, feed.ErrSessionClosed) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("fetch view: %w", lastErr)
}

// evaluateItem prices one item inside an error boundary: a failure is
// recorded and counted, and the pass moves on to the next item.
func (s *Scanner) evaluateItem(ctx context.Context, item model.InventoryItem, result *model.ScanResult) {
	decision, err := s.evaluator.Evaluate(ctx, item)
	if err != nil {
		s.tracker.RecordError()
		s.logger.Error("evaluate failed", "name", item.Name, "err", err)
		s.persistError(ctx, item, err)
		return
	}
	if decision == nil {
		s.tracker.AddIgnoredItems(1)
		return
	}
	if !decision.Profitable {
		return
	}

	s.tracker.RecordPurchase(ctx, decision.SourcePrice, decision.Margin())

	body := fmt.Sprintf("**%s**\nFeed price: $%s\nReference: $%s\nMargin: $%s",
		decision.ItemName,
		decision.SourcePrice.StringFixed(2),
		decision.ReferencePrice.StringFixed(2),
		decision.Margin().StringFixed(2),
	)
	if result.Repeated(item.Name) {
		body += "\nMultiple copies listed this pass."
	}
	s.notifier.Notify(ctx, notify.Message{
		Title:    "Profitable item found",
		Body:     body,
		Severity: notify.SeveritySuccess,
	})

	s.logger.Info("profitable item",
		"name", decision.ItemName,
		"price", decision.SourcePrice,
		"reference", decision.ReferencePrice,
	)
}

func (s *Scanner) persistError(ctx context.Context, item model.InventoryItem, evalErr error) {
	if s.errs == nil {
		return
	}
	rec := model.ErrorRecord{
		ID:        uuid.New(),
		ItemName:  item.Name,
		ItemPrice: item.Price,
		Context:   "evaluate",
		Message:   evalErr.Error(),
		CreatedAt: time.Now(),
	}
	if err := s.errs.InsertErrorRecord(ctx, rec); err != nil {
		s.logger.Error("persist error record failed", "name", item.Name, "err", err)
	}
}
