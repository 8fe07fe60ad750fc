package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/scrapyard-labs/lootscan/internal/notify"
)

// ReporterConfig holds status report settings.
type ReporterConfig struct {
	Interval     time.Duration // Report cadence (default: 1h)
	StartupDelay time.Duration // Silence after start so boot noise settles
}

// DefaultReporterConfig returns sensible defaults.
func DefaultReporterConfig() ReporterConfig {
	return ReporterConfig{
		Interval:     time.Hour,
		StartupDelay: 10 * time.Minute,
	}
}

// Reporter posts a periodic status summary to the notifier.
type Reporter struct {
	cfg      ReporterConfig
	tracker  *Tracker
	notifier notify.Notifier
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReporter creates a Reporter over the given tracker.
func NewReporter(cfg ReporterConfig, tracker *Tracker, notifier notify.Notifier, logger *slog.Logger) *Reporter {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		cfg:      cfg,
		tracker:  tracker,
		notifier: notifier,
		logger:   logger,
	}
}

// Start begins the report loop.
func (r *Reporter) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info("status reporter started",
		"interval", r.cfg.Interval,
		"startup_delay", r.cfg.StartupDelay,
	)
	return nil
}

// Stop gracefully shuts down the reporter.
func (r *Reporter) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("status reporter stopped")
	case <-ctx.Done():
		r.logger.Warn("status reporter stop timed out")
	}
	return nil
}

func (r *Reporter) run() {
	defer r.wg.Done()

	if r.cfg.StartupDelay > 0 {
		select {
		case <-r.ctx.Done():
			return
		case <-time.After(r.cfg.StartupDelay):
		}
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		r.report()
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Reporter) report() {
	s := r.tracker.Stats()

	body := fmt.Sprintf(
		"**Uptime:** %s\n"+
			"**New items:** %d\n"+
			"**Ignored items:** %d\n"+
			"**Profitable items:** %d\n"+
			"**Errors:** %d\n"+
			"**Estimated profit:** $%s\n"+
			"**Remaining funds:** $%s",
		formatUptime(s.Uptime),
		s.NewItems,
		s.IgnoredItems,
		s.ProfitableItems,
		s.Errors,
		s.EstimatedProfit.StringFixed(2),
		s.RemainingFunds.StringFixed(2),
	)

	r.notifier.Notify(r.ctx, notify.Message{
		Title:    "Scanner status",
		Body:     body,
		Severity: notify.SeverityInfo,
	})

	r.logger.Info("status reported",
		"new_items", s.NewItems,
		"profitable", s.ProfitableItems,
		"errors", s.Errors,
	)
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%d days, %d hours, %d minutes", days, hours, minutes)
	}
	return fmt.Sprintf("%d hours, %d minutes", hours, minutes)
}
