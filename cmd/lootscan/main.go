package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/api"
	"github.com/scrapyard-labs/lootscan/internal/config"
	"github.com/scrapyard-labs/lootscan/internal/database"
	"github.com/scrapyard-labs/lootscan/internal/detect"
	"github.com/scrapyard-labs/lootscan/internal/evaluate"
	"github.com/scrapyard-labs/lootscan/internal/feed"
	"github.com/scrapyard-labs/lootscan/internal/normalize"
	"github.com/scrapyard-labs/lootscan/internal/notify"
	"github.com/scrapyard-labs/lootscan/internal/ratelimit"
	"github.com/scrapyard-labs/lootscan/internal/rates"
	"github.com/scrapyard-labs/lootscan/internal/scanner"
	"github.com/scrapyard-labs/lootscan/internal/schema"
	"github.com/scrapyard-labs/lootscan/internal/snapshot"
	"github.com/scrapyard-labs/lootscan/internal/stats"
	"github.com/scrapyard-labs/lootscan/internal/store"
	"github.com/scrapyard-labs/lootscan/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/lootscan.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting lootscan",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"feed", cfg.Feed.BaseURL,
		"game", cfg.Feed.Game,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Postgres.Host,
		"port", cfg.Database.Postgres.Port,
		"database", cfg.Database.Postgres.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database.Postgres)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	pg := store.NewPostgres(pool, logger)
	if err := pg.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	logger.Info("database connected")

	// Snapshot cache backend
	var snapStore store.SnapshotStore
	switch cfg.Store.SnapshotBackend {
	case "redis":
		rs, err := store.NewRedis(ctx,
			cfg.Store.Redis.Addr,
			cfg.Store.Redis.Password,
			cfg.Store.Redis.DB,
			cfg.Snapshot.CacheDuration,
		)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rs.Close()
		snapStore = rs
	case "memory":
		snapStore = store.NewMemory()
	default:
		snapStore = pg
	}
	logger.Info("snapshot store ready", "backend", cfg.Store.SnapshotBackend)

	// Notifier
	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhook(
			cfg.Notify.WebhookURL,
			&http.Client{Timeout: cfg.Notify.Timeout},
			logger,
		)
	}

	// Currency registry, seeded from the configured fallback rates
	registry := rates.NewRegistry()
	if cfg.Currency.FallbackQuotedAt != "" {
		fb, err := rates.ParseFallback(
			cfg.Currency.FallbackMetalSellUSD,
			cfg.Currency.FallbackKeySellUSD,
			cfg.Currency.FallbackQuotedAt,
		)
		if err != nil {
			logger.Error("invalid fallback rates", "error", err)
			os.Exit(1)
		}
		fb.Seed(ctx, registry, notifier, logger)
		logger.Info("fallback rates seeded", "quoted_at", cfg.Currency.FallbackQuotedAt)
	}

	// Price-discovery API client and currency providers
	apiClient := api.NewClient(
		cfg.PriceAPI.BaseURL,
		cfg.PriceAPI.Token,
		cfg.PriceAPI.APIKey,
		api.WithLogger(logger),
		api.WithTimeout(cfg.PriceAPI.Timeout),
		api.WithRetries(cfg.PriceAPI.MaxRetries, cfg.PriceAPI.RetryBackoff),
	)

	providers := []rates.Provider{
		api.NewCurrencyProvider(apiClient),
		api.NewPricingBotProvider(cfg.Currency.PricingBotURL, nil, logger),
	}
	refresher := rates.NewRefresher(
		rates.RefresherConfig{
			Interval: cfg.Currency.RefreshInterval,
			CallGate: cfg.Currency.CallGate,
			Timeout:  cfg.PriceAPI.Timeout,
		},
		providers, registry, pg, pg, logger,
	)

	// Item schema tables
	table := schema.NewTable()
	loaderCfg := schema.DefaultLoaderConfig()
	loaderCfg.RefreshInterval = cfg.Schema.RefreshInterval
	loaderCfg.Timeout = cfg.Schema.Timeout
	schemaClient := api.NewSchemaClient(cfg.Schema.BaseURL, nil, logger)
	loader := schema.NewLoader(loaderCfg, table, schemaClient, pg, pg, logger)

	// Snapshot pipeline
	limiter := ratelimit.New(cfg.Snapshot.RateWindow, cfg.Snapshot.RateQuota)
	norm := normalize.New(registry, table, logger)
	cache := snapshot.NewCache(
		snapshot.CacheConfig{TTL: cfg.Snapshot.CacheDuration},
		snapStore, apiClient, norm, limiter, logger,
	)

	// Stats, evaluator, scanner
	tracker := stats.NewTracker(decimal.NewFromFloat(cfg.Evaluator.InitialFunds), notifier, logger)
	evaluator := evaluate.New(
		evaluate.Config{
			Threshold:    decimal.NewFromFloat(cfg.Evaluator.Threshold),
			TopListings:  cfg.Evaluator.TopListings,
			MaxItemPrice: decimal.NewFromFloat(cfg.Evaluator.MaxItemPrice),
		},
		cache, table, tracker, logger,
	)

	feedClient, err := feed.NewClient(
		cfg.Feed.BaseURL,
		cfg.Feed.Game,
		&http.Client{Timeout: cfg.Feed.Timeout},
		logger,
	)
	if err != nil {
		logger.Error("failed to create feed client", "error", err)
		os.Exit(1)
	}

	detector := detect.New(
		cfg.Scanner.IgnoredItems,
		rates.NewFeedObserver(registry, logger),
		logger,
	)
	scan := scanner.New(
		scanner.Config{
			Interval:     cfg.Scanner.Interval,
			MaxRetries:   cfg.Scanner.MaxRetries,
			RetryBackoff: cfg.Scanner.RetryBackoff,
		},
		feed.NewSource(feedClient), detector, evaluator, pg, tracker, notifier, logger,
	)

	reporter := stats.NewReporter(
		stats.ReporterConfig{
			Interval:     cfg.Status.Interval,
			StartupDelay: cfg.Status.StartupDelay,
		},
		tracker, notifier, logger,
	)

	// Start components
	components := []struct {
		name string
		c    interface {
			Start(context.Context) error
			Stop(context.Context) error
		}
	}{
		{"currency refresher", refresher},
		{"schema loader", loader},
		{"status reporter", reporter},
		{"scanner", scan},
	}

	started := make([]int, 0, len(components))
	for i, comp := range components {
		if err := comp.c.Start(ctx); err != nil {
			logger.Error("failed to start component", "component", comp.name, "error", err)
			cancel()
			shutdown(components, started, logger)
			os.Exit(1)
		}
		started = append(started, i)
	}

	notifier.Notify(ctx, notify.Message{
		Title:    "Scanner online",
		Body:     "lootscan " + version.String() + " is watching the feed.",
		Severity: notify.SeverityInfo,
	})

	logger.Info("lootscan running", "instance_id", cfg.Instance.ID)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")
	shutdown(components, started, logger)
	logger.Info("lootscan stopped")
}

func shutdown(
	components []struct {
		name string
		c    interface {
			Start(context.Context) error
			Stop(context.Context) error
		}
	},
	started []int,
	logger *slog.Logger,
) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop in reverse start order.
	for i := len(started) - 1; i >= 0; i-- {
		comp := components[started[i]]
		if err := comp.c.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop component", "component", comp.name, "error", err)
		}
	}
}
