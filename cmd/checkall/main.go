// Command checkall sweeps the entire trade-site feed once, evaluating every
// tradeable listing against reference prices, and prints the profitable
// finds. It is a manual audit tool; the scanner daemon is cmd/lootscan.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scrapyard-labs/lootscan/internal/api"
	"github.com/scrapyard-labs/lootscan/internal/config"
	"github.com/scrapyard-labs/lootscan/internal/database"
	"github.com/scrapyard-labs/lootscan/internal/evaluate"
	"github.com/scrapyard-labs/lootscan/internal/feed"
	"github.com/scrapyard-labs/lootscan/internal/model"
	"github.com/scrapyard-labs/lootscan/internal/normalize"
	"github.com/scrapyard-labs/lootscan/internal/notify"
	"github.com/scrapyard-labs/lootscan/internal/ratelimit"
	"github.com/scrapyard-labs/lootscan/internal/rates"
	"github.com/scrapyard-labs/lootscan/internal/schema"
	"github.com/scrapyard-labs/lootscan/internal/snapshot"
	"github.com/scrapyard-labs/lootscan/internal/stats"
	"github.com/scrapyard-labs/lootscan/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/lootscan.local.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("interrupted, finishing up")
		cancel()
	}()

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
		fb.Seed(ctx, registry, notify.Nop{}, logger)
	}

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

	table := schema.NewTable()
	loaderCfg := schema.DefaultLoaderConfig()
	loaderCfg.RefreshInterval = cfg.Schema.RefreshInterval
	loaderCfg.Timeout = cfg.Schema.Timeout
	loader := schema.NewLoader(loaderCfg, table,
		api.NewSchemaClient(cfg.Schema.BaseURL, nil, logger), pg, pg, logger)

	limiter := ratelimit.New(cfg.Snapshot.RateWindow, cfg.Snapshot.RateQuota)
	cache := snapshot.NewCache(
		snapshot.CacheConfig{TTL: cfg.Snapshot.CacheDuration},
		snapStore, apiClient, normalize.New(registry, table, logger), limiter, logger,
	)

	tracker := stats.NewTracker(decimal.NewFromFloat(cfg.Evaluator.InitialFunds), notify.Nop{}, logger)
	evaluator := evaluate.New(
		evaluate.Config{
			Threshold:    decimal.NewFromFloat(cfg.Evaluator.Threshold),
			TopListings:  cfg.Evaluator.TopListings,
			MaxItemPrice: decimal.NewFromFloat(cfg.Evaluator.MaxItemPrice),
		},
		cache, table, tracker, logger,
	)

	if err := refresher.Start(ctx); err != nil {
		logger.Error("failed to start refresher", "error", err)
		os.Exit(1)
	}
	if err := loader.Start(ctx); err != nil {
		logger.Error("failed to start schema loader", "error", err)
		os.Exit(1)
	}

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

	items, err := feedClient.GetItems(ctx)
	if err != nil {
		logger.Error("failed to fetch feed", "error", err)
		os.Exit(1)
	}

	var checked, skipped, profitable int
	start := time.Now()

	for _, it := range items {
		if ctx.Err() != nil {
			break
		}
		if !it.Tradeable() {
			continue
		}
		// Unusual listings on the feed carry no effect marker, so their
		// canonical names cannot be resolved. The scanner has the same gap.
		if strings.HasPrefix(it.Name, "Unusual ") {
			skipped++
			continue
		}

		// Pace the sweep against the snapshot rate window instead of
		// burning the quota and skipping the rest of the feed.
		for limiter.Remaining() == 0 && ctx.Err() == nil {
			time.Sleep(time.Second)
		}

		decision, err := evaluator.Evaluate(ctx, model.InventoryItem{
			ID:    it.Name,
			Name:  it.Name,
			Price: it.PriceUSD(),
		})
		checked++
		if err != nil {
			logger.Warn("evaluation failed", "item", it.Name, "error", err)
			continue
		}
		if decision == nil {
			skipped++
			continue
		}
		if decision.Profitable {
			profitable++
			logger.Info("profitable item",
				"item", decision.ItemName,
				"price", decision.SourcePrice,
				"reference", decision.ReferencePrice,
				"margin", decision.Margin(),
			)
		}
	}

	logger.Info("sweep complete",
		"checked", checked,
		"skipped", skipped,
		"profitable", profitable,
		"elapsed", time.Since(start).Round(time.Second),
	)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := loader.Stop(stopCtx); err != nil {
		logger.Error("failed to stop schema loader", "error", err)
	}
	if err := refresher.Stop(stopCtx); err != nil {
		logger.Error("failed to stop refresher", "error", err)
	}
}
