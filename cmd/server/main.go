package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tokenforge/sale-analytics/internal/aggregator"
	"github.com/tokenforge/sale-analytics/internal/cache"
	"github.com/tokenforge/sale-analytics/internal/collector"
	"github.com/tokenforge/sale-analytics/internal/config"
	"github.com/tokenforge/sale-analytics/internal/handler"
	"github.com/tokenforge/sale-analytics/internal/middleware"
	"github.com/tokenforge/sale-analytics/internal/notify"
	"github.com/tokenforge/sale-analytics/internal/source"
	"github.com/tokenforge/sale-analytics/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected and migrated")

	// Redis cache (retry up to 30s for ExternalSecret to sync)
	var rc *cache.Cache
	for i := 0; i < 6; i++ {
		rc, err = cache.New(cfg.RedisURL, cfg.RedisPassword)
		if err == nil {
			break
		}
		logger.Warn("redis not ready, retrying...", "attempt", i+1, "error", err)
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		logger.Warn("redis unavailable, serving uncached", "error", err)
		rc = nil
	} else {
		defer rc.Close()
		logger.Info("redis connected for response cache")
	}

	// Data sources
	var sources []source.Source
	if cfg.MarketAPIURL != "" {
		sources = append(sources, source.NewMarket(cfg.MarketAPIURL, cfg.MarketTokenID))
	}
	if cfg.RPCURL != "" && cfg.SaleContract != "" {
		sources = append(sources, source.NewSaleContract(cfg.RPCURL, cfg.SaleContract, cfg.TokenDecimals))
	}
	if cfg.ExplorerURL != "" {
		sources = append(sources, source.NewExplorer(cfg.ExplorerURL, logger))
	}
	if len(sources) == 0 {
		logger.Error("no data sources configured, need at least one of MARKET_API_URL, RPC_URL+SALE_CONTRACT, EXPLORER_URL")
		os.Exit(1)
	}

	// Aggregation pipeline
	capture := aggregator.NewCollector(db, logger, sources...)
	recorder := aggregator.NewRecorder(db, logger)
	daily := aggregator.NewDailyAggregator(db, logger)
	retention := aggregator.NewRetention(db, logger, cfg.SnapshotRetention, cfg.MetricRetention)

	notifier := notify.New(cfg.TelegramToken, cfg.TelegramChatID, logger)
	daily.Notify = notifier.DailyRollup

	sched := aggregator.NewScheduler(logger, cfg.PollInterval)
	sched.Add("snapshot", cfg.SnapshotInterval, func(ctx context.Context) error {
		snap, err := capture.Capture(ctx)
		if err != nil {
			return err
		}
		recorder.RecordAll(ctx, aggregator.SnapshotSamples(snap))
		return nil
	})
	sched.Add("aggregate", cfg.AggregateInterval, daily.AggregateYesterday)
	sched.Add("cleanup", cfg.CleanupInterval, func(ctx context.Context) error {
		_, _, err := retention.Cleanup(ctx)
		return err
	})

	go sched.Run(ctx)

	// Purchase event feed
	if cfg.PurchaseFeedURL != "" {
		feed := collector.New(db, logger, cfg.PurchaseFeedURL, cfg.PurchaseAPIURL)
		go feed.Run(ctx)
	}

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(db))

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", handler.Stats(db, rc, logger))
		r.Get("/rollups", handler.Rollups(db, logger))
		r.Get("/metrics", handler.MetricRecords(db, logger))
		r.Get("/purchases/recent", handler.RecentPurchases(db, logger))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
