package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"StockTracker/internal/candle"
	"StockTracker/internal/collector"
	"StockTracker/internal/config"
	"StockTracker/internal/logger"
	"StockTracker/internal/retention"
	"StockTracker/internal/scheduler"
	"StockTracker/internal/server"
	"StockTracker/internal/store"
	"StockTracker/internal/tracker"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zl.Info("stock tracker starting", zap.String("config", cfgPath))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := store.OpenOrMemory(ctx, cfg.Storage, zl)
	defer st.Close()

	var fetcher collector.Fetcher
	switch cfg.API.BaseURL {
	case "static":
		fetcher = collector.NewStaticFetcher(map[string]float64{"AAPL": 150, "GOOGL": 2800, "MSFT": 410, "TSLA": 240})
	case "yahoo":
		fetcher = collector.NewYahooFetcher(cfg.API.Timeout, cfg.API.Proxy)
	default:
		fetcher = collector.NewAPIFetcher(cfg.API.BaseURL, cfg.API.Timeout, cfg.API.Proxy)
	}
	zl.Info("data source ready", zap.String("fetcher", fetcher.Name()), zap.String("base_url", cfg.API.BaseURL))

	tr := tracker.New(collector.NewCollector(fetcher, zl), st, tracker.Options{
		DefaultSymbols: cfg.Tracker.DefaultSymbols,
		HistoryRefresh: cfg.Poll.HistoryRefresh,
		Trimmer:        retention.Trimmer{MaxPoints: cfg.Series.MaxPoints, Window: cfg.Series.Retention},
		Volume:         candle.NewVolumeSource(cfg.Series.VolumeSource, time.Now().UnixNano()),
	}, zl)
	tr.Load(ctx)

	sched := scheduler.NewScheduler(func(ctx context.Context) { tr.Tick(ctx) }, cfg.Poll.Interval, zl)
	if err := sched.Start(); err != nil {
		zl.Fatal("start scheduler", zap.Error(err))
	}

	srv := server.New(cfg.Server, tr, sched.Trigger, zl)
	go func() {
		if err := srv.Run(ctx); err != nil {
			zl.Error("api server stopped", zap.Error(err))
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		zl.Info("shutdown signal received, stopping")
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("api server shutdown", zap.Error(err))
	}
	sched.Stop()
	cancel()
	zl.Info("stock tracker stopped")
}
