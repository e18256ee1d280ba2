package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"StockTracker/internal/config"
	"StockTracker/internal/logger"
	"StockTracker/internal/proxy"
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
	if err := cfg.ValidateProxy(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	p := proxy.New(cfg.Proxy, cfg.API.Proxy, zl)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		zl.Info("shutdown signal received, stopping")
	case err := <-errCh:
		if err != nil {
			zl.Fatal("quote proxy stopped", zap.Error(err))
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		zl.Warn("quote proxy shutdown", zap.Error(err))
	}
	zl.Info("quote proxy stopped")
}
