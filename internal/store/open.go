package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"StockTracker/internal/config"
)

// Open builds the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverFile, "":
		return NewFileStore(cfg.FileDir)
	case config.DriverSQLite:
		return NewSQLiteStore(cfg.SQLitePath, log)
	case config.DriverRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// OpenOrMemory opens the configured backend and falls back to memory on failure.
func OpenOrMemory(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) Store {
	s, err := Open(ctx, cfg, log)
	if err != nil {
		log.Warn("init store failed, using memory", zap.String("driver", cfg.Driver), zap.Error(err))
		return NewMemoryStore()
	}
	log.Info("store ready", zap.String("driver", s.Name()))
	return s
}
