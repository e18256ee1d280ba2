package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	API     APIConfig     `yaml:"api"`
	Poll    PollConfig    `yaml:"poll"`
	Series  SeriesConfig  `yaml:"series"`
	Storage StorageConfig `yaml:"storage"`
	Tracker TrackerConfig `yaml:"tracker"`
	Log     LogConfig     `yaml:"log"`
	Proxy   ProxyConfig   `yaml:"proxy"`
}

// ServerConfig is the view API listener.
type ServerConfig struct {
	Addr           string   `yaml:"addr" env:"TRACKER_ADDR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"TRACKER_ALLOWED_ORIGINS" envSeparator:","`
}

// APIConfig points the fetcher at the quote API. BaseURL "static" selects the
// offline fetcher and "yahoo" the Yahoo Finance chart API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT"`
	Proxy   string        `yaml:"proxy" env:"HTTPS_PROXY"`
}

// PollConfig controls the ingest cadence. HistoryRefresh of zero fetches historical
// candles only when a symbol has no state yet.
type PollConfig struct {
	Interval       time.Duration `yaml:"interval" env:"POLL_INTERVAL"`
	HistoryRefresh time.Duration `yaml:"history_refresh" env:"POLL_HISTORY_REFRESH"`
}

// SeriesConfig bounds retained series.
type SeriesConfig struct {
	MaxPoints    int           `yaml:"max_points" env:"SERIES_MAX_POINTS"`
	Retention    time.Duration `yaml:"retention" env:"SERIES_RETENTION"`
	VolumeSource string        `yaml:"volume_source" env:"SERIES_VOLUME_SOURCE"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver        string `yaml:"driver" env:"STORAGE_DRIVER"`
	FileDir       string `yaml:"file_dir" env:"STORAGE_FILE_DIR"`
	SQLitePath    string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`
	RedisPrefix   string `yaml:"redis_prefix" env:"REDIS_PREFIX"`
	PostgresDSN   string `yaml:"postgres_dsn" env:"DATABASE_URL"`
}

type TrackerConfig struct {
	DefaultSymbols []string `yaml:"default_symbols" env:"TRACKER_DEFAULT_SYMBOLS" envSeparator:","`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// ProxyConfig configures the upstream quote proxy binary.
type ProxyConfig struct {
	Addr           string        `yaml:"addr" env:"PROXY_ADDR"`
	FinnhubBaseURL string        `yaml:"finnhub_base_url" env:"FINNHUB_BASE_URL"`
	FinnhubAPIKey  string        `yaml:"finnhub_api_key" env:"FINNHUB_API_KEY"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"PROXY_ALLOWED_ORIGINS" envSeparator:","`
	Timeout        time.Duration `yaml:"timeout" env:"PROXY_TIMEOUT"`
	HistoryDays    int           `yaml:"history_days" env:"PROXY_HISTORY_DAYS"`
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Load reads config from a YAML file, then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8090"
	}
	if c.Server.AllowedOrigins == nil {
		c.Server.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:4173"}
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8080"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 10 * time.Second
	}
	if c.Poll.Interval == 0 {
		c.Poll.Interval = 15 * time.Second
	}
	if c.Series.MaxPoints == 0 {
		c.Series.MaxPoints = 500
	}
	if c.Series.Retention == 0 {
		c.Series.Retention = 24 * time.Hour
	}
	if c.Series.VolumeSource == "" {
		c.Series.VolumeSource = "zero"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverFile
	}
	if c.Storage.FileDir == "" {
		c.Storage.FileDir = "data"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/stock_tracker.db"
	}
	if c.Storage.RedisPrefix == "" {
		c.Storage.RedisPrefix = "stocktracker:"
	}
	if c.Tracker.DefaultSymbols == nil {
		c.Tracker.DefaultSymbols = []string{"AAPL", "GOOGL"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Proxy.Addr == "" {
		c.Proxy.Addr = ":8080"
	}
	if c.Proxy.FinnhubBaseURL == "" {
		c.Proxy.FinnhubBaseURL = "https://finnhub.io/api/v1"
	}
	if c.Proxy.AllowedOrigins == nil {
		c.Proxy.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:4173"}
	}
	if c.Proxy.Timeout == 0 {
		c.Proxy.Timeout = 10 * time.Second
	}
	if c.Proxy.HistoryDays == 0 {
		c.Proxy.HistoryDays = 30
	}
}

// Validate checks the settings the tracker needs and reports every problem found.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.Poll.Interval < time.Second {
		errs = append(errs, errors.New("poll.interval must be at least 1s"))
	}
	if c.Poll.HistoryRefresh < 0 {
		errs = append(errs, errors.New("poll.history_refresh must not be negative"))
	}
	if c.Series.MaxPoints <= 0 {
		errs = append(errs, errors.New("series.max_points must be positive"))
	}
	if c.Series.Retention <= 0 {
		errs = append(errs, errors.New("series.retention must be positive"))
	}
	switch c.Series.VolumeSource {
	case "zero", "random":
	default:
		errs = append(errs, fmt.Errorf("series.volume_source %q must be zero or random", c.Series.VolumeSource))
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverSQLite:
	case DriverRedis:
		if c.Storage.RedisAddr == "" {
			errs = append(errs, errors.New("storage.redis_addr is required for the redis driver"))
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

// ValidateProxy checks the settings the quote proxy needs.
func (c *Config) ValidateProxy() error {
	var errs []error
	if c.Proxy.FinnhubAPIKey == "" {
		errs = append(errs, errors.New("proxy.finnhub_api_key (FINNHUB_API_KEY) is required"))
	}
	if c.Proxy.HistoryDays <= 0 {
		errs = append(errs, errors.New("proxy.history_days must be positive"))
	}
	return errors.Join(errs...)
}
