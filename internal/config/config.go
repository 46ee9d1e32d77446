// Package config loads server settings from SPLITLEDGER_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

const EnvPrefix = "SPLITLEDGER"

const (
	EnvPort              = "SPLITLEDGER_PORT"
	EnvLogLevel          = "SPLITLEDGER_LOG_LEVEL"
	EnvLogFormat         = "SPLITLEDGER_LOG_FORMAT"
	EnvStorageDriver     = "SPLITLEDGER_STORAGE_DRIVER"
	EnvSQLitePath        = "SPLITLEDGER_SQLITE_PATH"
	EnvPostgresURL       = "SPLITLEDGER_POSTGRES_URL"
	EnvPostgresMaxConns  = "SPLITLEDGER_POSTGRES_MAX_CONNS"
	EnvRedisURL          = "SPLITLEDGER_REDIS_URL"
	EnvJWTSecret         = "SPLITLEDGER_JWT_SECRET"
	EnvJWTTTL            = "SPLITLEDGER_JWT_TTL"
	EnvTxMaxAttempts     = "SPLITLEDGER_TX_MAX_ATTEMPTS"
	EnvTxBackoff         = "SPLITLEDGER_TX_BACKOFF"
	EnvSplitTolerance    = "SPLITLEDGER_SPLIT_TOLERANCE_CENTS"
	EnvNotifyThreshold   = "SPLITLEDGER_NOTIFY_THRESHOLD"
	EnvNotifyWindow      = "SPLITLEDGER_NOTIFY_THROTTLE_WINDOW"
	EnvNotifyTimeout     = "SPLITLEDGER_NOTIFY_TIMEOUT"
	EnvCORSAllowedOrigin = "SPLITLEDGER_CORS_ALLOWED_ORIGIN"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Ledger  LedgerConfig
	Notify  NotifyConfig
}

// Load reads the environment. Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvPostgresURL, EnvStorageDriver, DriverPostgres)
		}
	default:
		return fmt.Errorf("%s: unknown driver %q", EnvStorageDriver, c.Storage.Driver)
	}
	if c.Ledger.SplitToleranceCents < 0 {
		return fmt.Errorf("%s must not be negative", EnvSplitTolerance)
	}
	if _, err := money.Parse(c.Notify.Threshold); err != nil {
		return fmt.Errorf("%s: %w", EnvNotifyThreshold, err)
	}
	return nil
}

type AppConfig struct {
	Port              string `envconfig:"SPLITLEDGER_PORT" default:"8080"`
	LogLevel          string `envconfig:"SPLITLEDGER_LOG_LEVEL" default:"info"`
	LogFormat         string `envconfig:"SPLITLEDGER_LOG_FORMAT" default:"text"`
	CORSAllowedOrigin string `envconfig:"SPLITLEDGER_CORS_ALLOWED_ORIGIN" default:"*"`
}

// JSONLogs reports whether logs should be emitted as JSON lines.
func (a AppConfig) JSONLogs() bool {
	return strings.EqualFold(a.LogFormat, "json")
}

type StorageConfig struct {
	Driver           string `envconfig:"SPLITLEDGER_STORAGE_DRIVER" default:"sqlite"`
	SQLitePath       string `envconfig:"SPLITLEDGER_SQLITE_PATH" default:"./data/splitledger.db"`
	PostgresURL      string `envconfig:"SPLITLEDGER_POSTGRES_URL"`
	PostgresMaxConns int    `envconfig:"SPLITLEDGER_POSTGRES_MAX_CONNS" default:"10"`
}

type RedisConfig struct {
	// URL is optional; without it notifications are not throttled.
	URL string `envconfig:"SPLITLEDGER_REDIS_URL"`
}

type JWTConfig struct {
	Secret string        `envconfig:"SPLITLEDGER_JWT_SECRET" required:"true"`
	TTL    time.Duration `envconfig:"SPLITLEDGER_JWT_TTL" default:"24h"`
}

type LedgerConfig struct {
	TxMaxAttempts       int           `envconfig:"SPLITLEDGER_TX_MAX_ATTEMPTS" default:"5"`
	TxBackoff           time.Duration `envconfig:"SPLITLEDGER_TX_BACKOFF" default:"20ms"`
	SplitToleranceCents int64         `envconfig:"SPLITLEDGER_SPLIT_TOLERANCE_CENTS" default:"0"`
}

// RetryPolicy returns the transaction retry budget.
func (l LedgerConfig) RetryPolicy() storage.RetryPolicy {
	return storage.RetryPolicy{MaxAttempts: l.TxMaxAttempts, Backoff: l.TxBackoff}
}

// SplitTolerance returns the accepted split-sum drift.
func (l LedgerConfig) SplitTolerance() money.Amount {
	return money.Amount(l.SplitToleranceCents)
}

type NotifyConfig struct {
	// Threshold is a decimal string in major units. "0" disables notifications.
	Threshold      string        `envconfig:"SPLITLEDGER_NOTIFY_THRESHOLD" default:"5000.00"`
	ThrottleWindow time.Duration `envconfig:"SPLITLEDGER_NOTIFY_THROTTLE_WINDOW" default:"1h"`
	Timeout        time.Duration `envconfig:"SPLITLEDGER_NOTIFY_TIMEOUT" default:"10s"`
}

// ThresholdAmount returns Threshold in minor units. Load has validated it.
func (n NotifyConfig) ThresholdAmount() money.Amount {
	a, _ := money.Parse(n.Threshold)
	return a
}
