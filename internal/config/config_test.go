package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/money"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvJWTSecret, "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.False(t, cfg.App.JSONLogs())
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 5, cfg.Ledger.RetryPolicy().MaxAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.Ledger.RetryPolicy().Backoff)
	assert.Equal(t, money.Zero, cfg.Ledger.SplitTolerance())
	assert.Equal(t, money.MustParse("5000"), cfg.Notify.ThresholdAmount())
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoad_Overrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvLogFormat, "JSON")
	t.Setenv(EnvStorageDriver, DriverPostgres)
	t.Setenv(EnvPostgresURL, "postgres://localhost/splitledger")
	t.Setenv(EnvSplitTolerance, "1")
	t.Setenv(EnvNotifyThreshold, "250.50")
	t.Setenv(EnvTxBackoff, "5ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.JSONLogs())
	assert.Equal(t, "postgres://localhost/splitledger", cfg.Storage.PostgresURL)
	assert.Equal(t, money.Amount(1), cfg.Ledger.SplitTolerance())
	assert.Equal(t, money.Amount(25050), cfg.Notify.ThresholdAmount())
	assert.Equal(t, 5*time.Millisecond, cfg.Ledger.TxBackoff)
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	require.NoError(t, os.Unsetenv(EnvJWTSecret))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{EnvStorageDriver: "mongo"}},
		{"postgres without url", map[string]string{EnvStorageDriver: DriverPostgres}},
		{"negative tolerance", map[string]string{EnvSplitTolerance: "-1"}},
		{"bad threshold", map[string]string{EnvNotifyThreshold: "lots"}},
		{"bad duration", map[string]string{EnvJWTTTL: "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setMinimalEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
