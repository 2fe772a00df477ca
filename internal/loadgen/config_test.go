package loadgen

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loadgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
target: http://tradeflow:8080
duration: 5m
rate: 12.5
burst: 4
workers: 16
seed: 99
high_risk_share: 0.25
request_timeout: 10s
metrics_addr: ":9091"
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "http://tradeflow:8080", cfg.Target)
		assert.Equal(t, 5*time.Minute, cfg.Duration)
		assert.Equal(t, 12.5, cfg.Rate)
		assert.Equal(t, 4, cfg.Burst)
		assert.Equal(t, 16, cfg.Workers)
		assert.Equal(t, uint64(99), cfg.Seed)
		assert.Equal(t, 0.25, cfg.HighRiskShare)
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
		assert.Equal(t, ":9091", cfg.MetricsAddr)
		// untouched keys keep their defaults
		assert.Equal(t, DefaultConfig().Retries, cfg.Retries)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "rate: [1, 2"))
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "workers: 0\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative target", func(c *Config) { c.Target = "localhost:8080" }},
		{"zero rate", func(c *Config) { c.Rate = 0 }},
		{"zero burst", func(c *Config) { c.Burst = 0 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"negative retries", func(c *Config) { c.Retries = -1 }},
		{"share above one", func(c *Config) { c.HighRiskShare = 1.5 }},
		{"unbounded run", func(c *Config) { c.Duration = 0; c.MaxTrades = 0 }},
	}

	assert.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
