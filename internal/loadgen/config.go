// Package loadgen drives synthetic trades through the HTTP API end to end:
// intake, compliance, finance, payment and proof, followed by a
// verification of the sealed bundle.
package loadgen

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for a configuration that cannot drive a run
var ErrInvalidConfig = errors.New("loadgen: invalid configuration")

// Config describes one load run
type Config struct {
	// Target is the base URL of the service, without the /api/v1 suffix
	Target string `yaml:"target"`
	// Token is sent as a bearer token when set
	Token string `yaml:"token,omitempty"`
	// Duration bounds the run. Zero runs until MaxTrades or interruption.
	Duration time.Duration `yaml:"duration"`
	// Rate is the number of new trades started per second
	Rate float64 `yaml:"rate"`
	// Burst is the number of trades that may start back to back
	Burst int `yaml:"burst"`
	// Workers is the number of trades in flight at once
	Workers int `yaml:"workers"`
	// MaxTrades stops the run after this many trades. Zero means no limit.
	MaxTrades int `yaml:"max_trades,omitempty"`
	// Seed makes generated trades reproducible. Zero picks a random seed.
	Seed uint64 `yaml:"seed,omitempty"`
	// HighRiskShare is the fraction of trades shipped to a high-risk country
	HighRiskShare float64 `yaml:"high_risk_share"`
	// RequestTimeout bounds a single API call
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// Retries is the number of extra attempts on 429 and 5xx responses
	Retries int `yaml:"retries"`
	// MetricsAddr exposes Prometheus metrics of the run when set, e.g. ":9091"
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// DefaultConfig returns a gentle local run
func DefaultConfig() Config {
	return Config{
		Target:         "http://localhost:8080",
		Duration:       time.Minute,
		Rate:           2,
		Burst:          1,
		Workers:        4,
		HighRiskShare:  0.1,
		RequestTimeout: 30 * time.Second,
		Retries:        2,
	}
}

// LoadConfig reads a YAML file over the defaults
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration
func (c Config) Validate() error {
	u, err := url.Parse(c.Target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: target %q is not an absolute URL", ErrInvalidConfig, c.Target)
	}
	switch {
	case c.Rate <= 0:
		return fmt.Errorf("%w: rate must be positive", ErrInvalidConfig)
	case c.Burst < 1:
		return fmt.Errorf("%w: burst must be at least 1", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	case c.MaxTrades < 0, c.Retries < 0, c.Duration < 0:
		return fmt.Errorf("%w: max_trades, retries and duration cannot be negative", ErrInvalidConfig)
	case c.HighRiskShare < 0 || c.HighRiskShare > 1:
		return fmt.Errorf("%w: high_risk_share must be between 0 and 1", ErrInvalidConfig)
	case c.Duration == 0 && c.MaxTrades == 0:
		return fmt.Errorf("%w: set duration or max_trades", ErrInvalidConfig)
	}
	return nil
}
