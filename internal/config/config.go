// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the environment-driven settings for the custody client,
// rotation scheduler and observability surface. Cryptographic parameters
// are intentionally not configurable; they live in internal/constants.
type Config struct {
	// Custody service client.
	CustodyBaseURL    string        `env:"SEALKIT_CUSTODY_URL" envDefault:"http://localhost:8085"`
	CustodyTimeout    time.Duration `env:"SEALKIT_CUSTODY_TIMEOUT" envDefault:"15s"`
	CustodyRetryCount int           `env:"SEALKIT_CUSTODY_RETRY_COUNT" envDefault:"3"`
	CustodyRetryWait  time.Duration `env:"SEALKIT_CUSTODY_RETRY_WAIT" envDefault:"500ms"`
	CustodyAuthToken  string        `env:"SEALKIT_CUSTODY_TOKEN,unset"`
	PublicKeyCacheTTL time.Duration `env:"SEALKIT_PUBKEY_CACHE_TTL" envDefault:"1h"`

	// Rotation scheduling.
	RotationPeriodDays int `env:"SEALKIT_ROTATION_PERIOD_DAYS" envDefault:"90"`

	// Observability.
	LogLevel    string `env:"SEALKIT_LOG_LEVEL" envDefault:"info"`
	MetricsAddr string `env:"SEALKIT_METRICS_ADDR"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.CustodyBaseURL == "" {
		return fmt.Errorf("config: custody base URL must not be empty")
	}
	if c.CustodyTimeout <= 0 {
		return fmt.Errorf("config: custody timeout must be positive, got %s", c.CustodyTimeout)
	}
	if c.CustodyRetryCount < 0 {
		return fmt.Errorf("config: custody retry count must not be negative, got %d", c.CustodyRetryCount)
	}
	if c.RotationPeriodDays <= 0 {
		return fmt.Errorf("config: rotation period must be positive, got %d", c.RotationPeriodDays)
	}
	return nil
}
