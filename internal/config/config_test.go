package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medvault-labs/sealkit/internal/config"
)

// Defaults apply when no environment variables are set.
func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8085", cfg.CustodyBaseURL)
	assert.Equal(t, 15*time.Second, cfg.CustodyTimeout)
	assert.Equal(t, 3, cfg.CustodyRetryCount)
	assert.Equal(t, time.Hour, cfg.PublicKeyCacheTTL)
	assert.Equal(t, 90, cfg.RotationPeriodDays)
	assert.Equal(t, "info", cfg.LogLevel)
}

// Environment variables override defaults.
func TestLoadOverrides(t *testing.T) {
	t.Setenv("SEALKIT_CUSTODY_URL", "https://kms.internal:8443")
	t.Setenv("SEALKIT_CUSTODY_TIMEOUT", "30s")
	t.Setenv("SEALKIT_ROTATION_PERIOD_DAYS", "30")
	t.Setenv("SEALKIT_LOG_LEVEL", "debug")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://kms.internal:8443", cfg.CustodyBaseURL)
	assert.Equal(t, 30*time.Second, cfg.CustodyTimeout)
	assert.Equal(t, 30, cfg.RotationPeriodDays)
	assert.Equal(t, "debug", cfg.LogLevel)
}

// Invalid values are rejected with a descriptive error.
func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty custody URL", func(c *config.Config) { c.CustodyBaseURL = "" }},
		{"zero timeout", func(c *config.Config) { c.CustodyTimeout = 0 }},
		{"negative retries", func(c *config.Config) { c.CustodyRetryCount = -1 }},
		{"zero rotation period", func(c *config.Config) { c.RotationPeriodDays = 0 }},
	}
	for _, tc := range cases {
		cfg, err := config.Load()
		require.NoError(t, err)
		tc.mutate(cfg)
		assert.Error(t, cfg.Validate(), tc.name)
	}
}

// Negative rotation period from the environment fails Load directly.
func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("SEALKIT_ROTATION_PERIOD_DAYS", "-5")
	_, err := config.Load()
	require.Error(t, err)
}
