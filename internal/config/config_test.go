package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 168*time.Hour, cfg.Security.SessionTTL)
	assert.Equal(t, "aperture_session", cfg.Security.CookieName)
	assert.Equal(t, 5, cfg.Lockout.MaxFailures)
	assert.Equal(t, 15*time.Minute, cfg.Lockout.Duration)
	assert.Equal(t, 10, cfg.RateLimit.Login.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Login.Window)
	assert.Equal(t, 365, cfg.Audit.RetentionDays)
}

func TestLoadDevFallbackSecret(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	// Outside production an empty secret falls back so local setups
	// run unconfigured.
	assert.NotEmpty(t, cfg.Security.SessionSecret)
}

func TestLoadProductionRequiresSecret(t *testing.T) {
	t.Setenv("APERTURE_ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sessionsecret")
}

func TestLoadProductionWithSecret(t *testing.T) {
	t.Setenv("APERTURE_ENVIRONMENT", "production")
	t.Setenv("APERTURE_SECURITY_SESSIONSECRET", "a-real-production-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "a-real-production-secret", cfg.Security.SessionSecret)
}
