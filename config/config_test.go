package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/storelane/authcore/config"
)

func TestLoadRequiresSigningSecret(t *testing.T) {
	t.Setenv("SIGNING_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "SIGNING_SECRET")
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("SIGNING_SECRET", "too-short")

	_, err := config.Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "32 bytes")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SIGNING_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, 5, cfg.LoginRateMax)
	require.Equal(t, 15*time.Minute, cfg.LoginRateWindow)
	require.Equal(t, uint32(3), cfg.ArgonTime)
	require.Equal(t, uint32(64*1024), cfg.ArgonMemoryKB)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SIGNING_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("LOGIN_RATE_MAX", "10")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("APP_ENV", "production")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 10, cfg.LoginRateMax)
	require.False(t, cfg.CookieSecure)
	require.Equal(t, "production", cfg.Environment)
}

func TestCookieSecureFollowsEnvironment(t *testing.T) {
	t.Setenv("SIGNING_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("APP_ENV", "production")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.True(t, cfg.CookieSecure, "production defaults to secure cookies")
}
