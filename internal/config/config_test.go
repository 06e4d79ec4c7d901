package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV": "test", "APP_PORT": "8080",
		"DB_USER": "root", "DB_HOST": "localhost", "DB_PORT": "3306", "DB_NAME": "marketplace",
		"JWT_SECRET": "s3cret", "ACCESS_TOKEN_TTL_MIN": "15",
		"REFRESH_TOKEN_TTL_DAYS": "7", "BCRYPT_COST": "4",
	} {
		t.Setenv(k, v)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15, cfg.AccessTTLMin)
	assert.Equal(t, 30*time.Minute, cfg.Editor.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.Editor.EntityCacheTTL)
	assert.False(t, cfg.Payment.Compensate)
	assert.Equal(t, "logs/activity.log", cfg.ActivityLog)
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PAYMENT_COMPENSATE", "true")
	t.Setenv("EDITOR_SESSION_TTL", "2h")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_x")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Payment.Compensate)
	assert.Equal(t, 2*time.Hour, cfg.Editor.SessionTTL)
	assert.Equal(t, "sk_test_x", cfg.Payment.StripeSecretKey)
}

func TestFromEnv_ReportsAllMissing(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_SECRET", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestFromEnv_InvalidInt(t *testing.T) {
	setRequired(t)
	t.Setenv("BCRYPT_COST", "high")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "BCRYPT_COST")
}

func TestLoadRateLimitConfig_Normalises(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "10s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 50*time.Second, c.TTL)
}

func TestLoadCacheConfig_Methods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	c := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, c.Methods)
}

func TestLoadRedisConfig_HostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	assert.Equal(t, "redis:6380", LoadRedisConfig().Addr)
}
