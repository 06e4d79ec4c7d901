// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // APP_ENV (dev, test, prod)
	Port           string // APP_PORT
	DBUser         string // DB_USER
	DBPass         string // DB_PASS (empty allowed)
	DBHost         string // DB_HOST
	DBPort         string // DB_PORT
	DBName         string // DB_NAME
	JWTSecret      string // JWT_SECRET
	AccessTTLMin   int    // ACCESS_TOKEN_TTL_MIN
	RefreshTTLDays int    // REFRESH_TOKEN_TTL_DAYS
	BcryptCost     int    // BCRYPT_COST
	AMQPURL        string // AMQP_URL; empty disables activity events
	ActivityLog    string // ACTIVITY_LOG_PATH

	Editor  EditorConfig
	Payment PaymentConfig
}

// EditorConfig controls in-memory editor sessions and the entity cache.
type EditorConfig struct {
	SessionTTL     time.Duration // EDITOR_SESSION_TTL, idle time before a session is dropped
	SweepInterval  time.Duration // EDITOR_SWEEP_INTERVAL
	EntityCacheTTL time.Duration // ENTITY_CACHE_TTL
}

// PaymentConfig configures the payment provider.
type PaymentConfig struct {
	StripeSecretKey string // STRIPE_SECRET_KEY; empty disables subscriptions
	// Compensate cancels the intent and the pending subscription when the
	// payment confirmation fails (PAYMENT_COMPENSATE).
	Compensate bool
}

// IsDev reports whether the app runs in the dev environment.
func (c Config) IsDev() bool { return c.Env == "dev" }

// Load reads .env (when present) and then the process environment.  All
// missing required variables are reported together.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	var r reader
	cfg := Config{
		Env:            r.must("APP_ENV"),
		Port:           r.must("APP_PORT"),
		DBUser:         r.must("DB_USER"),
		DBPass:         envStr("DB_PASS", ""),
		DBHost:         r.must("DB_HOST"),
		DBPort:         r.must("DB_PORT"),
		DBName:         r.must("DB_NAME"),
		JWTSecret:      r.must("JWT_SECRET"),
		AccessTTLMin:   r.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: r.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     r.mustInt("BCRYPT_COST"),
		AMQPURL:        envStr("AMQP_URL", ""),
		ActivityLog:    envStr("ACTIVITY_LOG_PATH", "logs/activity.log"),
		Editor: EditorConfig{
			SessionTTL:     envDur("EDITOR_SESSION_TTL", 30*time.Minute),
			SweepInterval:  envDur("EDITOR_SWEEP_INTERVAL", time.Minute),
			EntityCacheTTL: envDur("ENTITY_CACHE_TTL", 5*time.Minute),
		},
		Payment: PaymentConfig{
			StripeSecretKey: envStr("STRIPE_SECRET_KEY", ""),
			Compensate:      envBool("PAYMENT_COMPENSATE", false),
		},
	}
	if err := r.err(); err != nil {
		return Config{}, err
	}
	if cfg.Editor.SweepInterval <= 0 {
		cfg.Editor.SweepInterval = time.Minute
	}
	return cfg, nil
}
