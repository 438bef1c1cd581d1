package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// ErrMissingSigningKey is returned when the token signing key is not
// configured. The service refuses to start without one.
var ErrMissingSigningKey = errors.New("MEDSCHED_SIGNING_KEY must be set")

type Config struct {
	SigningKey string // Required: HMAC key for access tokens

	TokenTTL      time.Duration // Optional: access token lifetime (default: 1h)
	ResetTTL      time.Duration // Optional: password reset code lifetime (default: 5h)
	ResetLinkBase string        // Optional: frontend URL the reset code is appended to

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./medsched.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired reset code sweep interval (default: 1h)
}

func LoadConfig() (Config, error) {
	cfg := Config{
		SigningKey: os.Getenv("MEDSCHED_SIGNING_KEY"),

		TokenTTL: getEnvDurationOrDefault("MEDSCHED_TOKEN_TTL", 1*time.Hour),
		ResetTTL: getEnvDurationOrDefault("MEDSCHED_RESET_TTL", 5*time.Hour),
		ResetLinkBase: getEnvOrDefault(
			"MEDSCHED_RESET_LINK_BASE",
			"http://localhost:3000/reset-password?code=",
		),

		DatabaseFile:         getEnvOrDefault("MEDSCHED_DATABASE_FILE", "medsched.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.SigningKey == "" {
		return Config{}, ErrMissingSigningKey
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
