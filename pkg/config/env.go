// Package config holds the typed environment loaders and validators used
// by the rate-limit stack. Invalid values never abort startup: each loader
// logs a warning and falls back to its default.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// GetEnvBool reads a boolean environment variable, falling back to
// defaultValue when unset or unparseable.
func GetEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean in environment, using default",
			slog.String("key", key),
			slog.String("value", v),
			slog.Bool("default", defaultValue))
		return defaultValue
	}
	return parsed
}

// GetEnvInt reads an integer environment variable, falling back to
// defaultValue when unset or unparseable.
func GetEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default",
			slog.String("key", key),
			slog.String("value", v),
			slog.Int("default", defaultValue))
		return defaultValue
	}
	return parsed
}

// GetEnvDuration reads a duration environment variable in time.ParseDuration
// syntax ("30s", "5m"), falling back to defaultValue when unset or
// unparseable.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in environment, using default",
			slog.String("key", key),
			slog.String("value", v),
			slog.Duration("default", defaultValue))
		return defaultValue
	}
	return parsed
}
