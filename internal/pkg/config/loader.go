// Package config provides the Hub's configuration plumbing: typed
// environment loaders with fail-open fallback, startup validators, and
// the dotted-key JSON/YAML config file (fileconfig.go). A bad tuning knob
// logs a warning and falls back to its default rather than refusing to
// start; only the fatal cases (unreachable stores, unreadable config
// file) abort startup.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// LoadEnvString returns the environment value for key, or defaultValue
// when unset. No validation; any string is acceptable.
func LoadEnvString(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// LoadEnvInt returns the integer value of key. An unset variable yields
// defaultValue silently; an unparseable or validator-rejected value yields
// defaultValue with a warning.
func LoadEnvInt(key string, defaultValue int, validate func(int) error) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(v)
	if err == nil && validate != nil {
		err = validate(parsed)
	}
	if err != nil {
		slog.Warn("invalid integer configuration, using default",
			slog.String("key", key),
			slog.String("value", v),
			slog.Int("default", defaultValue),
			slog.Any("error", err))
		return defaultValue
	}
	return parsed
}

// LoadEnvDuration returns the duration value of key in time.ParseDuration
// syntax, with the same fallback discipline as LoadEnvInt.
func LoadEnvDuration(key string, defaultValue time.Duration, validate func(time.Duration) error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}

	parsed, err := time.ParseDuration(v)
	if err == nil && validate != nil {
		err = validate(parsed)
	}
	if err != nil {
		slog.Warn("invalid duration configuration, using default",
			slog.String("key", key),
			slog.String("value", v),
			slog.Duration("default", defaultValue),
			slog.Any("error", err))
		return defaultValue
	}
	return parsed
}
