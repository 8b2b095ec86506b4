package ratelimit

import (
	"fmt"
	"time"
)

// RateLimitConfig contains the configuration for rate limiting.
//
// The Hub rate-limits by client IP only: its submitters are machine
// clients authenticated by static bearer tokens, so there is no per-user
// identity to key a second limiter on.
type RateLimitConfig struct {
	// Global default rate limit for IP-based limiting
	DefaultIPLimit int
	// Time window for IP-based rate limiting
	DefaultIPWindow time.Duration

	// Maximum number of active keys to keep in memory
	MaxActiveKeys int

	// How often to run cleanup of expired entries
	CleanupInterval time.Duration

	// Remove entries older than this duration
	CleanupMaxAge time.Duration

	// Feature flag to enable/disable rate limiting
	Enabled bool
}

// Validate checks if the RateLimitConfig is valid.
//
// Returns an error if any configuration values are invalid.
func (c *RateLimitConfig) Validate() error {
	if c.DefaultIPLimit < 0 {
		return fmt.Errorf("DefaultIPLimit must be non-negative, got %d", c.DefaultIPLimit)
	}
	if c.DefaultIPWindow < 0 {
		return fmt.Errorf("DefaultIPWindow must be non-negative, got %s", c.DefaultIPWindow)
	}

	if c.MaxActiveKeys < 0 {
		return fmt.Errorf("MaxActiveKeys must be non-negative, got %d", c.MaxActiveKeys)
	}
	if c.CleanupInterval < 0 {
		return fmt.Errorf("CleanupInterval must be non-negative, got %s", c.CleanupInterval)
	}
	if c.CleanupMaxAge < 0 {
		return fmt.Errorf("CleanupMaxAge must be non-negative, got %s", c.CleanupMaxAge)
	}

	return nil
}

// ApplyDefaults sets safe default values for any missing or zero configuration values.
//
// This ensures the rate limiter can function even if the configuration is incomplete.
func (c *RateLimitConfig) ApplyDefaults() {
	if c.DefaultIPLimit == 0 {
		c.DefaultIPLimit = 100 // 100 requests per minute
	}
	if c.DefaultIPWindow == 0 {
		c.DefaultIPWindow = 1 * time.Minute
	}

	if c.MaxActiveKeys == 0 {
		c.MaxActiveKeys = 10000 // Maximum 10,000 unique IPs in memory
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = 5 * time.Minute // Cleanup every 5 minutes
	}
	if c.CleanupMaxAge == 0 {
		c.CleanupMaxAge = 1 * time.Hour // Remove entries older than 1 hour
	}

	if !c.Enabled {
		c.Enabled = true
	}
}

// DefaultConfig returns a RateLimitConfig with safe default values.
//
// This is useful for testing and as a starting point for configuration.
func DefaultConfig() *RateLimitConfig {
	config := &RateLimitConfig{}
	config.ApplyDefaults()
	return config
}
