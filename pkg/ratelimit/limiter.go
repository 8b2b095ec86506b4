// Package ratelimit implements the sliding-window per-IP request limiter
// guarding the Hub's submission endpoint. One limiter instance tracks one
// dimension (the client IP); there is no per-user dimension because
// submitters authenticate with static bearer tokens, not user identities.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of one Allow call, carrying everything the HTTP
// layer needs for the X-RateLimit-* and Retry-After response headers.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// entry holds one key's request timestamps inside the current window.
type entry struct {
	timestamps []time.Time
	lastSeen   time.Time
}

// Limiter is a sliding-window rate limiter over in-memory per-key state.
// Memory is bounded two ways: CleanupExpired drops idle keys, and once
// maxKeys is exceeded the least recently seen key is evicted immediately.
type Limiter struct {
	limit   int
	window  time.Duration
	maxKeys int

	mu      sync.Mutex
	entries map[string]*entry
}

// NewLimiter creates a Limiter allowing limit requests per window per key,
// holding at most maxKeys keys in memory (0 means the 10000 default).
func NewLimiter(limit int, window time.Duration, maxKeys int) *Limiter {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	return &Limiter{
		limit:   limit,
		window:  window,
		maxKeys: maxKeys,
		entries: make(map[string]*entry),
	}
}

// Allow records one request for key and reports whether it is within the
// window's limit.
func (l *Limiter) Allow(key string) Decision {
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= l.maxKeys {
			l.evictOldestLocked()
		}
		e = &entry{}
		l.entries[key] = e
	}
	e.lastSeen = now

	// Slide the window: discard timestamps that fell out of it.
	kept := e.timestamps[:0]
	for _, ts := range e.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	e.timestamps = kept

	if len(e.timestamps) >= l.limit {
		oldest := e.timestamps[0]
		resetAt := oldest.Add(l.window)
		recordDecision(false)
		return Decision{
			Allowed:    false,
			Limit:      l.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: time.Until(resetAt),
		}
	}

	e.timestamps = append(e.timestamps, now)
	recordDecision(true)
	updateKeyGauge(len(l.entries))
	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - len(e.timestamps),
		ResetAt:   now.Add(l.window),
	}
}

// evictOldestLocked removes the least recently seen key. Caller holds l.mu.
func (l *Limiter) evictOldestLocked() {
	var oldestKey string
	var oldestSeen time.Time
	for key, e := range l.entries {
		if oldestKey == "" || e.lastSeen.Before(oldestSeen) {
			oldestKey = key
			oldestSeen = e.lastSeen
		}
	}
	if oldestKey != "" {
		delete(l.entries, oldestKey)
	}
}

// CleanupExpired removes keys whose newest request is older than cutoff and
// returns how many were dropped. Run it periodically so one-off submitters
// do not accumulate forever.
func (l *Limiter) CleanupExpired(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, key)
			removed++
		}
	}
	updateKeyGauge(len(l.entries))
	return removed
}

// KeyCount reports how many keys are currently tracked.
func (l *Limiter) KeyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
