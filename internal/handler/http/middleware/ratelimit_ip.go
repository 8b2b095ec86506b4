package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"intelhub/pkg/ratelimit"
)

// IPRateLimiter applies a sliding-window per-IP limit in front of a
// handler. Extraction failures fall open with a warning: refusing every
// submission because an address failed to parse would hurt more than one
// unmetered request.
type IPRateLimiter struct {
	limiter   *ratelimit.Limiter
	extractor IPExtractor
	enabled   bool
}

// NewIPRateLimiter builds a limiter middleware from the loaded config.
func NewIPRateLimiter(cfg *ratelimit.RateLimitConfig, extractor IPExtractor) *IPRateLimiter {
	return &IPRateLimiter{
		limiter:   ratelimit.NewLimiter(cfg.DefaultIPLimit, cfg.DefaultIPWindow, cfg.MaxActiveKeys),
		extractor: extractor,
		enabled:   cfg.Enabled,
	}
}

// Limiter exposes the underlying limiter for the periodic cleanup loop.
func (rl *IPRateLimiter) Limiter() *ratelimit.Limiter {
	return rl.limiter
}

// Middleware enforces the limit, setting X-RateLimit-* headers on every
// response and Retry-After on 429s.
func (rl *IPRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.enabled {
				next.ServeHTTP(w, r)
				return
			}

			ip, err := rl.extractor.ExtractIP(r)
			if err != nil {
				slog.Warn("rate limit: ip extraction failed, allowing request",
					slog.String("remote_addr", r.RemoteAddr),
					slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			decision := rl.limiter.Allow(ip)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				retryAfter := int(decision.RetryAfter.Round(time.Second).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "rate limit exceeded, retry later",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
