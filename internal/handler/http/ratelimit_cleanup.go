package http

import (
	"context"
	"log/slog"
	"time"

	"intelhub/pkg/ratelimit"
)

// StartRateLimitCleanup periodically drops idle client keys from the
// limiter so one-off submitters do not accumulate in memory. maxAge keys
// that have not been seen within maxAge are removed each tick; the loop
// exits when ctx is canceled.
func StartRateLimitCleanup(ctx context.Context, limiter *ratelimit.Limiter, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("rate limit cleanup started",
		slog.Duration("interval", interval),
		slog.Duration("max_age", maxAge))

	for {
		select {
		case <-ctx.Done():
			slog.Info("rate limit cleanup stopped")
			return

		case <-ticker.C:
			removed := limiter.CleanupExpired(time.Now().Add(-maxAge))
			if removed > 0 {
				slog.Debug("rate limit cleanup completed",
					slog.Int("removed_keys", removed),
					slog.Int("remaining_keys", limiter.KeyCount()))
			}
		}
	}
}
