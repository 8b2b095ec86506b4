// Package statistics implements the Statistics Engine,
// exposing the Archive Store's aggregation methods to the HTTP surface.
package statistics

import (
	"context"
	"time"

	"intelhub/internal/repository"
)

// DefaultTopInformants bounds TopInformants when a caller requests an
// unbounded or non-positive limit.
const DefaultTopInformants = 10

// Engine is the Statistics Engine.
type Engine struct {
	archive repository.ArchiveStore
}

// New creates a Statistics Engine over the given Archive Store.
func New(archive repository.ArchiveStore) *Engine {
	return &Engine{archive: archive}
}

// ScoreDistribution buckets APPENDIX.MAX_RATE_SCORE into 10 bins over
// [0,1] within filter.
func (e *Engine) ScoreDistribution(ctx context.Context, filter repository.ArchiveFilter) ([]repository.ScoreBucket, error) {
	return e.archive.ScoreDistribution(ctx, filter)
}

// Hourly/Daily/Weekly/Monthly group APPENDIX.TIME_ARCHIVED counts within
// [from, to) at the named granularity.
func (e *Engine) Hourly(ctx context.Context, from, to time.Time) ([]repository.TimeBucketStat, error) {
	return e.archive.HourlyStats(ctx, from, to)
}

func (e *Engine) Daily(ctx context.Context, from, to time.Time) ([]repository.TimeBucketStat, error) {
	return e.archive.DailyStats(ctx, from, to)
}

func (e *Engine) Weekly(ctx context.Context, from, to time.Time) ([]repository.TimeBucketStat, error) {
	return e.archive.WeeklyStats(ctx, from, to)
}

func (e *Engine) Monthly(ctx context.Context, from, to time.Time) ([]repository.TimeBucketStat, error) {
	return e.archive.MonthlyStats(ctx, from, to)
}

// TopInformants returns the top limit informants by archived count.
func (e *Engine) TopInformants(ctx context.Context, limit int) ([]repository.InformantStat, error) {
	if limit <= 0 {
		limit = DefaultTopInformants
	}
	return e.archive.TopInformants(ctx, limit)
}
