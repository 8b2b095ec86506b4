package repository

import (
	"context"
	"time"

	"intelhub/internal/domain/entity"

	"github.com/google/uuid"
)

// ArchiveFilter is a composable filter over the Archive Store C, used by
// the Query Engine and by the Result Cache's period
// reload.
type ArchiveFilter struct {
	// ArchivePeriod restricts APPENDIX.TIME_ARCHIVED to [From, To).
	ArchivePeriodFrom, ArchivePeriodTo *time.Time
	// PubPeriod restricts PUB_TIME to [From, To).
	PubPeriodFrom, PubPeriodTo *time.Time
	// Locations/Peoples/Organizations: array-contains-any, OR within list.
	Locations     []string
	Peoples       []string
	Organizations []string
	// Keywords: case-insensitive word-boundary match across EVENT_BRIEF and
	// EVENT_TEXT; multiple terms AND-combined, each OR-combined across
	// fields.
	Keywords []string
	// Threshold: APPENDIX.MAX_RATE_SCORE >= Threshold.
	Threshold *float64
}

// Page describes stable, insertion-order pagination: sorted by PUB_TIME
// descending then insertion id descending.
type Page struct {
	Skip  int
	Limit int
}

// ScoreBucket is one of the Statistics Engine's 1-10 score-distribution
// buckets.
type ScoreBucket struct {
	Bucket int
	Count  int64
}

// TimeBucketStat is one point of a time-bucketed aggregation (hour, day,
// week, or month) over APPENDIX.TIME_ARCHIVED.
type TimeBucketStat struct {
	BucketStart time.Time
	Count       int64
}

// InformantStat is one row of the Statistics Engine's top-N-by-informant
// summary.
type InformantStat struct {
	Informant string
	Count     int64
}

// ArchiveStore is the Archive Store: an append-only,
// secondary-indexed collection of validated ArchivedItems, and the backing
// store for the Query Engine (L) and Statistics Engine (M). Aggregation is
// expressed as dedicated methods rather than a generic pipeline, since the
// Postgres backing here is not a document-aggregation engine.
type ArchiveStore interface {
	Insert(ctx context.Context, item entity.ArchivedItem) error
	Get(ctx context.Context, itemUUID uuid.UUID) (*entity.ArchivedItem, error)
	Find(ctx context.Context, filter ArchiveFilter, page Page) ([]entity.ArchivedItem, error)
	Count(ctx context.Context, filter ArchiveFilter) (int64, error)

	// Summary returns the total archived count and the most recently
	// archived UUID, used as a stable pagination anchor.
	Summary(ctx context.Context) (total int64, newestUUID uuid.UUID, err error)
	// Paginate anchors on baseUUID's PUB_TIME as an upper bound so
	// concurrent inserts cannot shift pages underneath the caller.
	Paginate(ctx context.Context, baseUUID uuid.UUID, offset, limit int) ([]entity.ArchivedItem, error)

	ScoreDistribution(ctx context.Context, filter ArchiveFilter) ([]ScoreBucket, error)
	HourlyStats(ctx context.Context, from, to time.Time) ([]TimeBucketStat, error)
	DailyStats(ctx context.Context, from, to time.Time) ([]TimeBucketStat, error)
	WeeklyStats(ctx context.Context, from, to time.Time) ([]TimeBucketStat, error)
	MonthlyStats(ctx context.Context, from, to time.Time) ([]TimeBucketStat, error)
	TopInformants(ctx context.Context, limit int) ([]InformantStat, error)
}
