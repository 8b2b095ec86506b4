package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"intelhub/internal/domain/entity"
	"intelhub/internal/pkg/search"
	"intelhub/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const archiveColumns = `uuid, informant, pub_time, event_time, location, people, organization,
       event_title, event_brief, event_text, rate, impact, tips, raw_data, submitter,
       max_rate_class, max_rate_score, time_archived, retry_count`

// ArchiveStore implements repository.ArchiveStore against
// Postgres, and backs the Query Engine (L) and Statistics Engine (M).
type ArchiveStore struct {
	db *sql.DB
	qb *ArchiveQueryBuilder
}

// NewArchiveStore creates a Postgres-backed ArchiveStore.
func NewArchiveStore(db *sql.DB) repository.ArchiveStore {
	return &ArchiveStore{db: db, qb: NewArchiveQueryBuilder()}
}

func (s *ArchiveStore) Insert(ctx context.Context, item entity.ArchivedItem) error {
	rate, err := json.Marshal(item.Rate)
	if err != nil {
		return fmt.Errorf("ArchiveStore.Insert: marshal rate: %w", err)
	}
	const query = `
INSERT INTO archive_items
       (uuid, informant, pub_time, event_time, location, people, organization,
        event_title, event_brief, event_text, rate, impact, tips, raw_data, submitter,
        max_rate_class, max_rate_score, time_archived, retry_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (uuid) DO NOTHING`
	_, err = s.db.ExecContext(ctx, query,
		item.UUID, item.Informant, item.PubTime, pq.Array(item.Time), pq.Array(item.Location),
		pq.Array(item.People), pq.Array(item.Organization), item.EventTitle, item.EventBrief,
		item.EventText, rate, item.Impact, item.Tips, item.RawData, item.Submitter,
		item.Appendix.MaxRateClass, item.Appendix.MaxRateScore, item.Appendix.TimeArchived,
		item.Appendix.RetryCount,
	)
	if err != nil {
		return fmt.Errorf("ArchiveStore.Insert: %w", err)
	}
	return nil
}

func (s *ArchiveStore) Get(ctx context.Context, itemUUID uuid.UUID) (*entity.ArchivedItem, error) {
	query := fmt.Sprintf("SELECT %s FROM archive_items WHERE uuid = $1", archiveColumns)
	row := s.db.QueryRowContext(ctx, query, itemUUID)
	item, err := scanArchiveRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("ArchiveStore.Get: %w", err)
	}
	return item, nil
}

func (s *ArchiveStore) Find(ctx context.Context, filter repository.ArchiveFilter, page repository.Page) ([]entity.ArchivedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, search.DefaultSearchTimeout)
	defer cancel()

	where, args := s.qb.BuildWhereClause(filter)
	query := fmt.Sprintf("SELECT %s FROM archive_items %s ORDER BY pub_time DESC, seq DESC", archiveColumns, where)
	args = append(args, page.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, page.Skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ArchiveStore.Find: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanArchiveRows(rows)
}

func (s *ArchiveStore) Count(ctx context.Context, filter repository.ArchiveFilter) (int64, error) {
	where, args := s.qb.BuildWhereClause(filter)
	query := fmt.Sprintf("SELECT count(*) FROM archive_items %s", where)
	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ArchiveStore.Count: %w", err)
	}
	return count, nil
}

func (s *ArchiveStore) Summary(ctx context.Context) (total int64, newestUUID uuid.UUID, err error) {
	const countQuery = `SELECT count(*) FROM archive_items`
	if err = s.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return 0, uuid.Nil, fmt.Errorf("ArchiveStore.Summary: count: %w", err)
	}
	const newestQuery = `SELECT uuid FROM archive_items ORDER BY pub_time DESC, seq DESC LIMIT 1`
	if err = s.db.QueryRowContext(ctx, newestQuery).Scan(&newestUUID); err != nil {
		if err == sql.ErrNoRows {
			return total, uuid.Nil, nil
		}
		return 0, uuid.Nil, fmt.Errorf("ArchiveStore.Summary: newest: %w", err)
	}
	return total, newestUUID, nil
}

// Paginate anchors on baseUUID's PUB_TIME so concurrent inserts ahead of the
// anchor cannot shift the page the caller is walking through.
func (s *ArchiveStore) Paginate(ctx context.Context, baseUUID uuid.UUID, offset, limit int) ([]entity.ArchivedItem, error) {
	var anchor sql.NullTime
	const anchorQuery = `SELECT pub_time FROM archive_items WHERE uuid = $1`
	if err := s.db.QueryRowContext(ctx, anchorQuery, baseUUID).Scan(&anchor); err != nil {
		if err == sql.ErrNoRows {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("ArchiveStore.Paginate: anchor: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM archive_items WHERE pub_time <= $1
ORDER BY pub_time DESC, seq DESC LIMIT $2 OFFSET $3`, archiveColumns)
	rows, err := s.db.QueryContext(ctx, query, anchor, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ArchiveStore.Paginate: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanArchiveRows(rows)
}

func (s *ArchiveStore) ScoreDistribution(ctx context.Context, filter repository.ArchiveFilter) ([]repository.ScoreBucket, error) {
	where, args := s.qb.BuildWhereClause(filter)
	query := fmt.Sprintf(`
SELECT LEAST(width_bucket(max_rate_score, 0, 1, 10), 10) AS bucket, count(*)
FROM archive_items %s
GROUP BY bucket ORDER BY bucket`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ArchiveStore.ScoreDistribution: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]repository.ScoreBucket, 0, 10)
	for rows.Next() {
		var b repository.ScoreBucket
		if err := rows.Scan(&b.Bucket, &b.Count); err != nil {
			return nil, fmt.Errorf("ArchiveStore.ScoreDistribution: scan: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *ArchiveStore) HourlyStats(ctx context.Context, from, to time.Time) ([]repository.TimeBucketStat, error) {
	return s.bucketedStats(ctx, "hour", from, to)
}

func (s *ArchiveStore) DailyStats(ctx context.Context, from, to time.Time) ([]repository.TimeBucketStat, error) {
	return s.bucketedStats(ctx, "day", from, to)
}

func (s *ArchiveStore) WeeklyStats(ctx context.Context, from, to time.Time) ([]repository.TimeBucketStat, error) {
	return s.bucketedStats(ctx, "week", from, to)
}

func (s *ArchiveStore) MonthlyStats(ctx context.Context, from, to time.Time) ([]repository.TimeBucketStat, error) {
	return s.bucketedStats(ctx, "month", from, to)
}

// bucketedStats backs the four period-granularity Statistics Engine methods
// with a single date_trunc query parameterized by unit.
func (s *ArchiveStore) bucketedStats(ctx context.Context, unit string, from, to time.Time) ([]repository.TimeBucketStat, error) {
	query := fmt.Sprintf(`
SELECT date_trunc('%s', time_archived) AS bucket, count(*)
FROM archive_items
WHERE time_archived >= $1 AND time_archived < $2
GROUP BY bucket ORDER BY bucket`, unit)
	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("ArchiveStore.bucketedStats(%s): %w", unit, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]repository.TimeBucketStat, 0, 24)
	for rows.Next() {
		var stat repository.TimeBucketStat
		if err := rows.Scan(&stat.BucketStart, &stat.Count); err != nil {
			return nil, fmt.Errorf("ArchiveStore.bucketedStats(%s): scan: %w", unit, err)
		}
		out = append(out, stat)
	}
	return out, rows.Err()
}

func (s *ArchiveStore) TopInformants(ctx context.Context, limit int) ([]repository.InformantStat, error) {
	const query = `
SELECT informant, count(*) AS n
FROM archive_items
WHERE informant <> ''
GROUP BY informant ORDER BY n DESC LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ArchiveStore.TopInformants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]repository.InformantStat, 0, limit)
	for rows.Next() {
		var stat repository.InformantStat
		if err := rows.Scan(&stat.Informant, &stat.Count); err != nil {
			return nil, fmt.Errorf("ArchiveStore.TopInformants: scan: %w", err)
		}
		out = append(out, stat)
	}
	return out, rows.Err()
}

// rowScanner abstracts over *sql.Row and *sql.Rows so scanArchiveRow can
// serve both Get (single row) and the Find/Paginate list paths.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArchiveRow(row rowScanner) (*entity.ArchivedItem, error) {
	var item entity.ArchivedItem
	var pubTime, timeArchived sql.NullTime
	var rateJSON []byte
	if err := row.Scan(
		&item.UUID, &item.Informant, &pubTime, pq.Array(&item.Time), pq.Array(&item.Location),
		pq.Array(&item.People), pq.Array(&item.Organization), &item.EventTitle, &item.EventBrief,
		&item.EventText, &rateJSON, &item.Impact, &item.Tips, &item.RawData, &item.Submitter,
		&item.Appendix.MaxRateClass, &item.Appendix.MaxRateScore, &timeArchived, &item.Appendix.RetryCount,
	); err != nil {
		return nil, err
	}
	if pubTime.Valid {
		t := pubTime.Time
		item.PubTime = &t
	}
	item.Appendix.TimeArchived = timeArchived.Time
	if len(rateJSON) > 0 {
		if err := json.Unmarshal(rateJSON, &item.Rate); err != nil {
			return nil, fmt.Errorf("scanArchiveRow: unmarshal rate: %w", err)
		}
	}
	return &item, nil
}

func scanArchiveRows(rows *sql.Rows) ([]entity.ArchivedItem, error) {
	out := make([]entity.ArchivedItem, 0, 16)
	for rows.Next() {
		item, err := scanArchiveRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanArchiveRows: %w", err)
		}
		out = append(out, *item)
	}
	return out, rows.Err()
}
