// Package postgres provides PostgreSQL implementations of repository interfaces.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"intelhub/internal/domain/entity"
	"intelhub/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CacheStore implements repository.CacheStore (the Durable Cache Store)
// against Postgres. Insert must commit before the caller enqueues the item
// onto the Ingestion Queue: a crash before enqueue must still be
// recoverable by replay from ScanUnflagged.
type CacheStore struct{ db *sql.DB }

// NewCacheStore creates a Postgres-backed CacheStore.
func NewCacheStore(db *sql.DB) repository.CacheStore {
	return &CacheStore{db: db}
}

func (s *CacheStore) Insert(ctx context.Context, row repository.CacheRow) error {
	const query = `
INSERT INTO cache_items
       (uuid, token, source, target, prompt, title, authors, content, pub_time, informant, archived_flag, time_got)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	item := row.Item
	_, err := s.db.ExecContext(ctx, query,
		item.UUID, item.Token, item.Source, item.Target, item.Prompt, item.Title,
		pq.Array(item.Authors), item.Content, item.PubTime, item.Informant,
		string(row.ArchivedFlag), row.TimeGot,
	)
	if err != nil {
		return fmt.Errorf("CacheStore.Insert: %w", err)
	}
	return nil
}

func (s *CacheStore) Update(ctx context.Context, itemUUID uuid.UUID, patch repository.CacheRow) error {
	const query = `
UPDATE cache_items SET
       time_post = $1,
       time_done = $2
WHERE uuid = $3`
	_, err := s.db.ExecContext(ctx, query, patch.TimePost, patch.TimeDone, itemUUID)
	if err != nil {
		return fmt.Errorf("CacheStore.Update: %w", err)
	}
	return nil
}

func (s *CacheStore) MarkArchived(ctx context.Context, itemUUID uuid.UUID, flag entity.ArchivedFlag) error {
	const query = `
UPDATE cache_items SET archived_flag = $1, time_done = now()
WHERE uuid = $2 AND archived_flag = ''`
	// The WHERE clause makes this idempotent: a row already carrying a
	// terminal flag is left untouched by a later call.
	_, err := s.db.ExecContext(ctx, query, string(flag), itemUUID)
	if err != nil {
		return fmt.Errorf("CacheStore.MarkArchived: %w", err)
	}
	return nil
}

func (s *CacheStore) Find(ctx context.Context, filter repository.CacheFilter) ([]repository.CacheRow, error) {
	query := `
SELECT uuid, token, source, target, prompt, title, authors, content, pub_time, informant,
       archived_flag, time_got, time_post, time_done
FROM cache_items
WHERE ($1::varchar IS NULL OR archived_flag = $1)
  AND ($2::text = '' OR token = $2)`
	var flag *string
	if filter.Flag != nil {
		f := string(*filter.Flag)
		flag = &f
	}
	rows, err := s.db.QueryContext(ctx, query, flag, filter.Submitter)
	if err != nil {
		return nil, fmt.Errorf("CacheStore.Find: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanCacheRows(rows)
}

func (s *CacheStore) ScanUnflagged(ctx context.Context) ([]repository.CacheRow, error) {
	const query = `
SELECT uuid, token, source, target, prompt, title, authors, content, pub_time, informant,
       archived_flag, time_got, time_post, time_done
FROM cache_items
WHERE archived_flag = ''
ORDER BY time_got ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("CacheStore.ScanUnflagged: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanCacheRows(rows)
}

func scanCacheRows(rows *sql.Rows) ([]repository.CacheRow, error) {
	out := make([]repository.CacheRow, 0, 16)
	for rows.Next() {
		var row repository.CacheRow
		var flag string
		var pubTime, timePost, timeDone sql.NullTime
		if err := rows.Scan(
			&row.Item.UUID, &row.Item.Token, &row.Item.Source, &row.Item.Target,
			&row.Item.Prompt, &row.Item.Title, pq.Array(&row.Item.Authors), &row.Item.Content,
			&pubTime, &row.Item.Informant, &flag, &row.TimeGot, &timePost, &timeDone,
		); err != nil {
			return nil, fmt.Errorf("scanCacheRows: %w", err)
		}
		row.ArchivedFlag = entity.ArchivedFlag(flag)
		if pubTime.Valid {
			t := pubTime.Time
			row.Item.PubTime = &t
		}
		if timePost.Valid {
			row.TimePost = timePost.Time
		}
		if timeDone.Valid {
			row.TimeDone = timeDone.Time
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
