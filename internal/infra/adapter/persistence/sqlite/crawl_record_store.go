// Package sqlite provides SQLite-backed implementations of repository
// interfaces for utilities that are shared with upstream crawler plugins
// rather than core analysis-pipeline state.
package sqlite

import (
	"container/list"
	"context"
	"database/sql"
	"fmt"
	"sync"

	"intelhub/internal/domain/entity"
	"intelhub/internal/repository"
)

type crawlCacheEntry struct {
	url        string
	status     int
	errorCount int
}

// CrawlRecordStore implements repository.CrawlRecordStore against SQLite,
// fronted by a strict insertion-order (FIFO) in-memory cache of bounded
// size. The oldest entry is evicted first regardless of how recently it
// was read: upstream plugins only ever insert or update, never re-promote,
// a cached URL, so access-order eviction would buy nothing.
type CrawlRecordStore struct {
	db        *sql.DB
	cacheSize int

	mu      sync.Mutex
	order   *list.List // front = oldest
	entries map[string]*list.Element
}

// NewCrawlRecordStore creates a SQLite-backed CrawlRecordStore and primes
// its cache with the most recently inserted cacheSize rows.
func NewCrawlRecordStore(db *sql.DB, cacheSize int) (*CrawlRecordStore, error) {
	if cacheSize <= 0 {
		cacheSize = 1000
	}
	s := &CrawlRecordStore{
		db:        db,
		cacheSize: cacheSize,
		order:     list.New(),
		entries:   make(map[string]*list.Element, cacheSize),
	}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	if err := s.loadInitialCache(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CrawlRecordStore) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS crawl_records (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    url          TEXT UNIQUE NOT NULL,
    status       INTEGER NOT NULL DEFAULT 0,
    error_count  INTEGER NOT NULL DEFAULT 0,
    extra_info   TEXT,
    created_time TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_time TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("CrawlRecordStore: init schema: %w", err)
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_crawl_records_updated ON crawl_records(updated_time)`); err != nil {
		return fmt.Errorf("CrawlRecordStore: init index: %w", err)
	}
	return nil
}

func (s *CrawlRecordStore) loadInitialCache() error {
	rows, err := s.db.Query(`
SELECT url, status, error_count FROM crawl_records ORDER BY id DESC LIMIT ?`, s.cacheSize)
	if err != nil {
		return fmt.Errorf("CrawlRecordStore: load cache: %w", err)
	}
	defer func() { _ = rows.Close() }()

	// Rows arrive newest-first; pushFront in that order leaves the oldest
	// of the loaded rows at the front, matching on-disk insertion order.
	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var e crawlCacheEntry
		if err := rows.Scan(&e.url, &e.status, &e.errorCount); err != nil {
			return fmt.Errorf("CrawlRecordStore: load cache scan: %w", err)
		}
		elem := s.order.PushFront(&e)
		s.entries[e.url] = elem
	}
	return rows.Err()
}

// touchLocked inserts or updates url's cache entry and evicts the oldest
// entry once cacheSize is exceeded. Caller holds s.mu.
func (s *CrawlRecordStore) touchLocked(url string, mutate func(*crawlCacheEntry)) {
	if elem, ok := s.entries[url]; ok {
		mutate(elem.Value.(*crawlCacheEntry))
		return
	}
	e := &crawlCacheEntry{url: url}
	mutate(e)
	elem := s.order.PushBack(e)
	s.entries[url] = elem
	if len(s.entries) > s.cacheSize {
		oldest := s.order.Front()
		if oldest != nil {
			s.order.Remove(oldest)
			delete(s.entries, oldest.Value.(*crawlCacheEntry).url)
		}
	}
}

func (s *CrawlRecordStore) RecordStatus(ctx context.Context, url string, status int, extra string) error {
	if status < entity.StatusError {
		return fmt.Errorf("CrawlRecordStore.RecordStatus: status %d is reserved for system use", status)
	}
	if err := entity.ValidateURL(url); err != nil {
		return fmt.Errorf("CrawlRecordStore.RecordStatus: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
UPDATE crawl_records SET status = ?, extra_info = ?, updated_time = CURRENT_TIMESTAMP WHERE url = ?`,
		status, extra, url)
	if err != nil {
		return fmt.Errorf("CrawlRecordStore.RecordStatus: update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("CrawlRecordStore.RecordStatus: rows affected: %w", err)
	}
	if n == 0 {
		if _, err := s.db.ExecContext(ctx, `
INSERT INTO crawl_records (url, status, extra_info) VALUES (?, ?, ?)`, url, status, extra); err != nil {
			return fmt.Errorf("CrawlRecordStore.RecordStatus: insert: %w", err)
		}
	}

	s.mu.Lock()
	s.touchLocked(url, func(e *crawlCacheEntry) { e.status = status })
	s.mu.Unlock()
	return nil
}

func (s *CrawlRecordStore) GetStatus(ctx context.Context, url string) (status int, found bool, err error) {
	s.mu.Lock()
	if elem, ok := s.entries[url]; ok {
		e := elem.Value.(*crawlCacheEntry)
		s.mu.Unlock()
		return e.status, true, nil
	}
	s.mu.Unlock()

	var st int
	err = s.db.QueryRowContext(ctx, `SELECT status FROM crawl_records WHERE url = ?`, url).Scan(&st)
	if err == sql.ErrNoRows {
		return entity.StatusNotExist, false, nil
	}
	if err != nil {
		return entity.StatusDBError, false, fmt.Errorf("CrawlRecordStore.GetStatus: %w", err)
	}

	s.mu.Lock()
	s.touchLocked(url, func(e *crawlCacheEntry) { e.status = st })
	s.mu.Unlock()
	return st, true, nil
}

func (s *CrawlRecordStore) GetErrorCount(ctx context.Context, url string) (int, error) {
	s.mu.Lock()
	if elem, ok := s.entries[url]; ok {
		count := elem.Value.(*crawlCacheEntry).errorCount
		s.mu.Unlock()
		return count, nil
	}
	s.mu.Unlock()

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT error_count FROM crawl_records WHERE url = ?`, url).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("CrawlRecordStore.GetErrorCount: %w", err)
	}
	return count, nil
}

func (s *CrawlRecordStore) IncrementErrorCount(ctx context.Context, url string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE crawl_records SET error_count = error_count + 1, status = ?, updated_time = CURRENT_TIMESTAMP WHERE url = ?`,
		entity.StatusError, url)
	if err != nil {
		return fmt.Errorf("CrawlRecordStore.IncrementErrorCount: update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("CrawlRecordStore.IncrementErrorCount: rows affected: %w", err)
	}
	if n == 0 {
		if _, err := s.db.ExecContext(ctx, `
INSERT INTO crawl_records (url, status, error_count) VALUES (?, ?, 1)`, url, entity.StatusError); err != nil {
			return fmt.Errorf("CrawlRecordStore.IncrementErrorCount: insert: %w", err)
		}
	}

	s.mu.Lock()
	s.touchLocked(url, func(e *crawlCacheEntry) {
		e.errorCount++
		e.status = entity.StatusError
	})
	s.mu.Unlock()
	return nil
}

func (s *CrawlRecordStore) ClearErrorCount(ctx context.Context, url string) error {
	if _, err := s.db.ExecContext(ctx, `
UPDATE crawl_records SET error_count = 0, updated_time = CURRENT_TIMESTAMP WHERE url = ?`, url); err != nil {
		return fmt.Errorf("CrawlRecordStore.ClearErrorCount: %w", err)
	}

	s.mu.Lock()
	s.touchLocked(url, func(e *crawlCacheEntry) { e.errorCount = 0 })
	s.mu.Unlock()
	return nil
}

var _ repository.CrawlRecordStore = (*CrawlRecordStore)(nil)
