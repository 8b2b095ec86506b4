// Package resultcache implements the in-memory Result Cache:
// a small, hot set of high-scoring recently archived items served without
// a database round-trip.
package resultcache

import (
	"context"
	"sort"
	"sync"
	"time"

	"intelhub/internal/domain/entity"
	"intelhub/internal/repository"
)

// Config controls admission and eviction.
type Config struct {
	// Threshold: only items with MAX_RATE_SCORE >= Threshold are encached.
	Threshold float64
	// MaxCount bounds the cache size; oldest-by-TIME_ARCHIVED entries are
	// evicted first once exceeded.
	MaxCount int
	// MaxAge evicts any entry whose TIME_ARCHIVED is older than MaxAge
	// relative to now, independent of MaxCount.
	MaxAge time.Duration
}

// Cache is the Result Cache. items is kept sorted by Appendix.TimeArchived
// descending at all times, so age eviction can stop at the first entry
// inside the cutoff and reads return the newest entries first.
type Cache struct {
	mu    sync.RWMutex
	items []entity.ArchivedItem
	cfg   Config
}

// New creates a Result Cache with the given admission/eviction config.
func New(cfg Config) *Cache {
	return &Cache{cfg: cfg}
}

// Encache binary-inserts item by TIME_ARCHIVED descending order iff its
// MAX_RATE_SCORE meets the configured threshold, then evicts from the tail
// until both the count and age caps hold.
func (c *Cache) Encache(item entity.ArchivedItem) {
	if item.Appendix.MaxRateScore < c.cfg.Threshold {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pos := sort.Search(len(c.items), func(i int) bool {
		return c.items[i].Appendix.TimeArchived.Before(item.Appendix.TimeArchived)
	})
	c.items = append(c.items, entity.ArchivedItem{})
	copy(c.items[pos+1:], c.items[pos:])
	c.items[pos] = item

	c.evictLocked()
}

func (c *Cache) evictLocked() {
	if c.cfg.MaxCount > 0 && len(c.items) > c.cfg.MaxCount {
		c.items = c.items[:c.cfg.MaxCount]
	}
	if c.cfg.MaxAge > 0 {
		cutoff := time.Now().UTC().Add(-c.cfg.MaxAge)
		for len(c.items) > 0 && c.items[len(c.items)-1].Appendix.TimeArchived.Before(cutoff) {
			c.items = c.items[:len(c.items)-1]
		}
	}
}

// Load replaces the cache contents with up to limit items from the Archive
// Store's Find under filter (its threshold defaulting to the cache's own),
// re-sorted by TIME_ARCHIVED descending. The fetch is in Find's
// newest-pub_time-first order, not by score.
func (c *Cache) Load(ctx context.Context, archive repository.ArchiveStore, filter repository.ArchiveFilter, limit int) error {
	if filter.Threshold == nil {
		filter.Threshold = &c.cfg.Threshold
	}
	items, err := archive.Find(ctx, filter, repository.Page{Limit: limit})
	if err != nil {
		return err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Appendix.TimeArchived.After(items[j].Appendix.TimeArchived)
	})

	c.mu.Lock()
	c.items = items
	c.evictLocked()
	c.mu.Unlock()
	return nil
}

// Get returns a filtered, mapped snapshot of the cache, stopping once limit
// results have been collected (0 means unbounded). filterFn and mapFn may
// be nil to select/return everything unchanged.
func Get[T any](c *Cache, filterFn func(entity.ArchivedItem) bool, mapFn func(entity.ArchivedItem) T, limit int) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if filterFn != nil && !filterFn(item) {
			continue
		}
		var mapped T
		if mapFn != nil {
			mapped = mapFn(item)
		} else if v, ok := any(item).(T); ok {
			mapped = v
		}
		out = append(out, mapped)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
