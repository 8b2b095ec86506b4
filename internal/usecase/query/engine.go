// Package query implements the Query Engine: composable
// filters over the Archive Store, exposed to the HTTP surface. The
// Postgres ArchiveStore/ArchiveQueryBuilder already do the filter
// translation; this layer adds request-level validation and
// default clamping so handlers don't have to.
package query

import (
	"context"
	"fmt"

	"intelhub/internal/domain/entity"
	"intelhub/internal/repository"

	"github.com/google/uuid"
)

// DefaultLimit and MaxLimit bound Find's page size when a caller omits or
// over-requests a page.
const (
	DefaultLimit = 25
	MaxLimit     = 200
)

// Engine is the Query Engine.
type Engine struct {
	archive repository.ArchiveStore
}

// New creates a Query Engine over the given Archive Store.
func New(archive repository.ArchiveStore) *Engine {
	return &Engine{archive: archive}
}

// Find applies filter and returns one page of matching ArchivedItems.
func (e *Engine) Find(ctx context.Context, filter repository.ArchiveFilter, page repository.Page) ([]entity.ArchivedItem, error) {
	page = clampPage(page)
	return e.archive.Find(ctx, filter, page)
}

// Count reports how many ArchivedItems match filter, independent of paging.
func (e *Engine) Count(ctx context.Context, filter repository.ArchiveFilter) (int64, error) {
	return e.archive.Count(ctx, filter)
}

// Get fetches a single ArchivedItem by UUID.
func (e *Engine) Get(ctx context.Context, itemUUID uuid.UUID) (*entity.ArchivedItem, error) {
	return e.archive.Get(ctx, itemUUID)
}

// Summary returns the total archived count and a pagination anchor UUID.
func (e *Engine) Summary(ctx context.Context) (total int64, newestUUID uuid.UUID, err error) {
	return e.archive.Summary(ctx)
}

// Paginate walks pages stably anchored on baseUUID's PUB_TIME.
func (e *Engine) Paginate(ctx context.Context, baseUUID uuid.UUID, offset, limit int) ([]entity.ArchivedItem, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		return nil, fmt.Errorf("query engine: offset must be non-negative, got %d", offset)
	}
	return e.archive.Paginate(ctx, baseUUID, offset, limit)
}

func clampPage(page repository.Page) repository.Page {
	if page.Limit <= 0 {
		page.Limit = DefaultLimit
	}
	if page.Limit > MaxLimit {
		page.Limit = MaxLimit
	}
	if page.Skip < 0 {
		page.Skip = 0
	}
	return page
}
