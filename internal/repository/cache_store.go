package repository

import (
	"context"
	"time"

	"intelhub/internal/domain/entity"

	"github.com/google/uuid"
)

// CacheRow is a Durable Cache Store record: a CollectedItem
// plus the APPENDIX bookkeeping sub-document carrying timestamps and the
// archived flag.
type CacheRow struct {
	Item         entity.CollectedItem
	ArchivedFlag entity.ArchivedFlag
	TimeGot      time.Time
	TimePost     time.Time
	TimeDone     time.Time
}

// CacheFilter narrows CacheStore.Find results.
type CacheFilter struct {
	Flag      *entity.ArchivedFlag
	Submitter string
}

// CacheStore is the Durable Cache Store. insert must commit
// before the corresponding item is enqueued to the Ingestion Queue, so a
// crash before the flag lands triggers a replay on restart. mark_archived is
// idempotent: writing the same terminal flag twice is a no-op, writing a
// second distinct terminal flag is a programming error the caller must not
// trigger.
type CacheStore interface {
	Insert(ctx context.Context, row CacheRow) error
	Update(ctx context.Context, itemUUID uuid.UUID, patch CacheRow) error
	Find(ctx context.Context, filter CacheFilter) ([]CacheRow, error)
	MarkArchived(ctx context.Context, itemUUID uuid.UUID, flag entity.ArchivedFlag) error
	// ScanUnflagged returns every row lacking a terminal archived_flag,
	// used at startup to repopulate the Ingestion Queue by replay
	// after a crash.
	ScanUnflagged(ctx context.Context) ([]CacheRow, error)
}
