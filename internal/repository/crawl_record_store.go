package repository

import "context"

// CrawlRecordStore is the durable side of the Crawl Record utility
//, consumed by upstream crawler plugins to avoid
// duplicate work. All writes are atomic insert-or-update; reads may be
// served from an in-memory insertion-order (FIFO) cache in front of this
// store.
type CrawlRecordStore interface {
	RecordStatus(ctx context.Context, url string, status int, extra string) error
	GetStatus(ctx context.Context, url string) (status int, found bool, err error)
	GetErrorCount(ctx context.Context, url string) (int, error)
	IncrementErrorCount(ctx context.Context, url string) error
	ClearErrorCount(ctx context.Context, url string) error
}
