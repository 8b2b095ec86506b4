// Package ingest implements the Ingestion Queue: the bounded
// FIFO sitting between the /collect HTTP handler (and the startup replay
// loop) and the Analysis Worker.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"intelhub/internal/domain/entity"
	"intelhub/internal/observability/metrics"
	"intelhub/internal/repository"
	"intelhub/internal/usecase/queue"
)

// DefaultPushTimeout is how long a producer blocks against a full queue
// before its submission is refused.
const DefaultPushTimeout = 3 * time.Second

// Queue is the Ingestion Queue. Producers are the /collect handler and
// ReplayUnflagged (run once at startup); the sole consumer is the Analysis
// Worker's Dequeue loop.
type Queue struct {
	inner   *queue.Bounded[entity.CollectedItem]
	timeout time.Duration
}

// New creates an Ingestion Queue with the given capacity.
func New(capacity int) *Queue {
	return &Queue{inner: queue.NewBounded[entity.CollectedItem](capacity), timeout: DefaultPushTimeout}
}

// Submit enqueues item, blocking briefly under backpressure before
// returning queue.ErrFull to the caller (the HTTP handler turns this into
// a 503/retriable response).
func (q *Queue) Submit(ctx context.Context, item entity.CollectedItem) error {
	err := q.inner.Push(ctx, item, q.timeout)
	metrics.UpdateQueueDepth("ingestion", q.inner.Len())
	return err
}

// Dequeue blocks until an item is available for the Analysis Worker.
func (q *Queue) Dequeue(ctx context.Context) (entity.CollectedItem, error) {
	item, err := q.inner.Pop(ctx)
	metrics.UpdateQueueDepth("ingestion", q.inner.Len())
	return item, err
}

// Len reports the number of items currently queued.
func (q *Queue) Len() int { return q.inner.Len() }

// Close shuts the queue down.
func (q *Queue) Close() { q.inner.Close() }

// ReplayUnflagged repopulates the queue at startup from every cache row
// lacking a terminal archived_flag, recovering in-flight work lost to a
// crash between Insert and the original enqueue. It pushes with a long
// timeout since there is no live producer contending for queue space
// during replay.
func ReplayUnflagged(ctx context.Context, cache repository.CacheStore, q *Queue) error {
	rows, err := cache.ScanUnflagged(ctx)
	if err != nil {
		return err
	}
	replayed := 0
	for _, row := range rows {
		if err := q.inner.Push(ctx, row.Item, 30*time.Second); err != nil {
			slog.Error("replay: failed to requeue unflagged item",
				slog.String("uuid", row.Item.UUID.String()),
				slog.Any("error", err))
			continue
		}
		replayed++
	}
	slog.Info("replay: requeued unflagged cache rows", slog.Int("count", replayed), slog.Int("scanned", len(rows)))
	return nil
}
