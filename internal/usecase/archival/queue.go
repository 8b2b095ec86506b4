// Package archival implements the Post-Process Queue and the
// Archival Worker.
package archival

import (
	"context"
	"time"

	"intelhub/internal/domain/entity"
	"intelhub/internal/observability/metrics"
	"intelhub/internal/usecase/queue"
)

// DefaultPushTimeout mirrors the Ingestion Queue's short blocking-put
// timeout; G shares E's contract.
const DefaultPushTimeout = 3 * time.Second

// Queue is the Post-Process Queue. Its producer is the Analysis Worker; its
// consumer is the Archival Worker. Capacity is typically small: backpressure
// here propagates into F, which in turn back-pressures E.
type Queue struct {
	inner   *queue.Bounded[entity.ArchivedItem]
	timeout time.Duration
}

// NewQueue creates a Post-Process Queue with the given capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{inner: queue.NewBounded[entity.ArchivedItem](capacity), timeout: DefaultPushTimeout}
}

func (q *Queue) Submit(ctx context.Context, item entity.ArchivedItem) error {
	err := q.inner.Push(ctx, item, q.timeout)
	metrics.UpdateQueueDepth("postprocess", q.inner.Len())
	return err
}

func (q *Queue) Dequeue(ctx context.Context) (entity.ArchivedItem, error) {
	item, err := q.inner.Pop(ctx)
	metrics.UpdateQueueDepth("postprocess", q.inner.Len())
	return item, err
}

func (q *Queue) Len() int { return q.inner.Len() }

func (q *Queue) Close() { q.inner.Close() }
