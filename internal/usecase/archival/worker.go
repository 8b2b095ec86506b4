package archival

import (
	"context"
	"fmt"
	"log/slog"

	"intelhub/internal/domain/entity"
	"intelhub/internal/domain/stats"
	"intelhub/internal/observability/metrics"
	"intelhub/internal/repository"

	"github.com/google/uuid"
)

// Dequeuer is the consumer side of the Post-Process Queue.
type Dequeuer interface {
	Dequeue(ctx context.Context) (entity.ArchivedItem, error)
}

// Publisher is the RSS Publisher's producer-facing surface.
type Publisher interface {
	AddItem(title, link, description string)
}

// ResultCacher is the Result Cache's producer-facing surface.
type ResultCacher interface {
	Encache(item entity.ArchivedItem)
}

// Config controls the link template and Result Cache admission threshold.
type Config struct {
	// IntelligenceLinkBase is prepended to the item UUID to build the
	// locally-resolvable RSS item link, e.g.
	// "https://hub.example.com/intelligence".
	IntelligenceLinkBase string
	// ResultCacheThreshold: items with MAX_RATE_SCORE below this are not
	// admitted to the Result Cache.
	ResultCacheThreshold float64
}

// Worker is the Archival Worker.
type Worker struct {
	in      Dequeuer
	cache   repository.CacheStore
	archive repository.ArchiveStore
	vector  repository.VectorIndex
	rss     Publisher
	results ResultCacher
	cfg     Config

	// Counters is an optional per-session tally sink; nil disables it.
	Counters *stats.ResourceCounter
}

// NewWorker creates an Archival Worker. vector, rss, and results may be nil:
// a nil vector index, RSS publisher or ResultCacher is skipped silently.
// Vector indexing is best-effort: an AddText failure is logged and the
// archival still succeeds.
func NewWorker(in Dequeuer, cache repository.CacheStore, archive repository.ArchiveStore,
	vector repository.VectorIndex, rss Publisher, results ResultCacher, cfg Config) *Worker {
	return &Worker{in: in, cache: cache, archive: archive, vector: vector, rss: rss, results: results, cfg: cfg}
}

// Run dequeues and archives items until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.in.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("archival worker: dequeue failed", slog.Any("error", err))
			continue
		}
		w.process(ctx, item)
	}
}

// process archives one item: a failed re-validation, archive insert or
// mark-archived step marks the cache row ERROR and moves to the next item;
// a vector index failure is only logged. Already-committed stores are never
// rolled back.
func (w *Worker) process(ctx context.Context, item entity.ArchivedItem) {
	id := item.UUID

	if err := item.ProcessedItem.Validate(); err != nil {
		w.fail(ctx, id, fmt.Errorf("re-validate: %w", err))
		return
	}

	if err := w.archive.Insert(ctx, item); err != nil {
		w.fail(ctx, id, fmt.Errorf("archive insert: %w", err))
		return
	}

	if w.vector != nil {
		if err := w.vector.AddText(ctx, id, item.EventText); err != nil {
			// Best-effort: archival still counts as successful.
			slog.Warn("archival worker: vector index failed",
				slog.String("uuid", id.String()), slog.Any("error", err))
		}
	}

	if err := w.cache.MarkArchived(ctx, id, entity.FlagArchived); err != nil {
		w.fail(ctx, id, fmt.Errorf("mark archived: %w", err))
		return
	}
	metrics.RecordItemArchived()
	if w.Counters != nil {
		w.Counters.CounterLog([]string{"archival"}, "archived")
	}

	if w.rss != nil {
		title := item.EventTitle
		if title == "" {
			title = item.EventBrief
		}
		link := fmt.Sprintf("%s/%s", w.cfg.IntelligenceLinkBase, id)
		w.rss.AddItem(title, link, item.EventBrief)
	}

	if w.results != nil && item.Appendix.MaxRateScore >= w.cfg.ResultCacheThreshold {
		w.results.Encache(item)
	}
}

func (w *Worker) fail(ctx context.Context, id uuid.UUID, err error) {
	metrics.RecordItemErrored()
	if w.Counters != nil {
		w.Counters.CounterLog([]string{"archival"}, "error")
		w.Counters.SubItemLog([]string{"archival"}, id.String(), "error")
	}
	slog.Error("archival worker: step failed", slog.String("uuid", id.String()), slog.Any("error", err))
	if markErr := w.cache.MarkArchived(ctx, id, entity.FlagError); markErr != nil {
		slog.Error("archival worker: mark error failed", slog.String("uuid", id.String()), slog.Any("error", markErr))
	}
}
