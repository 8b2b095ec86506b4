// Package analysis implements the Analysis Worker: it
// dequeues CollectedItems, runs them through a configured LLM backend, and
// produces ProcessedItems for the Post-Process Queue.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"intelhub/internal/domain/entity"
	"intelhub/internal/domain/stats"
	"intelhub/internal/observability/metrics"
	"intelhub/internal/repository"

	"github.com/google/uuid"
)

// Dequeuer is the consumer side of the Ingestion Queue.
type Dequeuer interface {
	Dequeue(ctx context.Context) (entity.CollectedItem, error)
}

// Enqueuer is the producer side of the Post-Process Queue.
// It carries a pre-archival ArchivedItem: ProcessedItem plus the raw
// submission and bookkeeping fields the Archival Worker needs, with
// Appendix.TimeArchived and Appendix.ArchivedFlag still unset.
type Enqueuer interface {
	Submit(ctx context.Context, item entity.ArchivedItem) error
}

// Config controls the worker's LLM request shape and enrichment rules.
type Config struct {
	// SystemPrompt is prepended to every LLM request.
	SystemPrompt string
	// ExcludeRateClass is omitted from MAX_RATE_CLASS/SCORE selection
	// excluding the configured excluded class (e.g. accuracy).
	ExcludeRateClass string
	// Temperature is not read by the worker: every LLM request is sent
	// with temperature 0.
	Temperature float64
	MaxTokens   int
	// ConversationDir is the root directory conversation artifacts are
	// written under, one subdirectory per worker kind (persisted-state
	// layout: conversation/<kind>/conversation_<ts>.txt).
	ConversationDir string
	// WorkerKind labels the conversation artifact subdirectory, e.g.
	// "analysis".
	WorkerKind string
}

// Worker is the Analysis Worker. A nil Client means no analyzer is
// configured; every dequeued item is then dropped with reason
// "no analyzer".
type Worker struct {
	in     Dequeuer
	out    Enqueuer
	cache  repository.CacheStore
	client ChatClient
	cfg    Config

	// Counters is an optional per-session tally sink; nil disables it.
	Counters *stats.ResourceCounter

	processingMu sync.Mutex
	processing   map[uuid.UUID]time.Time
}

// New creates an Analysis Worker. client may be nil.
func New(in Dequeuer, out Enqueuer, cache repository.CacheStore, client ChatClient, cfg Config) *Worker {
	return &Worker{
		in:         in,
		out:        out,
		cache:      cache,
		client:     client,
		cfg:        cfg,
		processing: make(map[uuid.UUID]time.Time),
	}
}

// Run dequeues and processes items until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.in.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("analysis worker: dequeue failed", slog.Any("error", err))
			continue
		}
		w.process(ctx, item)
	}
}

func (w *Worker) process(ctx context.Context, item entity.CollectedItem) {
	timeGot := time.Now().UTC()

	w.processingMu.Lock()
	if _, inFlight := w.processing[item.UUID]; inFlight {
		slog.Warn("analysis worker: duplicate in-flight item", slog.String("uuid", item.UUID.String()))
	}
	w.processing[item.UUID] = timeGot
	w.processingMu.Unlock()
	defer func() {
		w.processingMu.Lock()
		delete(w.processing, item.UUID)
		w.processingMu.Unlock()
	}()

	if w.client == nil {
		metrics.RecordItemDropped("no_analyzer")
		w.drop(ctx, item.UUID, "no analyzer")
		return
	}

	archived, err := w.analyze(ctx, item, timeGot)
	metrics.RecordAnalysisDuration(time.Since(timeGot))
	if err != nil {
		slog.Error("analysis worker: analysis failed",
			slog.String("uuid", item.UUID.String()), slog.Any("error", err))
		metrics.RecordItemDropped("invalid_response")
		w.drop(ctx, item.UUID, fmt.Sprintf("analysis error: %v", err))
		return
	}

	if archived.Dropped() {
		metrics.RecordItemDropped("no_event_text")
		w.drop(ctx, item.UUID, "no event text")
		return
	}

	if err := w.out.Submit(ctx, *archived); err != nil {
		slog.Error("analysis worker: post-process submit failed",
			slog.String("uuid", item.UUID.String()), slog.Any("error", err))
		w.drop(ctx, item.UUID, fmt.Sprintf("post-process submit failed: %v", err))
	}
}

func (w *Worker) drop(ctx context.Context, id uuid.UUID, reason string) {
	if w.Counters != nil {
		w.Counters.CounterLog([]string{"analysis"}, "dropped")
	}
	slog.Info("analysis worker: dropping item", slog.String("uuid", id.String()), slog.String("reason", reason))
	if err := w.cache.MarkArchived(ctx, id, entity.FlagDropped); err != nil {
		slog.Error("analysis worker: mark dropped failed", slog.String("uuid", id.String()), slog.Any("error", err))
	}
}

func (w *Worker) analyze(ctx context.Context, item entity.CollectedItem, timeGot time.Time) (*entity.ArchivedItem, error) {
	userMessage := buildUserMessage(item)
	req := ChatRequest{
		SystemPrompt: w.cfg.SystemPrompt,
		UserMessage:  userMessage,
		Temperature:  0,
		MaxTokens:    w.cfg.MaxTokens,
	}

	reply, err := w.client.Chat(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llm chat: %w", err)
	}
	w.logConversation(item.UUID, req, reply)

	raw := extractJSON(reply)
	var processed entity.ProcessedItem
	if err := json.Unmarshal(raw, &processed); err != nil {
		return nil, fmt.Errorf("decode processed item: %w", err)
	}
	processed.UUID = item.UUID
	if processed.Informant == "" {
		processed.Informant = item.Informant
	}
	if processed.PubTime == nil {
		processed.PubTime = item.PubTime
	}

	if err := processed.Validate(); err != nil {
		return nil, fmt.Errorf("validate processed item: %w", err)
	}

	archived := &entity.ArchivedItem{
		ProcessedItem: processed,
		RawData:       item.Content,
		Submitter:     item.Source,
		Appendix: entity.Appendix{
			TimeGot: timeGot,
			// TimePost doubles as ARCHIVE_TIME, attached here as current UTC;
			// the Archival Worker does not overwrite it, only sets ArchivedFlag
			// on successful commit.
			TimePost:     time.Now().UTC(),
			TimeArchived: time.Now().UTC(),
			ArchivedFlag: entity.FlagNone,
		},
	}

	if !processed.Dropped() {
		keyOrder, _ := entity.RateKeyOrder(raw, processed.Rate)
		class, score := processed.Rate.MaxRate(w.cfg.ExcludeRateClass, keyOrder)
		archived.Appendix.MaxRateClass = class
		archived.Appendix.MaxRateScore = score
	}

	return archived, nil
}

// buildUserMessage assembles the metadata block (every CollectedItem field
// except content) plus the content block.
func buildUserMessage(item entity.CollectedItem) string {
	var b strings.Builder
	b.WriteString("## Metadata\n")
	fmt.Fprintf(&b, "uuid: %s\n", item.UUID)
	fmt.Fprintf(&b, "source: %s\n", item.Source)
	fmt.Fprintf(&b, "target: %s\n", item.Target)
	fmt.Fprintf(&b, "title: %s\n", item.Title)
	fmt.Fprintf(&b, "authors: %s\n", strings.Join(item.Authors, ", "))
	if item.PubTime != nil {
		fmt.Fprintf(&b, "pub_time: %s\n", item.PubTime.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "informant: %s\n", item.Informant)
	if item.Prompt != "" {
		fmt.Fprintf(&b, "prompt: %s\n", item.Prompt)
	}
	b.WriteString("\n## Content\n")
	b.WriteString(item.Content)
	return b.String()
}

// logConversation writes the system/user/reply transcript of one LLM call
// to a per-call artifact file for auditing (persisted-state
// layout: conversation/<kind>/conversation_<ts>.txt). Failures are logged
// and otherwise ignored: a missing audit file must never fail analysis.
func (w *Worker) logConversation(id uuid.UUID, req ChatRequest, reply string) {
	if w.cfg.ConversationDir == "" {
		return
	}
	kind := w.cfg.WorkerKind
	if kind == "" {
		kind = "analysis"
	}
	dir := filepath.Join(w.cfg.ConversationDir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("analysis worker: conversation dir create failed", slog.Any("error", err))
		return
	}
	name := fmt.Sprintf("conversation_%s_%s.txt", time.Now().UTC().Format("20060102T150405.000000000"), id)
	path := filepath.Join(dir, name)

	var b strings.Builder
	fmt.Fprintf(&b, "=== SYSTEM ===\n%s\n\n", req.SystemPrompt)
	fmt.Fprintf(&b, "=== USER ===\n%s\n\n", req.UserMessage)
	fmt.Fprintf(&b, "=== REPLY ===\n%s\n", reply)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		slog.Warn("analysis worker: conversation artifact write failed", slog.Any("error", err))
	}
}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractJSON strips <think>...</think> segments and surrounding code
// fences from an LLM reply, returning the remaining JSON object bytes
// from the reply.
func extractJSON(reply string) []byte {
	stripped := thinkBlock.ReplaceAllString(reply, "")
	stripped = strings.TrimSpace(stripped)
	if m := codeFence.FindStringSubmatch(stripped); m != nil {
		stripped = strings.TrimSpace(m[1])
	}
	if start := strings.Index(stripped, "{"); start > 0 {
		stripped = stripped[start:]
	}
	if end := strings.LastIndex(stripped, "}"); end >= 0 && end < len(stripped)-1 {
		stripped = stripped[:end+1]
	}
	return []byte(stripped)
}
