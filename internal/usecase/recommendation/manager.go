// Package recommendation implements the Recommendation Manager (component
// N): an hourly LLM-driven selection of the most important recent
// archives, persisted and held in a rolling 48h in-memory window.
package recommendation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"intelhub/internal/domain/entity"
	"intelhub/internal/observability/metrics"
	"intelhub/internal/repository"
	"intelhub/internal/usecase/analysis"
	"intelhub/internal/usecase/query"

	"github.com/google/uuid"
)

// WindowDuration is the rolling in-memory retention window.
const WindowDuration = 48 * time.Hour

// recommendationPrompt instructs the LLM to select and return the most
// important candidate UUIDs as a JSON array.
const recommendationPrompt = `You are selecting the most important intelligence items from a candidate list. Given a JSON array of {uuid, event_title, event_brief} objects, return a JSON array of the UUID strings you judge most significant, most important first. Return only the JSON array, nothing else.`

type candidate struct {
	UUID       uuid.UUID `json:"uuid"`
	EventTitle string    `json:"event_title"`
	EventBrief string    `json:"event_brief"`
}

// Manager is the Recommendation Manager.
type Manager struct {
	engine *query.Engine
	store  repository.RecommendationStore
	client analysis.ChatClient

	mu          sync.Mutex
	generating  bool
	windowMu    sync.RWMutex
	window      []entity.RecommendationSet
}

// New creates a Recommendation Manager. window is primed from store's
// last 48h of history.
func New(ctx context.Context, engine *query.Engine, store repository.RecommendationStore, client analysis.ChatClient) *Manager {
	m := &Manager{engine: engine, store: store, client: client}
	if sets, err := store.FindSince(ctx, time.Now().UTC().Add(-WindowDuration)); err == nil {
		m.windowMu.Lock()
		m.window = sets
		m.windowMu.Unlock()
	}
	return m
}

// Generate runs one recommendation cycle over [period start, period end),
// defaulting to the last 24h, skipping if a generation is already in
// flight.
func (m *Manager) Generate(ctx context.Context, periodFrom, periodTo *time.Time, threshold float64, limit int) error {
	m.mu.Lock()
	if m.generating {
		m.mu.Unlock()
		metrics.RecordRecommendationRun("skipped")
		slog.Info("recommendation manager: generation already in progress, skipping")
		return nil
	}
	m.generating = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.generating = false
		m.mu.Unlock()
	}()

	now := time.Now().UTC()
	from := now.Add(-24 * time.Hour)
	if periodFrom != nil {
		from = *periodFrom
	}
	to := now
	if periodTo != nil {
		to = *periodTo
	}

	candidates, err := m.engine.Find(ctx, repository.ArchiveFilter{
		ArchivePeriodFrom: &from,
		ArchivePeriodTo:   &to,
		Threshold:         &threshold,
	}, repository.Page{Limit: limit})
	if err != nil {
		return fmt.Errorf("recommendation manager: query candidates: %w", err)
	}
	if len(candidates) == 0 {
		slog.Info("recommendation manager: no candidates in period")
		return nil
	}

	candidateUUIDs := make([]uuid.UUID, len(candidates))
	payload := make([]candidate, len(candidates))
	byUUID := make(map[uuid.UUID]entity.ArchivedItem, len(candidates))
	for i, c := range candidates {
		candidateUUIDs[i] = c.UUID
		payload[i] = candidate{UUID: c.UUID, EventTitle: c.EventTitle, EventBrief: c.EventBrief}
		byUUID[c.UUID] = c
	}

	selected, err := m.selectViaLLM(ctx, payload)
	if err != nil {
		metrics.RecordRecommendationRun("failed")
		return fmt.Errorf("recommendation manager: llm selection: %w", err)
	}

	recommended := make([]entity.ArchivedItem, 0, len(selected))
	for _, id := range selected {
		if item, ok := byUUID[id]; ok {
			recommended = append(recommended, item)
		}
	}

	set := entity.RecommendationSet{
		GeneratedDatetime:      now,
		Recommendations:        recommended,
		CandidateIntelligences: candidateUUIDs,
	}
	if err := m.store.Upsert(ctx, set); err != nil {
		return fmt.Errorf("recommendation manager: upsert: %w", err)
	}

	m.refreshWindow(set)
	metrics.RecordRecommendationRun("generated")
	slog.Info("recommendation manager: generated",
		slog.Int("candidates", len(candidates)), slog.Int("recommended", len(recommended)))
	return nil
}

func (m *Manager) selectViaLLM(ctx context.Context, payload []candidate) ([]uuid.UUID, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	reply, err := m.client.Chat(ctx, analysis.ChatRequest{
		SystemPrompt: recommendationPrompt,
		UserMessage:  string(body),
		Temperature:  0,
		MaxTokens:    2048,
	})
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(reply)
	if start := strings.Index(trimmed, "["); start > 0 {
		trimmed = trimmed[start:]
	}
	if end := strings.LastIndex(trimmed, "]"); end >= 0 && end < len(trimmed)-1 {
		trimmed = trimmed[:end+1]
	}

	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(trimmed), &ids); err != nil {
		return nil, fmt.Errorf("parse recommended uuid list: %w", err)
	}
	return ids, nil
}

// refreshWindow appends set and prunes any entry older than the 48h
// rolling window.
func (m *Manager) refreshWindow(set entity.RecommendationSet) {
	cutoff := time.Now().UTC().Add(-WindowDuration)

	m.windowMu.Lock()
	defer m.windowMu.Unlock()
	m.window = append(m.window, set)
	pruned := m.window[:0]
	for _, s := range m.window {
		if s.GeneratedDatetime.After(cutoff) {
			pruned = append(pruned, s)
		}
	}
	m.window = pruned
}

// CountIntelligence returns how often each UUID appeared across every
// RecommendationSet generated within the in-memory window's overlap with
// [periodFrom, periodTo), an "importance" signal.
func (m *Manager) CountIntelligence(periodFrom, periodTo time.Time) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)

	m.windowMu.RLock()
	defer m.windowMu.RUnlock()
	for _, set := range m.window {
		if set.GeneratedDatetime.Before(periodFrom) || !set.GeneratedDatetime.Before(periodTo) {
			continue
		}
		for _, item := range set.Recommendations {
			counts[item.UUID]++
		}
	}
	return counts
}
