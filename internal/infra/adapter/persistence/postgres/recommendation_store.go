package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"intelhub/internal/domain/entity"
	"intelhub/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RecommendationStore implements repository.RecommendationStore (component
// N) against Postgres. Only UUIDs are persisted per generation hour; the
// full ArchivedItem bodies are rehydrated from the injected ArchiveStore on
// read, avoiding a second copy of archive content drifting out of sync.
type RecommendationStore struct {
	db      *sql.DB
	archive repository.ArchiveStore
}

// NewRecommendationStore creates a Postgres-backed RecommendationStore.
// archive is used to rehydrate full ArchivedItems on read.
func NewRecommendationStore(db *sql.DB, archive repository.ArchiveStore) repository.RecommendationStore {
	return &RecommendationStore{db: db, archive: archive}
}

func (s *RecommendationStore) Upsert(ctx context.Context, set entity.RecommendationSet) error {
	recommended := make([]uuid.UUID, len(set.Recommendations))
	for i, item := range set.Recommendations {
		recommended[i] = item.UUID
	}

	const query = `
INSERT INTO recommendations (generated_hour, candidate_uuids, recommended_uuids, created_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (generated_hour) DO UPDATE SET
    candidate_uuids   = EXCLUDED.candidate_uuids,
    recommended_uuids = EXCLUDED.recommended_uuids`
	_, err := s.db.ExecContext(ctx, query,
		set.TruncatedHour(), pq.Array(set.CandidateIntelligences), pq.Array(recommended),
	)
	if err != nil {
		return fmt.Errorf("RecommendationStore.Upsert: %w", err)
	}
	return nil
}

func (s *RecommendationStore) FindSince(ctx context.Context, since time.Time) ([]entity.RecommendationSet, error) {
	const query = `
SELECT generated_hour, candidate_uuids, recommended_uuids
FROM recommendations
WHERE generated_hour >= $1
ORDER BY generated_hour ASC`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("RecommendationStore.FindSince: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []entity.RecommendationSet
	for rows.Next() {
		set, err := s.scanAndRehydrate(ctx, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *set)
	}
	return out, rows.Err()
}

func (s *RecommendationStore) Latest(ctx context.Context) (*entity.RecommendationSet, error) {
	const query = `
SELECT generated_hour, candidate_uuids, recommended_uuids
FROM recommendations
ORDER BY generated_hour DESC LIMIT 1`
	row := s.db.QueryRowContext(ctx, query)

	var generatedHour time.Time
	var candidateUUIDs, recommendedUUIDs []uuid.UUID
	if err := row.Scan(&generatedHour, pq.Array(&candidateUUIDs), pq.Array(&recommendedUUIDs)); err != nil {
		if err == sql.ErrNoRows {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("RecommendationStore.Latest: %w", err)
	}
	return s.rehydrate(ctx, generatedHour, candidateUUIDs, recommendedUUIDs)
}

func (s *RecommendationStore) scanAndRehydrate(ctx context.Context, rows *sql.Rows) (*entity.RecommendationSet, error) {
	var generatedHour time.Time
	var candidateUUIDs, recommendedUUIDs []uuid.UUID
	if err := rows.Scan(&generatedHour, pq.Array(&candidateUUIDs), pq.Array(&recommendedUUIDs)); err != nil {
		return nil, fmt.Errorf("RecommendationStore: scan: %w", err)
	}
	return s.rehydrate(ctx, generatedHour, candidateUUIDs, recommendedUUIDs)
}

func (s *RecommendationStore) rehydrate(ctx context.Context, generatedHour time.Time, candidateUUIDs, recommendedUUIDs []uuid.UUID) (*entity.RecommendationSet, error) {
	items := make([]entity.ArchivedItem, 0, len(recommendedUUIDs))
	for _, id := range recommendedUUIDs {
		item, err := s.archive.Get(ctx, id)
		if err != nil {
			// A recommended item may since have been pruned from the
			// Archive Store's retention window; skip rather than fail
			// the whole set.
			continue
		}
		items = append(items, *item)
	}
	return &entity.RecommendationSet{
		GeneratedDatetime:      generatedHour,
		Recommendations:        items,
		CandidateIntelligences: candidateUUIDs,
	}, nil
}
