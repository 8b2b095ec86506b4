package repository

import (
	"context"
	"time"

	"intelhub/internal/domain/entity"
)

// RecommendationStore persists RecommendationSets, one document per
// generation hour, upserted by the Recommendation Manager and keyed by
// RecommendationSet.TruncatedHour().
type RecommendationStore interface {
	Upsert(ctx context.Context, set entity.RecommendationSet) error
	FindSince(ctx context.Context, since time.Time) ([]entity.RecommendationSet, error)
	Latest(ctx context.Context) (*entity.RecommendationSet, error)
}
