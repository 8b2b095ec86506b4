package repository

import (
	"context"

	"github.com/google/uuid"
)

// VectorMatch is one result of a VectorIndex.Search call.
type VectorMatch struct {
	UUID  uuid.UUID
	Score float64
}

// VectorIndex is the optional text-similarity index over archived items.
// The Postgres/pgvector-backed implementation makes Save/Load no-ops:
// every AddText is already durable as a single INSERT, so there is no
// batch index to flush or reload. Search de-duplicates by UUID when
// multiple chunks of the same item match.
type VectorIndex interface {
	AddText(ctx context.Context, itemUUID uuid.UUID, text string) error
	Search(ctx context.Context, text string, topN int, threshold float64) ([]VectorMatch, error)
	Delete(ctx context.Context, itemUUID uuid.UUID) error
	Save(ctx context.Context) error
	Load(ctx context.Context) error
}
