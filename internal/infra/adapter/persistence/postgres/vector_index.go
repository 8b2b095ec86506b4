package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"intelhub/internal/pkg/search"
	"intelhub/internal/repository"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// VectorIndex implements repository.VectorIndex against Postgres with the
// pgvector extension. Every AddText call embeds the text through the
// injected Embedder and upserts a single row, so the index is durable by
// construction and Save/Load are no-ops.
type VectorIndex struct {
	db       *sql.DB
	embedder repository.Embedder
}

// NewVectorIndex creates a pgvector-backed VectorIndex.
func NewVectorIndex(db *sql.DB, embedder repository.Embedder) repository.VectorIndex {
	return &VectorIndex{db: db, embedder: embedder}
}

func (v *VectorIndex) AddText(ctx context.Context, itemUUID uuid.UUID, text string) error {
	embedding, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("VectorIndex.AddText: embed: %w", err)
	}
	vector := pgvector.NewVector(embedding)

	const query = `
INSERT INTO archive_embeddings (uuid, embedding, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (uuid) DO UPDATE SET
    embedding = EXCLUDED.embedding,
    updated_at = now()`
	if _, err := v.db.ExecContext(ctx, query, itemUUID, vector); err != nil {
		return fmt.Errorf("VectorIndex.AddText: %w", err)
	}
	return nil
}

func (v *VectorIndex) Search(ctx context.Context, text string, topN int, threshold float64) ([]repository.VectorMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, search.DefaultSearchTimeout)
	defer cancel()

	if topN <= 0 {
		topN = 10
	}
	if topN > 100 {
		topN = 100
	}

	embedding, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("VectorIndex.Search: embed: %w", err)
	}
	vector := pgvector.NewVector(embedding)

	const query = `
SELECT uuid, 1 - (embedding <=> $1) AS similarity
FROM archive_embeddings
WHERE 1 - (embedding <=> $1) >= $2
ORDER BY embedding <=> $1
LIMIT $3`
	rows, err := v.db.QueryContext(ctx, query, vector, threshold, topN)
	if err != nil {
		return nil, fmt.Errorf("VectorIndex.Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	matches := make([]repository.VectorMatch, 0, topN)
	for rows.Next() {
		var m repository.VectorMatch
		if err := rows.Scan(&m.UUID, &m.Score); err != nil {
			return nil, fmt.Errorf("VectorIndex.Search: scan: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (v *VectorIndex) Delete(ctx context.Context, itemUUID uuid.UUID) error {
	const query = `DELETE FROM archive_embeddings WHERE uuid = $1`
	if _, err := v.db.ExecContext(ctx, query, itemUUID); err != nil {
		return fmt.Errorf("VectorIndex.Delete: %w", err)
	}
	return nil
}

// Save is a no-op: every AddText already commits durably (see type doc).
func (v *VectorIndex) Save(ctx context.Context) error { return nil }

// Load is a no-op: there is no in-memory index to warm from disk.
func (v *VectorIndex) Load(ctx context.Context) error { return nil }
