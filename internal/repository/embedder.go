package repository

import "context"

// Embedder turns free text into a fixed-dimension vector for the Vector
// Index. The Postgres/pgvector adapter depends on this
// interface rather than importing an AI backend directly, mirroring the
// ChatClient abstraction the Analysis Worker uses for its LLM calls, so
// the embedding backend can be swapped from cmd/hub's wiring.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
