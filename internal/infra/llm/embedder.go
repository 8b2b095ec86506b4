package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// embedRPS caps outgoing embedding calls. The Archival Worker embeds one
// EVENT_TEXT per archived item; a small token bucket keeps a replay burst
// after restart from hammering the embeddings endpoint.
const (
	embedRPS   = 5
	embedBurst = 10
)

// OpenAIEmbedder implements repository.Embedder over OpenAI's embeddings
// API, for the Vector Index.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	limiter *rate.Limiter
}

// NewOpenAIEmbedder creates an Embedder. model defaults to
// openai.AdaEmbeddingV2 when empty.
func NewOpenAIEmbedder(apiKey string, model openai.EmbeddingModel) *OpenAIEmbedder {
	if model == "" {
		model = openai.AdaEmbeddingV2
	}
	return &OpenAIEmbedder{
		client:  openai.NewClient(apiKey),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(embedRPS), embedBurst),
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embed: empty response")
	}
	return resp.Data[0].Embedding, nil
}
