package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"intelhub/internal/observability/metrics"
	"intelhub/internal/resilience/circuitbreaker"
	"intelhub/internal/resilience/retry"
	"intelhub/internal/usecase/analysis"
	"intelhub/internal/utils/text"
)

// OpenAI is an analysis.ChatClient backed by OpenAI's chat completions API.
type OpenAI struct {
	mu             sync.RWMutex
	client         *openai.Client
	model          string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewOpenAI creates an OpenAI-backed ChatClient with the given initial API
// key and model identifier.
func NewOpenAI(apiKey, model string) *OpenAI {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{
		client:         openai.NewClient(apiKey),
		model:          model,
		circuitBreaker: circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
	}
}

// SetAPIKey rebuilds the underlying client with a new API key, mirroring
// Claude.SetAPIKey for the Key Rotator's benefit.
func (o *OpenAI) SetAPIKey(apiKey string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.client = openai.NewClient(apiKey)
}

func (o *OpenAI) Chat(ctx context.Context, req analysis.ChatRequest) (string, error) {
	var result string
	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doChat(ctx, req)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai api circuit breaker open, request rejected",
					slog.String("service", "openai-api"),
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		metrics.RecordLLMCall("openai", false)
		return "", fmt.Errorf("openai chat failed after retries: %w", retryErr)
	}
	metrics.RecordLLMCall("openai", true)
	return result, nil
}

func (o *OpenAI) doChat(ctx context.Context, req analysis.ChatRequest) (string, error) {
	o.mu.RLock()
	client := o.client
	o.mu.RUnlock()

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserMessage},
		},
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "openai chat failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api returned empty response")
	}

	reply := resp.Choices[0].Message.Content
	slog.InfoContext(ctx, "openai chat completed",
		slog.Int("reply_length", text.CountRunes(reply)),
		slog.Duration("duration", duration))
	return reply, nil
}

var _ analysis.ChatClient = (*OpenAI)(nil)
