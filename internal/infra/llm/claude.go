// Package llm provides ChatClient implementations for the Analysis
// Worker, backed by Anthropic's Claude API and OpenAI's API. Both wrap
// calls in circuit breaker and retry logic and expose SetAPIKey so the
// Key Rotator can swap the active token on a live client.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"intelhub/internal/observability/metrics"
	"intelhub/internal/resilience/circuitbreaker"
	"intelhub/internal/resilience/retry"
	"intelhub/internal/usecase/analysis"
	"intelhub/internal/utils/text"
)

// Claude is an analysis.ChatClient backed by Anthropic's Messages API.
type Claude struct {
	mu             sync.RWMutex
	client         anthropic.Client
	model          string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewClaude creates a Claude-backed ChatClient with the given initial API
// key and model identifier.
func NewClaude(apiKey, model string) *Claude {
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}
	return &Claude{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:          model,
		circuitBreaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:    retry.AIAPIConfig(),
	}
}

// SetAPIKey rebuilds the underlying client with a new API key. Called by
// the Key Rotator when it activates a different key; holding mu for the
// duration ensures no in-flight Chat call observes a half-swapped client.
func (c *Claude) SetAPIKey(apiKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client = anthropic.NewClient(option.WithAPIKey(apiKey))
}

func (c *Claude) Chat(ctx context.Context, req analysis.ChatRequest) (string, error) {
	var result string
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doChat(ctx, req)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("service", "claude-api"),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		metrics.RecordLLMCall("claude", false)
		return "", fmt.Errorf("claude chat failed after retries: %w", retryErr)
	}
	metrics.RecordLLMCall("claude", true)
	return result, nil
}

func (c *Claude) doChat(ctx context.Context, req analysis.ChatRequest) (string, error) {
	requestID := uuid.New().String()
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	start := time.Now()
	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		System:    []anthropic.TextBlockParam{{Text: req.SystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserMessage)),
		},
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "claude chat failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("claude api error: %w", err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("claude api returned empty response")
	}
	block, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("claude api returned unexpected response type")
	}

	slog.InfoContext(ctx, "claude chat completed",
		slog.String("request_id", requestID),
		slog.Int("reply_length", text.CountRunes(block.Text)),
		slog.Duration("duration", duration))
	return block.Text, nil
}

var _ analysis.ChatClient = (*Claude)(nil)
