package analysis

import "context"

// ChatRequest is one Analysis Worker call to an LLM backend: a configurable
// system prompt plus the assembled user message (metadata block + content
// block).
type ChatRequest struct {
	SystemPrompt string
	UserMessage  string
	Temperature  float64
	MaxTokens    int
}

// ChatClient abstracts the LLM backend the Analysis Worker talks to so the
// worker loop doesn't care whether it is wired to Claude or OpenAI, and so
// the Key Rotator can swap the active API key underneath a
// live client without the worker noticing.
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (reply string, err error)
}
