package llm

import "context"

// Provider defines the interface for LLM providers
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// Stream delivers the reply incrementally. A non-nil error from fn aborts
	// the stream and is returned.
	Stream(ctx context.Context, req ChatRequest, fn ChunkFunc) error
}

// ChunkFunc receives one piece of streamed text.
type ChunkFunc func(chunk string) error

// ChatRequest holds the request parameters
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
}

// Message represents a chat message
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// UserPrompt builds a single-message request.
func UserPrompt(system, prompt string) ChatRequest {
	return ChatRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: "user", Content: prompt}},
	}
}

// ChatResponse holds the response from the LLM
type ChatResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// DefaultMaxTokens is used when a request leaves MaxTokens unset.
const DefaultMaxTokens = 1024

// MaxTokensOrDefault returns MaxTokens or DefaultMaxTokens when unset.
func (r ChatRequest) MaxTokensOrDefault() int {
	if r.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return r.MaxTokens
}
