package storygen

import "context"

// Provider defines the interface for story completion backends
type Provider interface {
	// Generate runs one completion and returns the raw model text
	Generate(ctx context.Context, request *Request) (*RawResponse, error)

	// Name returns the provider name (e.g. "openrouter", "gemini")
	Name() string
}

// Request contains all parameters for one completion
type Request struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// RawResponse contains the unparsed completion and token usage
type RawResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
