package storygen

import (
	"context"
	"strings"
)

// Factory creates providers based on the configured model name
type Factory struct {
	openRouter OpenRouterConfig
	geminiKey  string
}

// NewFactory creates a new provider factory
func NewFactory(openRouter OpenRouterConfig, geminiKey string) *Factory {
	return &Factory{
		openRouter: openRouter,
		geminiKey:  geminiKey,
	}
}

// GetProvider returns the provider responsible for the given model.
// Gemini models route to the Gemini API; everything else goes through
// OpenRouter, which multiplexes the rest of the ecosystem.
func (f *Factory) GetProvider(ctx context.Context, model string) (Provider, error) {
	if model == "" {
		return nil, ErrNotConfigured
	}

	if strings.HasPrefix(strings.ToLower(model), "gemini-") {
		if f.geminiKey == "" {
			return nil, ErrNotConfigured
		}
		return NewGeminiProvider(ctx, f.geminiKey)
	}

	if f.openRouter.APIKey == "" {
		return nil, ErrNotConfigured
	}
	return NewOpenRouterProvider(f.openRouter), nil
}
