package storygen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryRoutesToOpenRouter(t *testing.T) {
	factory := NewFactory(OpenRouterConfig{
		APIKey:  "test-key",
		BaseURL: "https://openrouter.ai/api/v1",
	}, "")

	provider, err := factory.GetProvider(context.Background(), "mistralai/mistral-small")
	require.NoError(t, err)
	assert.Equal(t, "openrouter", provider.Name())
}

func TestFactoryRequiresModel(t *testing.T) {
	factory := NewFactory(OpenRouterConfig{APIKey: "test-key"}, "")

	_, err := factory.GetProvider(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	factory := NewFactory(OpenRouterConfig{}, "")

	_, err := factory.GetProvider(context.Background(), "mistralai/mistral-small")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestFactoryGeminiNeedsKey(t *testing.T) {
	factory := NewFactory(OpenRouterConfig{APIKey: "test-key"}, "")

	_, err := factory.GetProvider(context.Background(), "gemini-2.0-flash")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
