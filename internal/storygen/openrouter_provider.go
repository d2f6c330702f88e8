package storygen

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const providerNameOpenRouter = "openrouter"

// OpenRouterProvider implements the Provider interface through OpenRouter's
// OpenAI-compatible chat completions endpoint.
type OpenRouterProvider struct {
	client *openai.Client
}

// OpenRouterConfig carries the OpenRouter connection settings
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	AppName string // X-Title attribution header
	SiteURL string // HTTP-Referer attribution header
}

// NewOpenRouterProvider creates a provider backed by OpenRouter
func NewOpenRouterProvider(cfg OpenRouterConfig) *OpenRouterProvider {
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHeader("HTTP-Referer", cfg.SiteURL),
		option.WithHeader("X-Title", cfg.AppName),
	)
	return &OpenRouterProvider{client: &client}
}

// Name returns the provider name
func (p *OpenRouterProvider) Name() string {
	return providerNameOpenRouter
}

// Generate runs one chat completion through OpenRouter
func (p *OpenRouterProvider) Generate(ctx context.Context, request *Request) (*RawResponse, error) {
	startTime := time.Now()
	log.Printf("📖 OPENROUTER GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openrouter.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenRouter)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(request.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(request.SystemPrompt),
			openai.UserMessage(request.UserPrompt),
		},
		MaxTokens:   openai.Int(int64(request.MaxTokens)),
		Temperature: openai.Float(request.Temperature),
	}

	span := transaction.StartChild("openrouter.api_call")
	resp, err := p.client.Chat.Completions.New(ctx, params)
	apiDuration := time.Since(startTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENROUTER REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, &UpstreamError{Provider: "OpenRouter", Message: err.Error()}
	}

	log.Printf("⏱️  OPENROUTER API CALL COMPLETED in %v", apiDuration)

	if len(resp.Choices) == 0 {
		transaction.SetTag("success", "false")
		return nil, ErrEmptyResponse
	}

	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		transaction.SetTag("success", "false")
		return nil, ErrEmptyResponse
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ OPENROUTER GENERATION COMPLETED in %v (%s)", time.Since(startTime),
		fmt.Sprintf("%d tokens", resp.Usage.TotalTokens))

	return &RawResponse{
		Text:         text,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:  int(resp.Usage.TotalTokens),
	}, nil
}
