package config

import "os"

// Config holds the application configuration
// All values come from environment variables; secrets are never logged.
type Config struct {
	// Environment
	Environment string
	Port        string
	AppURL      string // Public base URL, used for OAuth callbacks and Stripe redirects

	// Database
	DatabaseURL string

	// Story generation (OpenRouter is OpenAI-compatible)
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string
	OpenRouterAppName string // Sent as X-Title header
	OpenRouterSiteURL string // Sent as HTTP-Referer header
	GeminiAPIKey      string // Google Gemini API key (alternate provider)

	// Narration synthesis (ElevenLabs)
	ElevenLabsAPIKey      string
	ElevenLabsModelID     string
	ElevenLabsVoiceMale   string
	ElevenLabsVoiceFemale string

	// Payments (Stripe)
	StripeSecretKey         string
	StripeWebhookSecret     string
	StripePriceBasicMonthly string
	StripePriceBasicAnnual  string
	StripePriceProMonthly   string
	StripePriceProAnnual    string

	// Auth
	JWTSecret          string
	SessionSecret      string
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string

	// Storage
	AudioBucket string // Public S3 bucket for narration audio and avatars
	AWSRegion   string

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
}

func Load() *Config {
	return &Config{
		Environment:             getEnv("ENVIRONMENT", "development"),
		Port:                    getEnv("PORT", "8080"),
		AppURL:                  getEnv("APP_URL", "http://localhost:8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		OpenRouterAPIKey:        getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:         getEnv("OPENROUTER_MODEL", ""),
		OpenRouterBaseURL:       getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterAppName:       getEnv("OPENROUTER_APP_NAME", "Razberry"),
		OpenRouterSiteURL:       getEnv("OPENROUTER_SITE_URL", "http://localhost:8080"),
		GeminiAPIKey:            getEnv("GEMINI_API_KEY", ""),
		ElevenLabsAPIKey:        getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsModelID:       getEnv("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),
		ElevenLabsVoiceMale:     getEnv("ELEVENLABS_VOICE_ID_MALE", ""),
		ElevenLabsVoiceFemale:   getEnv("ELEVENLABS_VOICE_ID_FEMALE", ""),
		StripeSecretKey:         getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:     getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceBasicMonthly: getEnv("STRIPE_PRICE_BASIC_MONTHLY", ""),
		StripePriceBasicAnnual:  getEnv("STRIPE_PRICE_BASIC_ANNUAL", ""),
		StripePriceProMonthly:   getEnv("STRIPE_PRICE_PRO_MONTHLY", ""),
		StripePriceProAnnual:    getEnv("STRIPE_PRICE_PRO_ANNUAL", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		SessionSecret:           getEnv("SESSION_SECRET", ""),
		GoogleClientID:          getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:      getEnv("GOOGLE_CLIENT_SECRET", ""),
		GitHubClientID:          getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret:      getEnv("GITHUB_CLIENT_SECRET", ""),
		AudioBucket:             getEnv("AUDIO_BUCKET", "razberry-audio"),
		AWSRegion:               getEnv("AWS_REGION", "us-east-1"),
		SentryDSN:               getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:       getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:       getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:            getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:         getEnv("LANGFUSE_ENABLED", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// VoiceID maps a voice gender to the configured ElevenLabs voice.
// Unknown values fall back to the male voice.
func (c *Config) VoiceID(gender string) string {
	if gender == "female" {
		return c.ElevenLabsVoiceFemale
	}
	return c.ElevenLabsVoiceMale
}

// StripePriceID resolves a plan/billing period pair to a price ID.
// Returns "" for unknown combinations.
func (c *Config) StripePriceID(plan, billingPeriod string) string {
	switch plan + "/" + billingPeriod {
	case "basic/monthly":
		return c.StripePriceBasicMonthly
	case "basic/annual":
		return c.StripePriceBasicAnnual
	case "pro/monthly":
		return c.StripePriceProMonthly
	case "pro/annual":
		return c.StripePriceProAnnual
	}
	return ""
}
