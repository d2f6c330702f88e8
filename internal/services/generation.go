package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/razberry-fun/razberry-api/internal/logger"
	"github.com/razberry-fun/razberry-api/internal/metrics"
	"github.com/razberry-fun/razberry-api/internal/models"
	"github.com/razberry-fun/razberry-api/internal/observability"
	"github.com/razberry-fun/razberry-api/internal/storygen"
	"github.com/razberry-fun/razberry-api/internal/tts"
)

const (
	minPromptChars = 1
	maxPromptChars = 1000

	// mp3_44100_128 is 128 kbit/s, so 16000 bytes per second of audio
	mp3BytesPerSecond = 16000
)

// OutcomeKind classifies how a generation ended
type OutcomeKind string

const (
	OutcomeFull          OutcomeKind = "full"          // story + audio
	OutcomePartial       OutcomeKind = "partial"       // story, audio failed
	OutcomeInvalid       OutcomeKind = "invalid"       // bad prompt, nothing called
	OutcomeMisconfigured OutcomeKind = "misconfigured" // provider credentials missing
	OutcomeFailed        OutcomeKind = "failed"        // story generation failed
)

// GenerationRequest is one story request after gating decisions
type GenerationRequest struct {
	Prompt     string
	SampleMode bool
	Voice      tts.Voice
	ProfileID  *uint
	RequestID  string
}

// Outcome is the tagged result of a generation. Story fields are only
// meaningful for OutcomeFull and OutcomePartial.
type Outcome struct {
	Kind  OutcomeKind
	Story storygen.Story
	Audio *tts.Audio

	// Set for OutcomePartial
	AudioErr          error
	AudioProviderDown bool // the synthesis provider identified itself in the failure

	// Human-readable message for invalid and failed outcomes
	Message string
}

// ProviderSource resolves the provider for the configured model
type ProviderSource interface {
	GetProvider(ctx context.Context, model string) (storygen.Provider, error)
}

// GenerationService orchestrates story generation and narration synthesis
type GenerationService struct {
	providers     ProviderSource
	synth         tts.Synthesizer
	model         string
	usage         *UsageService
	cloudwatch    *metrics.Client
	sentryMetrics *metrics.SentryMetrics
}

// NewGenerationService creates the orchestrator. usage, cloudwatch, and
// sentryMetrics may be nil (tests, minimal deployments).
func NewGenerationService(
	providers ProviderSource,
	synth tts.Synthesizer,
	model string,
	usage *UsageService,
	cloudwatch *metrics.Client,
	sentryMetrics *metrics.SentryMetrics,
) *GenerationService {
	return &GenerationService{
		providers:     providers,
		synth:         synth,
		model:         model,
		usage:         usage,
		cloudwatch:    cloudwatch,
		sentryMetrics: sentryMetrics,
	}
}

// Generate runs one story generation end to end. A story without audio is
// still a success: synthesis failures degrade the outcome to partial
// instead of failing the request.
func (s *GenerationService) Generate(ctx context.Context, request *GenerationRequest) *Outcome {
	startTime := time.Now()

	promptLen := utf8.RuneCountInString(request.Prompt)
	if promptLen < minPromptChars || promptLen > maxPromptChars {
		return &Outcome{
			Kind:    OutcomeInvalid,
			Message: "Prompt must be between 1 and 1000 characters",
		}
	}

	provider, err := s.providers.GetProvider(ctx, s.model)
	if err != nil {
		if errors.Is(err, storygen.ErrNotConfigured) {
			return &Outcome{Kind: OutcomeMisconfigured}
		}
		return &Outcome{Kind: OutcomeFailed, Message: err.Error()}
	}

	raw, genErr := s.generateStory(ctx, provider, request)
	if genErr != nil {
		s.recordGeneration(ctx, request, nil, 0, false, startTime)
		if errors.Is(genErr, storygen.ErrNotConfigured) {
			return &Outcome{Kind: OutcomeMisconfigured}
		}
		return &Outcome{Kind: OutcomeFailed, Message: genErr.Error()}
	}

	story := storygen.ParseStory(raw.Text)

	outcome := &Outcome{Kind: OutcomeFull, Story: story}
	audio, audioErr := s.synth.Synthesize(ctx, story.Body, request.Voice)
	audioSeconds := 0.0
	if audioErr != nil {
		outcome.Kind = OutcomePartial
		outcome.AudioErr = audioErr
		var upstream *tts.UpstreamError
		outcome.AudioProviderDown = errors.As(audioErr, &upstream)
		logger.Warn("Audio synthesis failed", logger.Fields{
			"request_id": request.RequestID,
			"error":      audioErr.Error(),
		})
	} else {
		outcome.Audio = audio
		audioSeconds = float64(len(audio.Bytes)) / mp3BytesPerSecond
	}

	if s.cloudwatch != nil {
		s.cloudwatch.RecordTokenUsage(s.model, raw.TotalTokens, raw.InputTokens, raw.OutputTokens)
		s.cloudwatch.RecordAudioSynthesis(audioByteCount(audio), audioErr != nil)
	}
	if s.sentryMetrics != nil {
		s.sentryMetrics.RecordTokenUsage(ctx, s.model, raw.TotalTokens, raw.InputTokens, raw.OutputTokens)
		s.sentryMetrics.RecordAudioSynthesis(ctx, audioByteCount(audio), audioErr != nil)
	}
	s.recordGeneration(ctx, request, &story, audioSeconds, audioErr != nil, startTime)

	logger.LogStoryGeneration(ctx, s.model, time.Since(startTime), logger.Fields{
		"request_id":   request.RequestID,
		"sample_mode":  request.SampleMode,
		"story_chars":  len(story.Body),
		"audio_failed": audioErr != nil,
	})

	return outcome
}

// generateStory runs the provider call wrapped in a Langfuse trace
func (s *GenerationService) generateStory(
	ctx context.Context,
	provider storygen.Provider,
	request *GenerationRequest,
) (*storygen.RawResponse, error) {
	systemPrompt := storygen.SystemPrompt(request.SampleMode)
	genRequest := &storygen.Request{
		Model:        s.model,
		SystemPrompt: systemPrompt,
		UserPrompt:   request.Prompt,
		MaxTokens:    storygen.MaxTokens(request.SampleMode),
		Temperature:  storygen.DefaultTemperature,
	}

	trace := observability.GetClient().StartTrace(ctx, "story.generate", map[string]interface{}{
		"provider":    provider.Name(),
		"sample_mode": request.SampleMode,
		"request_id":  request.RequestID,
	})
	generation := trace.Generation("story.completion", nil)

	raw, err := provider.Generate(ctx, genRequest)

	if err != nil {
		generation.SetLevel("ERROR")
		generation.Output(err.Error())
	} else {
		generation.LogStoryCompletion(s.model, systemPrompt, request.Prompt, raw)
	}
	generation.Finish()
	trace.Finish()

	return raw, err
}

// recordGeneration writes metrics and the usage log row
func (s *GenerationService) recordGeneration(
	ctx context.Context,
	request *GenerationRequest,
	story *storygen.Story,
	audioSeconds float64,
	audioFailed bool,
	startTime time.Time,
) {
	duration := time.Since(startTime)
	success := story != nil

	if s.cloudwatch != nil {
		s.cloudwatch.RecordGenerationDuration(duration, success)
	}
	if s.sentryMetrics != nil {
		s.sentryMetrics.RecordGenerationDuration(ctx, duration, success)
	}

	if s.usage == nil {
		return
	}

	entry := &models.GenerationLog{
		ProfileID:    request.ProfileID,
		Model:        s.model,
		SampleMode:   request.SampleMode,
		PromptChars:  utf8.RuneCountInString(request.Prompt),
		AudioSeconds: audioSeconds,
		AudioFailed:  audioFailed,
		DurationMS:   int(duration.Milliseconds()),
		RequestID:    request.RequestID,
	}
	if story != nil {
		entry.StoryChars = len(story.Body)
	}
	if err := s.usage.RecordGeneration(ctx, entry, audioSeconds); err != nil {
		logger.Error("Failed to record generation usage", err, logger.Fields{
			"request_id": request.RequestID,
		})
	}
}

func audioByteCount(audio *tts.Audio) int {
	if audio == nil {
		return 0
	}
	return len(audio.Bytes)
}
