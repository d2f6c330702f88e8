package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razberry-fun/razberry-api/internal/storygen"
	"github.com/razberry-fun/razberry-api/internal/tts"
)

type stubProvider struct {
	text  string
	err   error
	calls int
}

func (p *stubProvider) Generate(_ context.Context, _ *storygen.Request) (*storygen.RawResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &storygen.RawResponse{Text: p.text, TotalTokens: 42}, nil
}

func (p *stubProvider) Name() string { return "stub" }

type stubProviderSource struct {
	provider storygen.Provider
	err      error
}

func (s *stubProviderSource) GetProvider(_ context.Context, _ string) (storygen.Provider, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.provider, nil
}

type stubSynth struct {
	audio *tts.Audio
	err   error
	calls int
}

func (s *stubSynth) Synthesize(_ context.Context, _ string, _ tts.Voice) (*tts.Audio, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.audio, nil
}

const wellFormedOutput = "TITLE: The Late Shift\nDESCRIPTION: Closing time changes everything.\nSTORY: The bar had emptied an hour ago."

func newTestService(provider storygen.Provider, synth tts.Synthesizer) *GenerationService {
	return NewGenerationService(&stubProviderSource{provider: provider}, synth, "test-model", nil, nil, nil)
}

func TestGenerateFullOutcome(t *testing.T) {
	provider := &stubProvider{text: wellFormedOutput}
	synth := &stubSynth{audio: &tts.Audio{MimeType: "audio/mpeg", Bytes: []byte("mp3")}}
	svc := newTestService(provider, synth)

	outcome := svc.Generate(context.Background(), &GenerationRequest{
		Prompt: "a bartender and the last customer",
		Voice:  tts.VoiceFemale,
	})

	require.Equal(t, OutcomeFull, outcome.Kind)
	assert.Equal(t, "The Late Shift", outcome.Story.Title)
	assert.Equal(t, "Closing time changes everything.", outcome.Story.Description)
	assert.Equal(t, "The bar had emptied an hour ago.", outcome.Story.Body)
	require.NotNil(t, outcome.Audio)
	assert.Equal(t, "audio/mpeg", outcome.Audio.MimeType)
}

func TestGenerateRejectsBadPromptsBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{"empty prompt", ""},
		{"over limit", strings.Repeat("x", 1001)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubProvider{text: wellFormedOutput}
			synth := &stubSynth{}
			svc := newTestService(provider, synth)

			outcome := svc.Generate(context.Background(), &GenerationRequest{Prompt: tt.prompt})

			assert.Equal(t, OutcomeInvalid, outcome.Kind)
			assert.Zero(t, provider.calls)
			assert.Zero(t, synth.calls)
		})
	}
}

func TestGeneratePromptBoundaryAccepted(t *testing.T) {
	provider := &stubProvider{text: wellFormedOutput}
	synth := &stubSynth{audio: &tts.Audio{MimeType: "audio/mpeg", Bytes: []byte("mp3")}}
	svc := newTestService(provider, synth)

	outcome := svc.Generate(context.Background(), &GenerationRequest{
		Prompt: strings.Repeat("x", 1000),
	})

	assert.Equal(t, OutcomeFull, outcome.Kind)
}

func TestGeneratePartialOnAudioFailure(t *testing.T) {
	provider := &stubProvider{text: wellFormedOutput}
	synth := &stubSynth{err: tts.ErrEmptyAudio}
	svc := newTestService(provider, synth)

	outcome := svc.Generate(context.Background(), &GenerationRequest{Prompt: "p"})

	require.Equal(t, OutcomePartial, outcome.Kind)
	assert.Equal(t, "The Late Shift", outcome.Story.Title)
	assert.Nil(t, outcome.Audio)
	assert.False(t, outcome.AudioProviderDown)
	assert.ErrorIs(t, outcome.AudioErr, tts.ErrEmptyAudio)
}

func TestGenerateFlagsProviderIdentifiedAudioFailure(t *testing.T) {
	provider := &stubProvider{text: wellFormedOutput}
	synth := &stubSynth{err: &tts.UpstreamError{Provider: "ElevenLabs", Message: "quota exceeded"}}
	svc := newTestService(provider, synth)

	outcome := svc.Generate(context.Background(), &GenerationRequest{Prompt: "p"})

	require.Equal(t, OutcomePartial, outcome.Kind)
	assert.True(t, outcome.AudioProviderDown)
	assert.Equal(t, "The Late Shift", outcome.Story.Title)
}

func TestGenerateMisconfigured(t *testing.T) {
	svc := NewGenerationService(&stubProviderSource{err: storygen.ErrNotConfigured}, &stubSynth{}, "test-model", nil, nil, nil)

	outcome := svc.Generate(context.Background(), &GenerationRequest{Prompt: "p"})

	assert.Equal(t, OutcomeMisconfigured, outcome.Kind)
	assert.Empty(t, outcome.Story.Body)
}

func TestGenerateFailedOnStoryError(t *testing.T) {
	provider := &stubProvider{err: &storygen.UpstreamError{Provider: "OpenRouter", Message: "rate limited"}}
	synth := &stubSynth{}
	svc := newTestService(provider, synth)

	outcome := svc.Generate(context.Background(), &GenerationRequest{Prompt: "p"})

	require.Equal(t, OutcomeFailed, outcome.Kind)
	assert.Contains(t, outcome.Message, "rate limited")
	assert.Empty(t, outcome.Story.Body)
	assert.Zero(t, synth.calls)
}

func TestGenerateLenientParsingFlowsThrough(t *testing.T) {
	provider := &stubProvider{text: "just a plain story with no markers"}
	synth := &stubSynth{audio: &tts.Audio{MimeType: "audio/mpeg", Bytes: []byte("mp3")}}
	svc := newTestService(provider, synth)

	outcome := svc.Generate(context.Background(), &GenerationRequest{Prompt: "p"})

	require.Equal(t, OutcomeFull, outcome.Kind)
	assert.Equal(t, storygen.DefaultTitle, outcome.Story.Title)
	assert.Equal(t, "just a plain story with no markers", outcome.Story.Body)
}
