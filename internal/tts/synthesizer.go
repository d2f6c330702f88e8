package tts

import (
	"context"
	"errors"
)

// Voice selects which configured narrator reads the story
type Voice string

const (
	VoiceMale   Voice = "male"
	VoiceFemale Voice = "female"
)

// ParseVoice normalizes a request value to a known voice.
// Anything unrecognized falls back to the male narrator.
func ParseVoice(s string) Voice {
	if s == string(VoiceFemale) {
		return VoiceFemale
	}
	return VoiceMale
}

// Audio is a synthesized narration clip
type Audio struct {
	MimeType string
	Bytes    []byte
}

// Synthesizer defines the interface for narration backends
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice) (*Audio, error)
}

// ErrNotConfigured means the synthesis API key or voice IDs are missing
var ErrNotConfigured = errors.New("narration synthesizer not configured")

// ErrEmptyInput means there was no text to narrate
var ErrEmptyInput = errors.New("no text to synthesize")

// ErrEmptyAudio means the provider answered 2xx with zero audio bytes
var ErrEmptyAudio = errors.New("synthesizer returned empty audio")

// UpstreamError wraps a failure reported by the synthesis provider.
// The message carries the provider name so callers can tell a provider
// outage apart from local failures.
type UpstreamError struct {
	Provider string
	Message  string
}

func (e *UpstreamError) Error() string {
	return e.Provider + ": " + e.Message
}
