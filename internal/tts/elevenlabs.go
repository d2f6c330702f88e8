package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/getsentry/sentry-go"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io"
	providerName      = "ElevenLabs"

	// ElevenLabs rejects very long inputs, so text is truncated client-side
	maxSynthesisChars = 10000

	outputFormat         = "mp3_44100_128"
	mimeTypeMP3          = "audio/mpeg"
	voiceStability       = 0.5
	voiceSimilarityBoost = 0.75
)

// ElevenLabs implements Synthesizer against the ElevenLabs HTTP API
type ElevenLabs struct {
	apiKey      string
	modelID     string
	maleVoice   string
	femaleVoice string
	baseURL     string
	httpClient  *http.Client
}

// ElevenLabsConfig carries the ElevenLabs connection settings
type ElevenLabsConfig struct {
	APIKey      string
	ModelID     string
	MaleVoice   string
	FemaleVoice string
	BaseURL     string // Overridable for tests; defaults to the public API
}

// NewElevenLabs creates the ElevenLabs synthesizer
func NewElevenLabs(cfg ElevenLabsConfig) *ElevenLabs {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = elevenLabsBaseURL
	}
	return &ElevenLabs{
		apiKey:      cfg.APIKey,
		modelID:     cfg.ModelID,
		maleVoice:   cfg.MaleVoice,
		femaleVoice: cfg.FemaleVoice,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	OutputFormat  string        `json:"output_format"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize narrates text with the requested voice and returns MP3 audio
func (e *ElevenLabs) Synthesize(ctx context.Context, text string, voice Voice) (*Audio, error) {
	if e.apiKey == "" || e.modelID == "" {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	voiceID := e.voiceID(voice)
	if voiceID == "" {
		return nil, ErrNotConfigured
	}

	if len(text) > maxSynthesisChars {
		cut := maxSynthesisChars
		// Back off to a rune boundary so the cut never splits a character
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		log.Printf("⚠️  Truncating narration input from %d to %d chars", len(text), cut)
		text = text[:cut]
	}

	startTime := time.Now()
	log.Printf("🎵 ELEVENLABS SYNTHESIS STARTED (voice: %s, chars: %d)", voice, len(text))

	transaction := sentry.StartTransaction(ctx, "elevenlabs.synthesize")
	defer transaction.Finish()
	transaction.SetTag("voice", string(voice))

	body, err := e.makeSynthesisRequest(ctx, voiceID, text)
	if err != nil {
		log.Printf("❌ ELEVENLABS SYNTHESIS FAILED after %v: %v", time.Since(startTime), err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, err
	}

	if len(body) == 0 {
		transaction.SetTag("success", "false")
		return nil, ErrEmptyAudio
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ ELEVENLABS SYNTHESIS COMPLETED in %v (%d bytes)", time.Since(startTime), len(body))

	return &Audio{MimeType: mimeTypeMP3, Bytes: body}, nil
}

func (e *ElevenLabs) voiceID(voice Voice) string {
	if voice == VoiceFemale {
		return e.femaleVoice
	}
	return e.maleVoice
}

// makeSynthesisRequest sends the raw HTTP request to ElevenLabs
func (e *ElevenLabs) makeSynthesisRequest(ctx context.Context, voiceID, text string) ([]byte, error) {
	payload := synthesisRequest{
		Text:         text,
		ModelID:      e.modelID,
		OutputFormat: outputFormat,
		VoiceSettings: voiceSettings{
			Stability:       voiceStability,
			SimilarityBoost: voiceSimilarityBoost,
		},
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", e.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payloadJSON))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", mimeTypeMP3)

	httpResp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: providerName, Message: err.Error()}
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			log.Printf("⚠️  Failed to close response body: %v", closeErr)
		}
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &UpstreamError{Provider: providerName, Message: err.Error()}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &UpstreamError{
			Provider: providerName,
			Message:  extractErrorMessage(body, httpResp.Status),
		}
	}

	return body, nil
}

// extractErrorMessage pulls a human-readable message from an ElevenLabs
// error payload, which comes as {detail:{message}} or {error}.
func extractErrorMessage(body []byte, fallback string) string {
	var payload struct {
		Detail struct {
			Message string `json:"message"`
		} `json:"detail"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail.Message != "" {
			return payload.Detail.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return fallback
}
