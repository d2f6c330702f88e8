package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) ElevenLabsConfig {
	return ElevenLabsConfig{
		APIKey:      "test-key",
		ModelID:     "eleven_multilingual_v2",
		MaleVoice:   "voice-m",
		FemaleVoice: "voice-f",
		BaseURL:     baseURL,
	}
}

func TestSynthesizeSuccess(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotBody synthesisRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("xi-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer server.Close()

	el := NewElevenLabs(testConfig(server.URL))
	audio, err := el.Synthesize(context.Background(), "Read this aloud.", VoiceFemale)

	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", audio.MimeType)
	assert.Equal(t, []byte("mp3-bytes"), audio.Bytes)
	assert.Equal(t, "/v1/text-to-speech/voice-f", gotPath)
	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "Read this aloud.", gotBody.Text)
	assert.Equal(t, "mp3_44100_128", gotBody.OutputFormat)
	assert.InDelta(t, 0.5, gotBody.VoiceSettings.Stability, 0.001)
	assert.InDelta(t, 0.75, gotBody.VoiceSettings.SimilarityBoost, 0.001)
}

func TestSynthesizeTruncatesLongInput(t *testing.T) {
	var gotChars int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body synthesisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotChars = len(body.Text)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	el := NewElevenLabs(testConfig(server.URL))
	_, err := el.Synthesize(context.Background(), strings.Repeat("a", 12000), VoiceMale)

	require.NoError(t, err)
	assert.Equal(t, maxSynthesisChars, gotChars)
}

func TestSynthesizeTruncatesOnRuneBoundary(t *testing.T) {
	var gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body synthesisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotText = body.Text
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	// "é" is two bytes, and the leading "a" puts the byte limit mid-rune
	input := "a" + strings.Repeat("é", 6000)

	el := NewElevenLabs(testConfig(server.URL))
	_, err := el.Synthesize(context.Background(), input, VoiceMale)

	require.NoError(t, err)
	assert.True(t, utf8.ValidString(gotText))
	assert.LessOrEqual(t, len(gotText), maxSynthesisChars)
	assert.Equal(t, maxSynthesisChars-1, len(gotText))
}

func TestSynthesizeUpstreamErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":{"message":"invalid api key"}}`))
	}))
	defer server.Close()

	el := NewElevenLabs(testConfig(server.URL))
	_, err := el.Synthesize(context.Background(), "text", VoiceMale)

	require.Error(t, err)
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "ElevenLabs", upstream.Provider)
	assert.Equal(t, "invalid api key", upstream.Message)
}

func TestSynthesizeEmptyAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	el := NewElevenLabs(testConfig(server.URL))
	_, err := el.Synthesize(context.Background(), "text", VoiceMale)

	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestSynthesizeValidation(t *testing.T) {
	el := NewElevenLabs(ElevenLabsConfig{})
	_, err := el.Synthesize(context.Background(), "text", VoiceMale)
	assert.ErrorIs(t, err, ErrNotConfigured)

	el = NewElevenLabs(testConfig("http://unused"))
	_, err = el.Synthesize(context.Background(), "   ", VoiceMale)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParseVoice(t *testing.T) {
	assert.Equal(t, VoiceFemale, ParseVoice("female"))
	assert.Equal(t, VoiceMale, ParseVoice("male"))
	assert.Equal(t, VoiceMale, ParseVoice(""))
	assert.Equal(t, VoiceMale, ParseVoice("robot"))
}
