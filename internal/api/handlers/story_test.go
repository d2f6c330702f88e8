package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razberry-fun/razberry-api/internal/gate"
	"github.com/razberry-fun/razberry-api/internal/services"
	"github.com/razberry-fun/razberry-api/internal/storygen"
	"github.com/razberry-fun/razberry-api/internal/tts"
)

type capturingProvider struct {
	text    string
	err     error
	lastReq *storygen.Request
}

func (p *capturingProvider) Generate(_ context.Context, req *storygen.Request) (*storygen.RawResponse, error) {
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return &storygen.RawResponse{Text: p.text, TotalTokens: 42}, nil
}

func (p *capturingProvider) Name() string { return "stub" }

type fixedProviderSource struct {
	provider storygen.Provider
	err      error
}

func (s *fixedProviderSource) GetProvider(_ context.Context, _ string) (storygen.Provider, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.provider, nil
}

type fixedSynth struct {
	audio *tts.Audio
	err   error
}

func (s *fixedSynth) Synthesize(_ context.Context, _ string, _ tts.Voice) (*tts.Audio, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.audio, nil
}

const storyTestOutput = "TITLE: After Hours\nDESCRIPTION: The office empties out.\nSTORY: She stayed late on purpose."

func newStoryTestRouter(provider storygen.Provider, synth tts.Synthesizer, providerErr error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := services.NewGenerationService(
		&fixedProviderSource{provider: provider, err: providerErr},
		synth, "test-model", nil, nil, nil,
	)
	store := gate.NewSessionStore("test-secret", false)
	handler := NewStoryHandler(service, nil, store)

	router := gin.New()
	router.POST("/api/story", handler.Generate)
	return router
}

func postStory(router *gin.Engine, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/story", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStoryGenerateReturnsStoryAndAudio(t *testing.T) {
	provider := &capturingProvider{text: storyTestOutput}
	synth := &fixedSynth{audio: &tts.Audio{MimeType: "audio/mpeg", Bytes: []byte("mp3 bytes")}}
	router := newStoryTestRouter(provider, synth, nil)

	w := postStory(router, `{"prompt":"a quiet office at midnight","voiceGender":"female"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "After Hours", body["storyTitle"])
	assert.Equal(t, "The office empties out.", body["storyDescription"])
	assert.Equal(t, "She stayed late on purpose.", body["storyText"])

	audio, ok := body["audio"].(map[string]interface{})
	require.True(t, ok, "response should carry an audio object")
	assert.Equal(t, "audio/mpeg", audio["mime"])
	decoded, err := base64.StdEncoding.DecodeString(audio["base64"].(string))
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3 bytes"), decoded)
}

func TestStoryGenerateAnonymousForcedToSample(t *testing.T) {
	provider := &capturingProvider{text: storyTestOutput}
	synth := &fixedSynth{audio: &tts.Audio{MimeType: "audio/mpeg", Bytes: []byte("mp3")}}
	router := newStoryTestRouter(provider, synth, nil)

	// isSample false, but the request carries no JWT
	w := postStory(router, `{"prompt":"test","isSample":false}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, provider.lastReq)
	assert.Equal(t, storygen.MaxTokens(true), provider.lastReq.MaxTokens)
	assert.Equal(t, storygen.SystemPrompt(true), provider.lastReq.SystemPrompt)
}

func TestStoryGenerateAudioFailureKeepsStory(t *testing.T) {
	provider := &capturingProvider{text: storyTestOutput}
	synth := &fixedSynth{err: tts.ErrEmptyAudio}
	router := newStoryTestRouter(provider, synth, nil)

	w := postStory(router, `{"prompt":"test"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "After Hours", body["storyTitle"])
	assert.NotEmpty(t, body["error"])
	assert.Nil(t, body["audio"])
}

func TestStoryGenerateProviderDownReturnsBadGateway(t *testing.T) {
	provider := &capturingProvider{text: storyTestOutput}
	synth := &fixedSynth{err: &tts.UpstreamError{Provider: "ElevenLabs", Message: "service unavailable"}}
	router := newStoryTestRouter(provider, synth, nil)

	w := postStory(router, `{"prompt":"test"}`, nil)

	require.Equal(t, http.StatusBadGateway, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "After Hours", body["storyTitle"])
	assert.Equal(t, "She stayed late on purpose.", body["storyText"])
	assert.Contains(t, body["error"], "ElevenLabs")
}

func TestStorySecondAnonymousSubmitRedirectsToPricing(t *testing.T) {
	provider := &capturingProvider{text: storyTestOutput}
	synth := &fixedSynth{audio: &tts.Audio{MimeType: "audio/mpeg", Bytes: []byte("mp3")}}
	router := newStoryTestRouter(provider, synth, nil)

	first := postStory(router, `{"prompt":"first story"}`, nil)
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies, "first submit should set the gate cookie")

	second := postStory(router, `{"prompt":"second story"}`, cookies)
	assert.Equal(t, http.StatusSeeOther, second.Code)
	assert.Equal(t, "/pricing", second.Header().Get("Location"))
}

func TestStoryGenerateInvalidPrompt(t *testing.T) {
	provider := &capturingProvider{text: storyTestOutput}
	synth := &fixedSynth{audio: &tts.Audio{MimeType: "audio/mpeg", Bytes: []byte("mp3")}}
	router := newStoryTestRouter(provider, synth, nil)

	w := postStory(router, `{"prompt":""}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, provider.lastReq)
}

func TestStoryGenerateMisconfiguredHidesDetail(t *testing.T) {
	router := newStoryTestRouter(nil, &fixedSynth{}, storygen.ErrNotConfigured)

	w := postStory(router, `{"prompt":"test"}`, nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Server configuration error", body["error"])
}

func TestStoryGenerateMalformedBody(t *testing.T) {
	provider := &capturingProvider{text: storyTestOutput}
	router := newStoryTestRouter(provider, &fixedSynth{}, nil)

	w := postStory(router, `{not json`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
