package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razberry-fun/razberry-api/internal/gate"
)

func newGateTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewGateHandler(gate.NewSessionStore("test-secret", false))

	router := gin.New()
	router.GET("/api/gate", handler.Status)
	router.POST("/api/gate/continue", handler.Continue)
	router.POST("/api/gate/dismiss", handler.Dismiss)
	return router
}

func gateRequest(router *gin.Engine, method, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func gateBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGateStatusFreshVisitor(t *testing.T) {
	router := newGateTestRouter()

	w := gateRequest(router, http.MethodGet, "/api/gate", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := gateBody(t, w)
	assert.Equal(t, "fresh", body["state"])
	assert.Equal(t, true, body["canSubmit"])
}

func TestGateContinueRaisesPaywall(t *testing.T) {
	router := newGateTestRouter()

	w := gateRequest(router, http.MethodPost, "/api/gate/continue", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := gateBody(t, w)
	assert.Equal(t, "paywall_shown", body["state"])
	assert.Equal(t, false, body["canSubmit"])

	// The new state must survive the cookie round trip
	status := gateRequest(router, http.MethodGet, "/api/gate", w.Result().Cookies())
	assert.Equal(t, "paywall_shown", gateBody(t, status)["state"])
}

func TestGateDismissClearsPaywall(t *testing.T) {
	router := newGateTestRouter()

	continued := gateRequest(router, http.MethodPost, "/api/gate/continue", nil)
	require.Equal(t, http.StatusOK, continued.Code)

	dismissed := gateRequest(router, http.MethodPost, "/api/gate/dismiss", continued.Result().Cookies())
	require.Equal(t, http.StatusOK, dismissed.Code)
	body := gateBody(t, dismissed)
	assert.Equal(t, "fresh", body["state"])
	assert.Equal(t, true, body["canSubmit"])
}

func TestGateMalformedCookieReadsAsFresh(t *testing.T) {
	router := newGateTestRouter()

	w := gateRequest(router, http.MethodGet, "/api/gate", []*http.Cookie{
		{Name: "razberry_gate", Value: "not-a-real-session"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fresh", gateBody(t, w)["state"])
}
