package router

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfmarine/leadengine/internal/catalog"
	"github.com/jdfmarine/leadengine/internal/chat"
	"github.com/jdfmarine/leadengine/internal/notify"
	"github.com/jdfmarine/leadengine/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mem := store.NewMemoryStore()
	dispatcher := notify.NewDispatcher(mem, notify.NewStubEmailSender(nil), "owner@example.com", "", nil, nil)
	svc := chat.NewService(nil, mem, dispatcher, chat.NewShaper(rand.New(rand.NewSource(1))),
		chat.SamplingConfig{Temperature: 0.7, MaxTokens: 500},
		catalog.JDFMarine, nil, nil)

	reg := prometheus.NewRegistry()
	return New(&Config{
		ChatHandler:        chat.NewHandler(svc, nil),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"*"},
		RateLimitPerSecond: 100,
		RateLimitBurst:     100,
	})
}

func TestRouterHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouterMetricsExposed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterChatEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	response, _ := body["response"].(string)
	assert.Contains(t, response, catalog.JDFMarine.Phone)
	assert.NotEmpty(t, body["sessionId"])
}

func TestRouterChatPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://jdfperformancemarine.com")
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
