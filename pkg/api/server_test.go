package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsift/airsift/pkg/agent"
	"github.com/airsift/airsift/pkg/cache"
	"github.com/airsift/airsift/pkg/classify"
	"github.com/airsift/airsift/pkg/config"
	"github.com/airsift/airsift/pkg/cost"
	"github.com/airsift/airsift/pkg/health"
	"github.com/airsift/airsift/pkg/llm"
	"github.com/airsift/airsift/pkg/orchestrator"
	"github.com/airsift/airsift/pkg/safety"
	"github.com/airsift/airsift/pkg/session"
	"github.com/airsift/airsift/pkg/tokens"
	"github.com/airsift/airsift/pkg/tools"
)

// newTestServer builds a full server over stub tools and the mock LLM.
func newTestServer(t *testing.T) (*Server, *llm.MockProvider) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.LLM.Backend = "mock"
	cfg.Orchestrator.RetryDelay = time.Millisecond

	registry := tools.NewRegistry()
	for _, name := range []string{
		tools.ToolCityAirQuality, tools.ToolAfricanCityAirQuality,
		tools.ToolOpenMeteoAirQuality, tools.ToolSearchWeb, tools.ToolSeasonalContext,
	} {
		name := name
		registry.Register(&tools.Tool{
			Definition: tools.Definition{Name: name, Capability: classify.Capability{
				Realtime: true, BaseConfidence: 0.85,
			}},
			Handler: func(ctx context.Context, args tools.Args) (*tools.Result, error) {
				return &tools.Result{Name: name, Success: true, Data: map[string]any{
					"city": args.String("city"), "aqi": 61.0, "source": "stub",
				}}, nil
			},
		})
	}

	executor := tools.NewExecutor(registry, time.Second)
	monitor := health.NewMonitor()
	mock := llm.NewMockProvider()
	sessions := session.NewManager(cfg.Session)
	t.Cleanup(sessions.Close)
	store := cache.New(cache.NewMemoryStore(cache.MemoryStoreOptions{}))
	t.Cleanup(func() { _ = store.Close() })

	ag := agent.New(agent.Deps{
		Config:   cfg,
		Filter:   safety.NewFilter(safety.Options{}),
		Cache:    store,
		Sessions: sessions,
		Counter:  tokens.NewCounter(cfg.LLM.Model),
		Provider: mock,
		Orch:     orchestrator.New(cfg.Orchestrator, executor, monitor),
		Executor: executor,
		Costs:    cost.NewTracker(cfg.Limits),
		Monitor:  monitor,
	})
	return NewServer(cfg, ag, nil), mock
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestChatHandler(t *testing.T) {
	t.Run("happy path returns the response body", func(t *testing.T) {
		s, _ := newTestServer(t)
		rec := doJSON(t, s, http.MethodPost, "/api/v1/chat", &ChatRequest{
			SessionID: "sess-1",
			Message:   "What's the air quality in Kampala?",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp agent.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Text)
		assert.Contains(t, resp.ToolsUsed, tools.ToolAfricanCityAirQuality)
		assert.False(t, resp.Cached)
	})

	t.Run("validation", func(t *testing.T) {
		s, _ := newTestServer(t)
		tests := []struct {
			name string
			req  *ChatRequest
			want string
		}{
			{"missing session id", &ChatRequest{Message: "hi"}, "session_id"},
			{"short session id", &ChatRequest{SessionID: "ab", Message: "hi"}, "session_id"},
			{"session id with bad characters", &ChatRequest{SessionID: "no spaces!", Message: "hi"}, "session_id"},
			{"missing message", &ChatRequest{SessionID: "sess-1"}, "message is required"},
			{"unknown style", &ChatRequest{SessionID: "sess-1", Message: "hi", Style: "haiku"}, "style"},
			{"oversized message", &ChatRequest{SessionID: "sess-1", Message: strings.Repeat("a", maxMessageBytes+1)}, "500 KB"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := doJSON(t, s, http.MethodPost, "/api/v1/chat", tt.req)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Contains(t, rec.Body.String(), tt.want)
			})
		}
	})

	t.Run("pipeline errors map to status and kind", func(t *testing.T) {
		s, mock := newTestServer(t)
		mock.FailWith(llm.ErrRateLimited)

		rec := doJSON(t, s, http.MethodPost, "/api/v1/chat", &ChatRequest{
			SessionID: "sess-1",
			Message:   "What's the air quality in Kampala?",
		})
		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, string(agent.KindProviderRateLimited), body.Kind)
		assert.Len(t, body.Code, 8)
		assert.NotContains(t, body.Error, "rate") // user message only, no internals
	})

	t.Run("multipart upload attaches a session document", func(t *testing.T) {
		s, _ := newTestServer(t)

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		require.NoError(t, w.WriteField("session_id", "sess-1"))
		require.NoError(t, w.WriteField("message", "What does my report say about Kampala?"))
		fw, err := w.CreateFormFile("file", "report.txt")
		require.NoError(t, err)
		_, err = fw.Write([]byte("PM2.5 averaged 38 ug/m3 in June."))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		docs := s.agent.Sessions().GetDocuments("sess-1")
		require.Len(t, docs, 1)
		assert.Equal(t, "report.txt", docs[0].Name)
		assert.Contains(t, docs[0].Content, "PM2.5")
	})
}

func TestStreamChatHandler(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/v1/chat/stream", &ChatRequest{
		SessionID: "sess-1",
		Message:   "What's the air quality in Kampala?",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	respIdx := strings.Index(body, "event: response")
	doneIdx := strings.Index(body, "event: done")
	require.GreaterOrEqual(t, respIdx, 0, "missing response event:\n%s", body)
	require.GreaterOrEqual(t, doneIdx, 0, "missing done event:\n%s", body)
	assert.Less(t, respIdx, doneIdx, "done must come after response")
	assert.NotContains(t, body, "event: error")

	t.Run("errors stream as an error event before done", func(t *testing.T) {
		s, mock := newTestServer(t)
		mock.FailWith(llm.ErrUnavailable)

		rec := doJSON(t, s, http.MethodPost, "/api/v1/chat/stream", &ChatRequest{
			SessionID: "sess-1",
			Message:   "What's the air quality in Kampala?",
		})
		body := rec.Body.String()
		errIdx := strings.Index(body, "event: error")
		doneIdx := strings.Index(body, "event: done")
		require.GreaterOrEqual(t, errIdx, 0, "missing error event:\n%s", body)
		require.GreaterOrEqual(t, doneIdx, 0)
		assert.Less(t, errIdx, doneIdx)
		assert.NotContains(t, body, "event: response")
	})
}

func TestSessionHandlers(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("unknown session is 404", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/api/v1/sessions/ghost-1", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id is 400", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/api/v1/sessions/x", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("snapshot after a turn, then purge", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodPost, "/api/v1/chat", &ChatRequest{
			SessionID: "sess-9",
			Message:   "What's the air quality in Kampala?",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, s, http.MethodGet, "/api/v1/sessions/sess-9", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var snap SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		assert.Equal(t, "sess-9", snap.SessionID)
		assert.Equal(t, 1, snap.Turns)
		assert.Nil(t, snap.ArchivedTurns, "archive disabled")

		rec = doJSON(t, s, http.MethodDelete, "/api/v1/sessions/sess-9", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var purge PurgeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &purge))
		assert.True(t, purge.Purged)

		rec = doJSON(t, s, http.MethodGet, "/api/v1/sessions/sess-9", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("basic", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.NotEmpty(t, resp.Version)
		assert.Nil(t, resp.Sessions)
		assert.Nil(t, resp.Usage)
	})

	t.Run("detailed adds components and usage", func(t *testing.T) {
		// One turn so the chat component has samples.
		rec := doJSON(t, s, http.MethodPost, "/api/v1/chat", &ChatRequest{
			SessionID: "sess-1",
			Message:   "What's the air quality in Kampala?",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, s, http.MethodGet, "/health?detailed=true", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Components, "chat")
		require.NotNil(t, resp.Sessions)
		assert.Equal(t, 1, *resp.Sessions)
		require.NotNil(t, resp.Usage)
		assert.EqualValues(t, 1, resp.Usage.Requests)
	})
}

func TestMiddleware(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("security headers", func(t *testing.T) {
		rec := doJSON(t, s, http.MethodGet, "/health", nil)
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil)
		req.Header.Set("Origin", "https://dashboard.example")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat",
			bytes.NewReader(make([]byte, maxRequestBytes+1)))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}
