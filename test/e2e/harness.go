// Package e2e exercises the complete AirSift stack over HTTP: real
// pipeline, real orchestrator, mock model provider, stub data tools.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/airsift/airsift/pkg/agent"
	"github.com/airsift/airsift/pkg/api"
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

// TestApp boots a complete in-process AirSift instance for e2e testing.
type TestApp struct {
	Config  *config.Config
	LLM     *llm.MockProvider
	Agent   *agent.Agent
	BaseURL string

	httpSrv *httptest.Server

	mu    sync.Mutex
	calls map[string]int

	t *testing.T
}

// testAppConfig holds options accumulated before creating the TestApp.
type testAppConfig struct {
	mutate       func(*config.Config)
	failingTools map[string]bool
}

// TestAppOption configures the test app.
type TestAppOption func(*testAppConfig)

// WithConfig adjusts the default config before construction.
func WithConfig(mutate func(*config.Config)) TestAppOption {
	return func(c *testAppConfig) { c.mutate = mutate }
}

// WithFailingTools makes the named stub tools return an error, so the
// orchestrator's fallback cascade kicks in.
func WithFailingTools(names ...string) TestAppOption {
	return func(c *testAppConfig) {
		for _, name := range names {
			c.failingTools[name] = true
		}
	}
}

// stubToolNames are the built-in data providers replaced with stubs.
var stubToolNames = []string{
	tools.ToolCityAirQuality, tools.ToolAfricanCityAirQuality,
	tools.ToolOpenMeteoAirQuality, tools.ToolAirQualityForecast,
	tools.ToolWeatherForecast, tools.ToolSearchWeb,
	tools.ToolScrapeWebsite, tools.ToolSeasonalContext,
}

// NewTestApp assembles the full agent behind a real HTTP server.
func NewTestApp(t *testing.T, opts ...TestAppOption) *TestApp {
	t.Helper()

	tc := &testAppConfig{failingTools: make(map[string]bool)}
	for _, opt := range opts {
		opt(tc)
	}

	cfg := config.DefaultConfig()
	cfg.LLM.Backend = "mock"
	cfg.Orchestrator.RetryDelay = time.Millisecond
	if tc.mutate != nil {
		tc.mutate(cfg)
	}

	app := &TestApp{
		Config: cfg,
		LLM:    llm.NewMockProvider(),
		calls:  make(map[string]int),
		t:      t,
	}

	registry := tools.NewRegistry()
	for _, name := range stubToolNames {
		app.registerStub(registry, name, tc.failingTools[name])
	}

	executor := tools.NewExecutor(registry, time.Second)
	monitor := health.NewMonitor()
	sessions := session.NewManager(cfg.Session)
	t.Cleanup(sessions.Close)
	responseCache := cache.New(cache.NewMemoryStore(cache.MemoryStoreOptions{}))
	t.Cleanup(func() { _ = responseCache.Close() })

	app.Agent = agent.New(agent.Deps{
		Config:   cfg,
		Filter:   safety.NewFilter(safety.Options{}),
		Cache:    responseCache,
		Sessions: sessions,
		Counter:  tokens.NewCounter(cfg.LLM.Model),
		Provider: app.LLM,
		Orch:     orchestrator.New(cfg.Orchestrator, executor, monitor),
		Executor: executor,
		Costs:    cost.NewTracker(cfg.Limits),
		Monitor:  monitor,
	})

	app.httpSrv = httptest.NewServer(api.NewServer(cfg, app.Agent, nil).Handler())
	t.Cleanup(app.httpSrv.Close)
	app.BaseURL = app.httpSrv.URL
	return app
}

// registerStub installs a deterministic stand-in for one data provider,
// with the capability profile its real counterpart declares.
func (app *TestApp) registerStub(r *tools.Registry, name string, failing bool) {
	var cap classify.Capability
	switch name {
	case tools.ToolAfricanCityAirQuality:
		cap = classify.Capability{AfricaSpecialist: true, Realtime: true, BaseConfidence: 0.85}
	case tools.ToolCityAirQuality:
		cap = classify.Capability{Realtime: true, BaseConfidence: 0.85}
	case tools.ToolOpenMeteoAirQuality:
		cap = classify.Capability{Realtime: true, BaseConfidence: 0.70}
	case tools.ToolSearchWeb, tools.ToolScrapeWebsite:
		cap = classify.Capability{BaseConfidence: 0.50}
	default:
		cap = classify.Capability{BaseConfidence: 0.70}
	}
	r.Register(&tools.Tool{
		Definition: tools.Definition{Name: name, Capability: cap},
		Handler: func(ctx context.Context, args tools.Args) (*tools.Result, error) {
			app.mu.Lock()
			app.calls[name]++
			app.mu.Unlock()
			if failing {
				return nil, errors.New("provider unavailable")
			}
			return &tools.Result{Name: name, Success: true, Data: map[string]any{
				"city": args.String("city"), "aqi": 62.0, "source": "stub",
			}}, nil
		},
	})
}

// ToolCalls returns how many times the named stub was invoked, fallback
// attempts included.
func (app *TestApp) ToolCalls(name string) int {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.calls[name]
}

// Chat posts one turn and returns the status code with the decoded body.
func (app *TestApp) Chat(t *testing.T, body map[string]any) (int, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(app.BaseURL+"/api/v1/chat", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

// ChatOK posts one turn and requires a 200.
func (app *TestApp) ChatOK(t *testing.T, sessionID, message string) map[string]any {
	t.Helper()

	status, body := app.Chat(t, map[string]any{
		"session_id": sessionID,
		"message":    message,
	})
	require.Equal(t, http.StatusOK, status, "body: %v", body)
	return body
}

// respond builds a stop-finished scripted output.
func respond(text string) *llm.Output {
	return &llm.Output{Text: text, TokensUsed: len(text) / 4, FinishReason: llm.FinishStop}
}

// toolsUsed extracts the tools_used field as strings.
func toolsUsed(t *testing.T, body map[string]any) []string {
	t.Helper()

	raw, ok := body["tools_used"]
	require.True(t, ok, "response missing tools_used: %v", body)
	if raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	require.True(t, ok, "tools_used is %T", raw)
	out := make([]string, 0, len(list))
	for _, v := range list {
		out = append(out, fmt.Sprint(v))
	}
	return out
}
