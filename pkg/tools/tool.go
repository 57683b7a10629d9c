// Package tools provides the tool registry and executor. Tools are
// first-class registered functions with declared schemas, capabilities,
// and timeouts; the orchestrator invokes them by name.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/airsift/airsift/pkg/classify"
)

// Sentinel errors for tool execution.
var (
	ErrToolNotFound = errors.New("tool not found in registry")
	ErrToolTimeout  = errors.New("tool execution timed out")
)

// Stable tool names. The planner, fallback chains, and tests refer to
// tools by these names.
const (
	ToolCityAirQuality        = "get_city_air_quality"
	ToolAfricanCityAirQuality = "get_african_city_air_quality"
	ToolOpenMeteoAirQuality   = "get_openmeteo_current_air_quality"
	ToolAirQualityForecast    = "get_air_quality_forecast"
	ToolWeatherForecast       = "get_weather_forecast"
	ToolSearchWeb             = "search_web"
	ToolScrapeWebsite         = "scrape_website"
	ToolSeasonalContext       = "get_seasonal_context"
	ToolGenerateChart         = "generate_chart"
)

// Args is the keyed argument map passed to a tool.
type Args map[string]any

// String returns the named argument as a string, or "" when absent.
func (a Args) String(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Float returns the named argument as a float64, tolerating int values.
func (a Args) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Int returns the named argument as an int, or def when absent.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

// Result is a tool's output. Data is the structured payload; tools signal
// their own failures with Success=false plus an Error message, which the
// orchestrator treats the same as a returned error.
type Result struct {
	Name    string         `json:"name"`
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Handler is the tool implementation. Must honor ctx cancellation.
type Handler func(ctx context.Context, args Args) (*Result, error)

// Definition declares a tool's contract.
type Definition struct {
	Name        string
	Description string

	// ParametersSchema is a JSON schema string for the argument map.
	ParametersSchema string

	// Timeout overrides the executor default (zero keeps the default).
	Timeout time.Duration

	// Capability feeds relevance scoring in the planner.
	Capability classify.Capability
}

// Tool pairs a definition with its handler.
type Tool struct {
	Definition
	Handler Handler
}

// Registry holds registered tools. Registration happens at startup;
// lookups are concurrent-safe.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Re-registering a name replaces the previous tool
// (tests swap in stubs this way).
func (r *Registry) Register(t *Tool) {
	r.mu.Lock()
	r.tools[t.Name] = t
	r.mu.Unlock()
}

// Get returns the named tool.
func (r *Registry) Get(name string) (*Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns all tool definitions, sorted by name. Providers use
// this to build their tool schemas.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
