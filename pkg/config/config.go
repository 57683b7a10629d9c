// Package config loads and validates airsift configuration.
//
// Configuration comes from an optional airsift.yaml in the config directory,
// with environment variables expanded via {{.VAR}} template syntax, merged
// over built-in defaults. A missing file means "run on defaults".
package config

import "time"

// Config is the umbrella configuration object returned by Initialize()
// and injected into every service at startup.
type Config struct {
	configDir string

	System       SystemConfig       `yaml:"system"`
	LLM          LLMConfig          `yaml:"llm"`
	Cache        CacheConfig        `yaml:"cache"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Session      SessionConfig      `yaml:"session"`
	Limits       LimitsConfig       `yaml:"limits"`
	Tools        ToolsConfig        `yaml:"tools"`
	History      HistoryConfig      `yaml:"history"`
}

// SystemConfig groups system-wide infrastructure settings.
type SystemConfig struct {
	// AllowedOrigins is the CORS allow-list for the HTTP API.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxResponseChars caps assistant responses; longer responses are
	// truncated with a continuation marker.
	MaxResponseChars int `yaml:"max_response_chars"`
}

// LLMConfig selects and tunes the model backend.
type LLMConfig struct {
	// Backend selects the provider: openai, anthropic, local, mock.
	Backend string `yaml:"backend"`

	// Model is the model name passed to the provider.
	Model string `yaml:"model"`

	// BaseURL overrides the provider endpoint (used by the local backend
	// to point at an OpenAI-compatible server such as Ollama).
	BaseURL string `yaml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	// Defaults per backend (OPENAI_API_KEY, ANTHROPIC_API_KEY).
	APIKeyEnv string `yaml:"api_key_env"`

	Temperature float32 `yaml:"temperature"`
	TopP        float32 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`

	// MaxAttempts bounds retries on transient provider errors.
	MaxAttempts int `yaml:"max_attempts"`
}

// CacheConfig tunes the response/API cache.
type CacheConfig struct {
	// Backend selects the store: memory or redis.
	Backend string `yaml:"backend"`

	// RedisAddr is required when backend is redis.
	RedisAddr string `yaml:"redis_addr"`

	// NamespaceCap is the soft per-namespace entry cap for the memory store.
	NamespaceCap int `yaml:"namespace_cap"`

	// HardWall is the absolute maximum entry age removed by the sweeper.
	HardWall time.Duration `yaml:"hard_wall"`

	// SweepInterval is the minimum interval between background sweeps.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// OrchestratorConfig tunes proactive tool execution.
type OrchestratorConfig struct {
	// MaxConcurrentTools bounds parallel tool executions within a batch.
	MaxConcurrentTools int `yaml:"max_concurrent_tools"`

	// MaxRetries is the retry count after the initial attempt.
	// Production default is 1 to keep turn latency bounded; reliability-
	// sensitive deployments may raise it to 3.
	MaxRetries int `yaml:"max_retries"`

	// RetryDelay is the base delay, doubled per attempt.
	RetryDelay time.Duration `yaml:"retry_delay"`

	// ToolTimeout is the default per-tool execution deadline.
	ToolTimeout time.Duration `yaml:"tool_timeout"`

	// EnableFallbacks toggles the fallback cascade after retries exhaust.
	// Pointer so an explicit false survives the defaults merge.
	EnableFallbacks *bool `yaml:"enable_fallbacks"`

	// BreakerThreshold is the consecutive failure count that opens a
	// tool's circuit breaker.
	BreakerThreshold int `yaml:"breaker_threshold"`

	// BreakerOpenTimeout is how long an open breaker blocks calls after
	// the last failure.
	BreakerOpenTimeout time.Duration `yaml:"breaker_open_timeout"`
}

// SessionConfig tunes in-memory session retention.
type SessionConfig struct {
	// IdleTTL evicts sessions idle longer than this.
	IdleTTL time.Duration `yaml:"idle_ttl"`

	// MaxSessions triggers LRU eviction when exceeded.
	MaxSessions int `yaml:"max_sessions"`

	// MaxDocuments is the per-session uploaded document cap (LRU).
	MaxDocuments int `yaml:"max_documents"`

	// LoopWindow is how many recent user messages the loop detector scans.
	LoopWindow int `yaml:"loop_window"`
}

// LimitsConfig holds turn-level and daily budget limits.
type LimitsConfig struct {
	// TurnDeadline is the global per-turn deadline from ingress to response.
	TurnDeadline time.Duration `yaml:"turn_deadline"`

	// MaxInputBytes is the soft input cap; longer inputs are truncated.
	MaxInputBytes int `yaml:"max_input_bytes"`

	// HardMaxInputBytes rejects inputs outright.
	HardMaxInputBytes int `yaml:"hard_max_input_bytes"`

	// Daily budget caps. Zero means unlimited (local backends).
	DailyRequestLimit int     `yaml:"daily_request_limit"`
	DailyTokenLimit   int     `yaml:"daily_token_limit"`
	DailyCostLimitUSD float64 `yaml:"daily_cost_limit_usd"`
}

// ToolsConfig configures the data-provider tool adapters.
type ToolsConfig struct {
	// Enabled lists tool names to register. Empty means all built-ins.
	Enabled []string `yaml:"enabled"`

	// WAQITokenEnv names the env var holding the WAQI API token.
	WAQITokenEnv string `yaml:"waqi_token_env"`

	// AirQoTokenEnv names the env var holding the AirQo API token.
	AirQoTokenEnv string `yaml:"airqo_token_env"`

	// SearchEndpoint overrides the web search endpoint (tests point this
	// at a stub server).
	SearchEndpoint string `yaml:"search_endpoint"`

	// OpenMeteoEndpoint overrides the Open-Meteo air quality endpoint.
	OpenMeteoEndpoint string `yaml:"openmeteo_endpoint"`
}

// HistoryConfig configures the optional PostgreSQL turn archive.
type HistoryConfig struct {
	// DatabaseURLEnv names the env var holding the DSN. The archive is
	// disabled when the variable is empty.
	DatabaseURLEnv string `yaml:"database_url_env"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// FallbacksEnabled resolves the EnableFallbacks pointer (default true).
func (c *OrchestratorConfig) FallbacksEnabled() bool {
	return c.EnableFallbacks == nil || *c.EnableFallbacks
}
