package config

import "time"

// DefaultConfig returns the built-in defaults. User YAML is merged on top;
// any field left zero keeps its default.
func DefaultConfig() *Config {
	return &Config{
		System: SystemConfig{
			AllowedOrigins:   []string{"*"},
			MaxResponseChars: 6000,
		},
		LLM: LLMConfig{
			Backend:     "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.4,
			TopP:        1.0,
			MaxTokens:   2048,
			MaxAttempts: 3,
		},
		Cache: CacheConfig{
			Backend:       "memory",
			NamespaceCap:  1000,
			HardWall:      4 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Orchestrator: OrchestratorConfig{
			MaxConcurrentTools: 5,
			MaxRetries:         1,
			RetryDelay:         500 * time.Millisecond,
			ToolTimeout:        20 * time.Second,
			BreakerThreshold:   5,
			BreakerOpenTimeout: 300 * time.Second,
		},
		Session: SessionConfig{
			IdleTTL:      1 * time.Hour,
			MaxSessions:  50,
			MaxDocuments: 3,
			LoopWindow:   8,
		},
		Limits: LimitsConfig{
			TurnDeadline:      120 * time.Second,
			MaxInputBytes:     50 * 1024,
			HardMaxInputBytes: 500 * 1024,
		},
		Tools: ToolsConfig{
			WAQITokenEnv:  "WAQI_TOKEN",
			AirQoTokenEnv: "AIRQO_TOKEN",
		},
		History: HistoryConfig{
			DatabaseURLEnv:  "DATABASE_URL",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
	}
}
