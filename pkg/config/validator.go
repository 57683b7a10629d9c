package config

import (
	"errors"
	"fmt"
	"slices"
)

// Valid backend selectors.
var (
	llmBackends   = []string{"openai", "anthropic", "local", "mock"}
	cacheBackends = []string{"memory", "redis"}
)

// Validate checks cross-field constraints after defaults are applied.
// Returns the first error found; fatal at startup.
func (c *Config) Validate() error {
	if !slices.Contains(llmBackends, c.LLM.Backend) {
		return fmt.Errorf("llm.backend must be one of %v, got %q", llmBackends, c.LLM.Backend)
	}
	if c.LLM.Backend == "local" && c.LLM.BaseURL == "" {
		return errors.New("llm.base_url is required for the local backend")
	}
	if !slices.Contains(cacheBackends, c.Cache.Backend) {
		return fmt.Errorf("cache.backend must be one of %v, got %q", cacheBackends, c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return errors.New("cache.redis_addr is required for the redis backend")
	}
	if c.Orchestrator.MaxConcurrentTools < 1 {
		return errors.New("orchestrator.max_concurrent_tools must be at least 1")
	}
	if c.Orchestrator.MaxRetries < 0 || c.Orchestrator.MaxRetries > 3 {
		return fmt.Errorf("orchestrator.max_retries must be in [0,3], got %d", c.Orchestrator.MaxRetries)
	}
	if c.Orchestrator.BreakerThreshold < 1 {
		return errors.New("orchestrator.breaker_threshold must be at least 1")
	}
	if c.Session.MaxSessions < 1 {
		return errors.New("session.max_sessions must be at least 1")
	}
	if c.Limits.MaxInputBytes > c.Limits.HardMaxInputBytes {
		return fmt.Errorf("limits.max_input_bytes (%d) exceeds hard cap (%d)",
			c.Limits.MaxInputBytes, c.Limits.HardMaxInputBytes)
	}
	return nil
}
