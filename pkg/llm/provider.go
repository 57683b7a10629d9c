// Package llm abstracts the model backend behind a single Provider
// interface with OpenAI, Anthropic, OpenAI-compatible local, and mock
// implementations.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/airsift/airsift/pkg/config"
	"github.com/airsift/airsift/pkg/tools"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// FinishReason values.
const (
	FinishStop   = "stop"
	FinishLength = "length"
	FinishError  = "error"
)

// Sentinel errors the pipeline maps to user-facing failures.
var (
	ErrRateLimited = errors.New("provider rate limited")
	ErrUnavailable = errors.New("provider unavailable")
)

// Message is one role/content pair of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Input is the provider-independent request contract.
type Input struct {
	Message     string
	History     []Message
	System      string
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// Output is the provider-independent response contract.
type Output struct {
	Text         string
	ToolsUsed    []string
	TokensUsed   int
	CostEstimate float64
	FinishReason string

	// Thinking holds diagnostic reasoning steps some providers surface.
	// Never shown to users.
	Thinking []string
}

// Provider is the model backend capability set.
type Provider interface {
	// ProcessMessage runs one model turn.
	ProcessMessage(ctx context.Context, in *Input) (*Output, error)

	// GetToolSchemas returns the tool definitions the provider would
	// advertise to the model, nil when tool calling is unsupported.
	GetToolSchemas() []tools.Definition

	// Setup validates credentials/connectivity. Called once at startup.
	Setup(ctx context.Context) error

	// Cleanup releases resources. Called at shutdown.
	Cleanup() error
}

// New builds the provider selected by config. The executor is used for
// free-form tool-call extraction on backends without native tool calling;
// it may be nil to disable extraction.
func New(cfg config.LLMConfig, registry *tools.Registry, executor *tools.Executor) (Provider, error) {
	switch cfg.Backend {
	case "openai", "local":
		return newOpenAIProvider(cfg, registry, executor)
	case "anthropic":
		return newAnthropicProvider(cfg, registry)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown llm backend: %s", cfg.Backend)
	}
}

// apiKey resolves the configured API key env var with a per-backend
// default name.
func apiKey(cfg config.LLMConfig, defaultEnv string) string {
	env := cfg.APIKeyEnv
	if env == "" {
		env = defaultEnv
	}
	return os.Getenv(env)
}
