package agent

import (
	"time"
)

// LocationData is optional client-supplied location context.
type LocationData struct {
	// Source is "gps" or "ip".
	Source    string  `json:"source"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	IPAddress string  `json:"ip_address,omitempty"`
}

// Thought is a diagnostic progress event surfaced on the streaming
// endpoint while a turn is in flight.
type Thought struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Request is one chat turn's input.
type Request struct {
	SessionID string
	Message   string
	Style     string

	Temperature *float32
	TopP        *float32
	MaxTokens   int

	Location *LocationData

	// OnThought, when set, receives progress events during the turn.
	OnThought func(Thought)
}

// Response is one chat turn's output.
type Response struct {
	Text                 string         `json:"response"`
	ToolsUsed            []string       `json:"tools_used"`
	TokensUsed           int            `json:"tokens_used"`
	CostEstimate         float64        `json:"cost_estimate"`
	Cached               bool           `json:"cached"`
	FinishReason         string         `json:"finish_reason"`
	Truncated            bool           `json:"truncated"`
	RequiresContinuation bool           `json:"requires_continuation"`
	LoopDetected         bool           `json:"loop_detected,omitempty"`
	Chart                map[string]any `json:"chart_result,omitempty"`
	MemoryTokens         int            `json:"memory_tokens,omitempty"`
}

// cachedPayload is the subset of a response stored in the cache.
type cachedPayload struct {
	Text         string   `json:"text"`
	ToolsUsed    []string `json:"tools_used"`
	TokensUsed   int      `json:"tokens_used"`
	FinishReason string   `json:"finish_reason"`
}
