// Package tokens counts tokens and trims conversation history to fit a
// model's context window.
package tokens

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/airsift/airsift/pkg/llm"
)

// Known context window sizes. Prefix match on the model name; unknown
// models get the conservative default.
const defaultModelLimit = 8192

var modelLimits = map[string]int{
	"gpt-4o":         128000,
	"gpt-4o-mini":    128000,
	"gpt-4-turbo":    128000,
	"gpt-4":          8192,
	"gpt-3.5-turbo":  16384,
	"claude-3-5":     200000,
	"claude-sonnet":  200000,
	"claude-haiku":   200000,
	"gemini-1.5-pro": 1000000,
	"llama3":         8192,
	"mistral":        32768,
}

// ModelLimit returns the context window for a model name, using the
// longest matching prefix for dated variants (gpt-4o-mini-2024-07-18).
func ModelLimit(model string) int {
	if limit, ok := modelLimits[model]; ok {
		return limit
	}
	best, bestLen := defaultModelLimit, 0
	for prefix, limit := range modelLimits {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best, bestLen = limit, len(prefix)
		}
	}
	return best
}

// perMessageOverhead approximates the tokens each chat message costs
// beyond its content (role markers, separators).
const perMessageOverhead = 4

// Counter counts tokens with a model tokenizer when one is available,
// falling back to the 4-bytes-per-token heuristic.
type Counter struct {
	model    string
	encoding *tiktoken.Tiktoken
}

// NewCounter creates a counter for the model. Tokenizer resolution
// failures are logged, not fatal: the heuristic keeps everything working.
func NewCounter(model string) *Counter {
	c := &Counter{model: model}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		slog.Warn("No tokenizer available, using byte heuristic", "model", model, "error", err)
	} else {
		c.encoding = enc
	}
	return c
}

// CountTokens counts tokens in one text.
func (c *Counter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if c.encoding != nil {
		return len(c.encoding.Encode(text, nil, nil))
	}
	// 1 token ≈ 4 bytes.
	return (len(text) + 3) / 4
}

// CountMessage counts one message including its structural overhead.
func (c *Counter) CountMessage(m llm.Message) int {
	return c.CountTokens(m.Content) + perMessageOverhead
}

// CountMessages counts a whole history.
func (c *Counter) CountMessages(history []llm.Message) int {
	total := 0
	for _, m := range history {
		total += c.CountMessage(m)
	}
	return total
}

// ValidateInputSize rejects texts above the byte cap.
func ValidateInputSize(text string, maxBytes int) error {
	if maxBytes > 0 && len(text) > maxBytes {
		return fmt.Errorf("input of %d bytes exceeds the %d byte limit", len(text), maxBytes)
	}
	return nil
}
