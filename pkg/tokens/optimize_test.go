package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsift/airsift/pkg/llm"
)

// heuristicCounter forces the byte heuristic so tests are independent of
// tokenizer availability.
func heuristicCounter(model string) *Counter {
	return &Counter{model: model}
}

func TestModelLimit(t *testing.T) {
	assert.Equal(t, 128000, ModelLimit("gpt-4o-mini"))
	assert.Equal(t, 128000, ModelLimit("gpt-4o-mini-2024-07-18"), "longest prefix wins")
	assert.Equal(t, 8192, ModelLimit("gpt-4"))
	assert.Equal(t, 200000, ModelLimit("claude-sonnet-4-20250514"))
	assert.Equal(t, defaultModelLimit, ModelLimit("some-unknown-model"))
}

func TestCountTokens(t *testing.T) {
	c := heuristicCounter("unknown")
	assert.Equal(t, 0, c.CountTokens(""))
	assert.Equal(t, 1, c.CountTokens("abc"))
	assert.Equal(t, 3, c.CountTokens("twelve chars"))

	msg := llm.Message{Role: llm.RoleUser, Content: "twelve chars"}
	assert.Equal(t, 3+perMessageOverhead, c.CountMessage(msg))
	assert.Equal(t, 2*(3+perMessageOverhead), c.CountMessages([]llm.Message{msg, msg}))
}

func TestValidateInputSize(t *testing.T) {
	assert.NoError(t, ValidateInputSize("short", 10))
	assert.NoError(t, ValidateInputSize("anything", 0), "zero cap disables the check")
	assert.Error(t, ValidateInputSize("too long for this", 5))
}

func pairs(n int, content string) []llm.Message {
	var msgs []llm.Message
	for i := 0; i < n; i++ {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: content},
			llm.Message{Role: llm.RoleAssistant, Content: content},
		)
	}
	return msgs
}

func TestOptimize(t *testing.T) {
	c := heuristicCounter("gpt-4")

	t.Run("history under budget passes through", func(t *testing.T) {
		history := pairs(2, "short message")
		kept, meta := c.Optimize(history, 0)
		assert.Equal(t, history, kept)
		assert.False(t, meta.Truncated)
		assert.Equal(t, 4, meta.FinalCount)
		assert.Equal(t, meta.OriginalTokens, meta.FinalTokens)
	})

	t.Run("recency window always survives", func(t *testing.T) {
		filler := strings.Repeat("old context ", 50)
		history := append(pairs(20, filler),
			llm.Message{Role: llm.RoleUser, Content: "latest question?"},
			llm.Message{Role: llm.RoleAssistant, Content: "latest answer"},
		)
		// Budget fits the recency window plus a little.
		kept, meta := c.Optimize(history, reservedSystem+reservedOutput+reservedSafety+1200)

		assert.True(t, meta.Truncated)
		require.NotEmpty(t, kept)
		assert.Equal(t, "latest answer", kept[len(kept)-1].Content)
		assert.Equal(t, "latest question?", kept[len(kept)-2].Content)
		assert.Less(t, meta.FinalTokens, meta.OriginalTokens)
	})

	t.Run("important old messages are preferred over filler", func(t *testing.T) {
		history := []llm.Message{
			{Role: llm.RoleUser, Content: "My name is Alex and I live in Kampala, planning my week around air quality."},
			{Role: llm.RoleAssistant, Content: "Noted! I will keep your location in mind for every report."},
			{Role: llm.RoleUser, Content: "hello"},
			{Role: llm.RoleAssistant, Content: strings.Repeat("filler chit chat with no substance whatsoever ", 30)},
		}
		history = append(history, pairs(3, "a recent exchange about conditions today")...)

		kept, meta := c.Optimize(history, reservedSystem+reservedOutput+reservedSafety+120)
		assert.True(t, meta.Truncated)

		var hasPersonal, hasFiller bool
		for _, m := range kept {
			if strings.Contains(m.Content, "My name is Alex") {
				hasPersonal = true
			}
			if strings.Contains(m.Content, "filler chit chat") {
				hasFiller = true
			}
		}
		assert.True(t, hasPersonal, "personalization survives truncation")
		assert.False(t, hasFiller, "oversized filler is dropped")
	})

	t.Run("kept messages stay chronological", func(t *testing.T) {
		history := []llm.Message{
			{Role: llm.RoleUser, Content: "first? My name is Alex"},
			{Role: llm.RoleAssistant, Content: strings.Repeat("x", 800)},
			{Role: llm.RoleUser, Content: "second? according to AirQo pm2.5 is 61"},
			{Role: llm.RoleAssistant, Content: strings.Repeat("y", 800)},
		}
		history = append(history, pairs(3, "recent")...)

		kept, _ := c.Optimize(history, reservedSystem+reservedOutput+reservedSafety+80)
		idxFirst, idxSecond := -1, -1
		for i, m := range kept {
			if strings.HasPrefix(m.Content, "first?") {
				idxFirst = i
			}
			if strings.HasPrefix(m.Content, "second?") {
				idxSecond = i
			}
		}
		if idxFirst >= 0 && idxSecond >= 0 {
			assert.Less(t, idxFirst, idxSecond)
		}
	})

	t.Run("emergency truncation when nothing fits", func(t *testing.T) {
		history := []llm.Message{
			{Role: llm.RoleUser, Content: strings.Repeat("z", 100000)},
		}
		kept, meta := c.Optimize(history, reservedSystem+reservedOutput+reservedSafety+50)
		require.Len(t, kept, 1)
		assert.True(t, meta.Truncated)
		assert.True(t, strings.HasSuffix(kept[0].Content, truncatedMarker))
		assert.LessOrEqual(t, len(kept[0].Content), 50*4+len(truncatedMarker))
	})
}

func TestImportance(t *testing.T) {
	long := " because the haze has lingered over the city for days now"

	assert.Greater(t,
		importance(llm.Message{Role: llm.RoleUser, Content: "My name is Alex and I live in Kampala" + long}, false),
		importance(llm.Message{Role: llm.RoleUser, Content: "What should I do today, any ideas for me?" + long}, false))

	assert.Greater(t,
		importance(llm.Message{Role: llm.RoleUser, Content: "PM2.5 was 61 µg/m³ according to AirQo" + long}, false),
		importance(llm.Message{Role: llm.RoleUser, Content: "It felt a bit smoky outside this morning" + long}, false))

	assert.Less(t, importance(llm.Message{Role: llm.RoleUser, Content: "thanks"}, false), 0.0)

	assert.Greater(t,
		importance(llm.Message{Role: llm.RoleUser, Content: "context setter" + long}, true),
		importance(llm.Message{Role: llm.RoleUser, Content: "context setter" + long}, false))
}
