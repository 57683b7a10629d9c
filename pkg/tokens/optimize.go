package tokens

import (
	"regexp"
	"sort"
	"strings"

	"github.com/airsift/airsift/pkg/llm"
)

// Reserved budgets carved out of the model's context window.
const (
	reservedSystem = 1000
	reservedOutput = 2048
	reservedSafety = 500

	// recencyPairs is how many trailing user/assistant pairs are always
	// kept.
	recencyPairs = 3

	truncatedMarker = " [truncated]"
)

// Metadata describes what Optimize did to the history.
type Metadata struct {
	OriginalCount  int  `json:"original_count"`
	FinalCount     int  `json:"final_count"`
	OriginalTokens int  `json:"original_tokens"`
	FinalTokens    int  `json:"final_tokens"`
	Truncated      bool `json:"truncated"`
}

var (
	quantitativePattern = regexp.MustCompile(`(?i)\d+(\.\d+)?\s*(µg/m³|ug/m3|pm2\.5|pm10|aqi|ppm)`)
	citationPattern     = regexp.MustCompile(`(?i)\baccording to\b|\bsource:`)
	personalPattern     = regexp.MustCompile(`(?i)\bmy name is\b|\bi live in\b|\bi'?m from\b`)
)

var smallTalk = map[string]bool{
	"hello": true, "hi": true, "hey": true, "thanks": true,
	"thank you": true, "ok": true, "okay": true, "bye": true,
	"good morning": true, "good evening": true,
}

// Optimize trims history to fit the model's context window minus the
// reserved budgets. maxTokens overrides the model limit when positive.
//
// The last 3 user/assistant pairs are always preferred; remaining budget
// is filled with older messages picked greedily by importance score, then
// the kept set is restored to chronological order.
func (c *Counter) Optimize(history []llm.Message, maxTokens int) ([]llm.Message, Metadata) {
	limit := maxTokens
	if limit <= 0 {
		limit = ModelLimit(c.model)
	}
	budget := limit - reservedSystem - reservedOutput - reservedSafety
	if budget < 0 {
		budget = 0
	}

	meta := Metadata{
		OriginalCount:  len(history),
		OriginalTokens: c.CountMessages(history),
	}
	if meta.OriginalTokens <= budget {
		meta.FinalCount = meta.OriginalCount
		meta.FinalTokens = meta.OriginalTokens
		return history, meta
	}
	meta.Truncated = true

	recencyStart := len(history) - recencyPairs*2
	if recencyStart < 0 {
		recencyStart = 0
	}
	recent := history[recencyStart:]
	older := history[:recencyStart]

	recentTokens := c.CountMessages(recent)
	if recentTokens > budget {
		kept := c.keepMostRecent(recent, budget)
		meta.FinalCount = len(kept)
		meta.FinalTokens = c.CountMessages(kept)
		return kept, meta
	}

	kept := c.fillByImportance(older, recent, budget-recentTokens)
	meta.FinalCount = len(kept)
	meta.FinalTokens = c.CountMessages(kept)
	return kept, meta
}

// keepMostRecent keeps the newest messages that fit. When not even the
// last message fits, its content is emergency-truncated to roughly the
// budget's character equivalent.
func (c *Counter) keepMostRecent(msgs []llm.Message, budget int) []llm.Message {
	var kept []llm.Message
	total := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := c.CountMessage(msgs[i])
		if total+cost > budget {
			break
		}
		kept = append([]llm.Message{msgs[i]}, kept...)
		total += cost
	}
	if len(kept) > 0 {
		return kept
	}

	last := msgs[len(msgs)-1]
	maxChars := budget * 4
	if maxChars <= 0 {
		maxChars = 256
	}
	if len(last.Content) > maxChars {
		last.Content = last.Content[:maxChars] + truncatedMarker
	}
	return []llm.Message{last}
}

// fillByImportance picks older messages by descending score until the
// budget runs out, then merges them with the recency window in the
// original order.
func (c *Counter) fillByImportance(older, recent []llm.Message, budget int) []llm.Message {
	type scored struct {
		index int
		score float64
		cost  int
	}
	candidates := make([]scored, 0, len(older))
	for i, m := range older {
		candidates = append(candidates, scored{
			index: i,
			score: importance(m, i == 0),
			cost:  c.CountMessage(m),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	picked := make(map[int]bool)
	for _, cand := range candidates {
		if cand.cost > budget {
			continue
		}
		picked[cand.index] = true
		budget -= cand.cost
	}

	kept := make([]llm.Message, 0, len(picked)+len(recent))
	for i, m := range older {
		if picked[i] {
			kept = append(kept, m)
		}
	}
	return append(kept, recent...)
}

// importance scores a message for retention. Tuned for this domain:
// personalization and measurements outrank pleasantries.
func importance(m llm.Message, isFirst bool) float64 {
	score := 0.0
	if isFirst {
		score += 2 // opening message usually sets the context
	}
	if m.Role == llm.RoleUser {
		score += 1
	}
	if personalPattern.MatchString(m.Content) {
		score += 3
	}
	if quantitativePattern.MatchString(m.Content) {
		score += 2
	}
	if citationPattern.MatchString(m.Content) {
		score += 1.5
	}
	if strings.Contains(m.Content, "?") {
		score += 1
	}
	if len(m.Content) < 50 {
		score -= 1
	}
	if smallTalk[strings.ToLower(strings.TrimSpace(strings.TrimRight(m.Content, "!. ")))] {
		score -= 2
	}
	return score
}
