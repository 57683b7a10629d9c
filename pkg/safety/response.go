package safety

import (
	"log/slog"
	"strings"
)

// reasoningLeakReplacement is the fixed helpful menu substituted for a
// response that opens with leaked chain-of-thought.
const reasoningLeakReplacement = "I can help you with air quality information. You can ask me about:\n\n" +
	"- Current air quality in any city (\"What's the air quality in Nairobi?\")\n" +
	"- Forecasts (\"Will the air be clean in Lagos tomorrow?\")\n" +
	"- Comparisons between cities\n" +
	"- Health advice for current conditions\n\n" +
	"What would you like to know?"

// codeLeakReplacement substitutes for a response containing implementation
// artifacts.
const codeLeakReplacement = "I wasn't able to format that answer properly. " +
	"Could you rephrase your question? I can report current readings, forecasts, " +
	"and health guidance for any city."

// FilterResult describes what the outbound filter changed.
type FilterResult struct {
	Text          string
	Redacted      bool
	ReasoningLeak bool
	CodeLeak      bool
}

// FilterResponse runs every outbound check: secret redaction, reasoning-leak
// replacement, and code-leak replacement. The returned text is always safe
// to send to the user.
func (f *Filter) FilterResponse(response string) FilterResult {
	res := FilterResult{Text: response}

	if leaked, _ := hasReasoningLeak(response); leaked {
		slog.Warn("Reasoning leak detected in response, replacing")
		res.Text = reasoningLeakReplacement
		res.ReasoningLeak = true
		return res
	}

	if hasCodeLeak(response) {
		slog.Warn("Code leak detected in response, replacing")
		res.Text = codeLeakReplacement
		res.CodeLeak = true
		return res
	}

	res.Text, res.Redacted = RedactSecrets(response)
	return res
}

// RedactSecrets replaces recognizable credential shapes with non-secret
// markers. Applied to every outbound response.
func RedactSecrets(text string) (string, bool) {
	redacted := false
	for _, p := range secretPatterns {
		if p.regex.MatchString(text) {
			text = p.regex.ReplaceAllString(text, p.replacement)
			redacted = true
		}
	}
	return text, redacted
}

// hasReasoningLeak checks whether the response opens with a known
// chain-of-thought prefix. Only the first 200 characters are examined.
func hasReasoningLeak(response string) (bool, string) {
	head := response
	if len(head) > 200 {
		head = head[:200]
	}
	head = strings.ToLower(strings.TrimSpace(head))
	for _, prefix := range reasoningPrefixes {
		if strings.HasPrefix(head, prefix) {
			return true, prefix
		}
	}
	return false, ""
}

// hasCodeLeak checks for implementation fences and assignments.
func hasCodeLeak(response string) bool {
	for _, p := range codeLeakPatterns {
		if p.MatchString(response) {
			return true
		}
	}
	return false
}
