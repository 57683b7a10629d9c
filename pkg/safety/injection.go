package safety

import (
	"log/slog"
	"strings"
)

// InjectionResult describes a prompt-injection finding.
type InjectionResult struct {
	Detected bool
	Family   string // command_override, role_manipulation, extraction
	// CleanQuery is the extracted legitimate sub-query, or FallbackQuery
	// when nothing extractable was found. Empty when Detected is false.
	CleanQuery string
}

// DetectInjection scans input for prompt-injection patterns. On a match it
// does not reject — it extracts the most plausible legitimate air-quality
// sub-query so the assistant stays helpful. The incident is logged at
// warning severity.
func (f *Filter) DetectInjection(input string) InjectionResult {
	for family, patterns := range injectionPatterns {
		for _, p := range patterns {
			if !p.MatchString(input) {
				continue
			}
			clean := extractLegitimateQuery(input)
			slog.Warn("Prompt injection detected",
				"family", family,
				"extracted_query", clean != FallbackQuery)
			return InjectionResult{Detected: true, Family: family, CleanQuery: clean}
		}
	}
	return InjectionResult{}
}

// extractLegitimateQuery pulls the first air-quality-shaped sub-query out
// of an injection-flagged message. Falls back to a generic query so the
// turn still produces a useful answer.
func extractLegitimateQuery(input string) string {
	for _, p := range legitimateQueryPatterns {
		if m := p.FindString(input); m != "" {
			return strings.TrimRight(strings.TrimSpace(m), ".?")
		}
	}
	return FallbackQuery
}
