package agent

import (
	"fmt"
	"strings"

	"github.com/airsift/airsift/pkg/session"
)

// Response styles selectable per request.
const (
	StyleGeneral   = "general"
	StyleExecutive = "executive"
	StyleTechnical = "technical"
	StyleSimple    = "simple"
	StylePolicy    = "policy"
)

// ValidStyle reports whether a requested style is known. Empty means
// general.
func ValidStyle(style string) bool {
	switch style {
	case "", StyleGeneral, StyleExecutive, StyleTechnical, StyleSimple, StylePolicy:
		return true
	}
	return false
}

const basePreamble = `You are AirSift, an air quality assistant with a focus on African cities.
Answer questions about air quality, pollution levels, forecasts, and health guidance.
Ground every number in retrieved data when it is provided and cite the source.
If no data is available, say so plainly rather than inventing values.
Keep answers concise and practical.`

var stylePreambles = map[string]string{
	StyleGeneral:   "Respond in a friendly, accessible tone for a general audience.",
	StyleExecutive: "Respond as a briefing: lead with the headline number and the recommended action, three sentences maximum per point.",
	StyleTechnical: "Respond for a technical audience: include pollutant concentrations with units, measurement methodology, and uncertainty where known.",
	StyleSimple:    "Respond in very simple language, short sentences, no jargon. Explain any number you mention.",
	StylePolicy:    "Respond for policymakers: emphasize trends, health burden, WHO guideline comparisons, and intervention options.",
}

// buildSystemPrompt assembles the system preamble: base instructions,
// style, session summary, personal context, retrieved tool data.
func buildSystemPrompt(style, summary string, personal session.PersonalInfo, contextInjection string) string {
	var b strings.Builder
	b.WriteString(basePreamble)

	if sp, ok := stylePreambles[style]; ok && style != "" {
		b.WriteString("\n\n")
		b.WriteString(sp)
	}
	if summary != "" {
		b.WriteString("\n\nConversation summary: ")
		b.WriteString(summary)
	}
	if len(personal) > 0 {
		b.WriteString("\n\nKnown about the user (volunteered):")
		for _, field := range []string{"name", "location"} {
			if v := personal[field]; v != "" {
				fmt.Fprintf(&b, " %s=%s", field, v)
			}
		}
	}
	if contextInjection != "" {
		b.WriteString("\n\n")
		b.WriteString(contextInjection)
	}
	return b.String()
}

const (
	docContextHeader = "--- UPLOADED DOCUMENTS (for reference) ---"
	docContextFooter = "--- END OF DOCUMENTS ---"

	// docPreviewChars caps each document's inline preview.
	docPreviewChars = 1200
)

// buildDocumentContext prepends document previews to the user message so
// the model can see them regardless of history truncation.
func buildDocumentContext(docs []session.Document, message string) string {
	if len(docs) == 0 {
		return message
	}
	var b strings.Builder
	b.WriteString(docContextHeader)
	for _, doc := range docs {
		preview := doc.Content
		if len(preview) > docPreviewChars {
			preview = preview[:docPreviewChars] + "…"
		}
		fmt.Fprintf(&b, "\n[%s]\n%s\n", doc.Name, preview)
	}
	b.WriteString(docContextFooter)
	b.WriteString("\n\n")
	b.WriteString(message)
	return b.String()
}
