package session

import (
	"strings"
)

// summaryRefreshEvery controls lazy summary refresh: only every N turns.
const summaryRefreshEvery = 10

// summaryTailMessages is how many recent user utterances the heuristic
// summary keeps beside the opening one.
const summaryTailMessages = 3

// NeedsSummaryRefresh reports whether the session is due for a summary
// rebuild.
func NeedsSummaryRefresh(s *Session) bool {
	return s != nil && s.NumTurns() > 0 && s.NumTurns()%summaryRefreshEvery == 0
}

// HeuristicSummary builds a cheap rolling summary without a model call:
// the opening user utterance (it usually sets the topic) joined with the
// most recent ones.
func HeuristicSummary(s *Session) string {
	if s == nil || s.NumTurns() == 0 {
		return ""
	}

	var parts []string
	first := strings.TrimSpace(s.Turns[0].User)
	if first != "" {
		parts = append(parts, "Conversation started with: "+clip(first, 200))
	}

	recent := s.RecentUserMessages(summaryTailMessages)
	var tail []string
	for _, msg := range recent {
		msg = strings.TrimSpace(msg)
		if msg != "" && msg != first {
			tail = append(tail, clip(msg, 200))
		}
	}
	if len(tail) > 0 {
		parts = append(parts, "Recent topics: "+strings.Join(tail, "; "))
	}
	return strings.Join(parts, " ")
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
