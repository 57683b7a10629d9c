package session

import (
	"strings"
)

// Loop detection thresholds. A conversation is looping when the same user
// message repeats, near-duplicates pile up, or the assistant keeps opening
// its replies identically.
const (
	exactRepeatThreshold   = 3
	jaccardThreshold       = 0.8
	jaccardRepeatThreshold = 3
	signaturePrefixLen     = 50
	signatureRepeatCount   = 3
)

// LoopCheck is the detector's verdict.
type LoopCheck struct {
	Looping bool
	Reason  string
}

// DetectLoop compares the incoming user message against the session's
// recent window. Sessions snapshot cheaply, so this runs on a clone
// outside the manager's lock.
func DetectLoop(s *Session, message string, window int) LoopCheck {
	if s == nil || window <= 0 {
		return LoopCheck{}
	}

	msg := normalizeForLoop(message)
	recent := s.RecentUserMessages(window)

	exact := 0
	similar := 0
	msgWords := wordSet(msg)
	for _, prior := range recent {
		p := normalizeForLoop(prior)
		if p == msg {
			exact++
		} else if jaccard(msgWords, wordSet(p)) >= jaccardThreshold {
			similar++
		}
	}
	// The incoming message itself counts as one occurrence.
	if exact+1 >= exactRepeatThreshold {
		return LoopCheck{Looping: true, Reason: "repeated question"}
	}
	if similar+exact >= jaccardRepeatThreshold {
		return LoopCheck{Looping: true, Reason: "near-duplicate questions"}
	}

	if assistantSignatureRepeats(s.RecentAssistantMessages(window)) {
		return LoopCheck{Looping: true, Reason: "repetitive responses"}
	}
	return LoopCheck{}
}

// assistantSignatureRepeats reports whether the last few assistant
// messages all open with the same 50-character prefix.
func assistantSignatureRepeats(msgs []string) bool {
	if len(msgs) < signatureRepeatCount {
		return false
	}
	tail := msgs[len(msgs)-signatureRepeatCount:]
	sig := signature(tail[0])
	if sig == "" {
		return false
	}
	for _, m := range tail[1:] {
		if signature(m) != sig {
			return false
		}
	}
	return true
}

func signature(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > signaturePrefixLen {
		s = s[:signaturePrefixLen]
	}
	return s
}

func normalizeForLoop(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// jaccard is word-set intersection over union, in [0,1].
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
