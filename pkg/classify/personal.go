package classify

import (
	"regexp"
	"strings"
)

// Sharing patterns: the user volunteers personal information. Capture
// groups hold the shared value.
var (
	namePattern     = regexp.MustCompile(`(?i)\bmy name is\s+([A-Za-z][A-Za-z'-]{1,40})`)
	iAmPattern      = regexp.MustCompile(`(?i)\bi(?:'m| am)\s+called\s+([A-Za-z][A-Za-z'-]{1,40})`)
	liveInPattern   = regexp.MustCompile(`(?i)\bi live in\s+([A-Za-z][A-Za-z\s'-]{1,40}?)(?:[.,!?]|$)`)
	fromPattern     = regexp.MustCompile(`(?i)\bi(?:'m| am) from\s+([A-Za-z][A-Za-z\s'-]{1,40}?)(?:[.,!?]|$)`)
	basedInPattern  = regexp.MustCompile(`(?i)\bi(?:'m| am) (?:based|located) in\s+([A-Za-z][A-Za-z\s'-]{1,40}?)(?:[.,!?]|$)`)
)

// Recall patterns: the user asks the assistant to remember.
var recallPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bwhat(?:'s| is)\s+my\s+name\b`),
	regexp.MustCompile(`(?i)\bdo you (?:know|remember)\s+my\s+name\b`),
	regexp.MustCompile(`(?i)\bwhere do i live\b`),
	regexp.MustCompile(`(?i)\bwhere am i from\b`),
	regexp.MustCompile(`(?i)\bwhat did i (?:say|tell you) about (?:me|myself)\b`),
}

// detectPersonalInfo applies the personal-info sub-protocol: sharing
// statements extract fields, recall questions set Sharing=false. Returns
// nil when the message is neither.
func detectPersonalInfo(message string) *PersonalInfo {
	pi := &PersonalInfo{Sharing: true}
	found := false

	if m := namePattern.FindStringSubmatch(message); m != nil {
		pi.Name = m[1]
		found = true
	} else if m := iAmPattern.FindStringSubmatch(message); m != nil {
		pi.Name = m[1]
		found = true
	}

	for _, p := range []*regexp.Regexp{liveInPattern, fromPattern, basedInPattern} {
		if m := p.FindStringSubmatch(message); m != nil {
			pi.Location = strings.TrimSpace(m[1])
			found = true
			break
		}
	}

	if found {
		return pi
	}

	for _, p := range recallPatterns {
		if p.MatchString(message) {
			return &PersonalInfo{Sharing: false}
		}
	}
	return nil
}

// ExtractPersonalFields re-runs the sharing extractors against arbitrary
// text. The session manager uses this to scan past turns so recall never
// depends on model attention across truncation.
func ExtractPersonalFields(text string) (name, location string) {
	if m := namePattern.FindStringSubmatch(text); m != nil {
		name = m[1]
	} else if m := iAmPattern.FindStringSubmatch(text); m != nil {
		name = m[1]
	}
	for _, p := range []*regexp.Regexp{liveInPattern, fromPattern, basedInPattern} {
		if m := p.FindStringSubmatch(text); m != nil {
			location = strings.TrimSpace(m[1])
			break
		}
	}
	return name, location
}

// IsRecallQuestion reports whether the message explicitly asks the
// assistant to recall stored personal information.
func IsRecallQuestion(message string) bool {
	for _, p := range recallPatterns {
		if p.MatchString(message) {
			return true
		}
	}
	return false
}
