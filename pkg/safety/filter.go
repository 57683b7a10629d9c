// Package safety provides input sanitization, prompt-injection handling,
// and outbound response filtering. All patterns are compiled once at
// startup; the filter is stateless and safe for concurrent use.
package safety

import (
	"errors"
	"log/slog"
	"strings"
	"unicode"
)

// ErrSecurityCritical is returned when input matches a critical threat
// pattern. The pipeline refuses the turn outright.
var ErrSecurityCritical = errors.New("input matched a critical security pattern")

// FallbackQuery substitutes for an injection-flagged message from which no
// legitimate sub-query could be extracted. Service is never denied.
const FallbackQuery = "What is the current air quality?"

// Filter applies input sanitization and response filtering.
type Filter struct {
	maxInputBytes     int
	hardMaxInputBytes int
}

// Options tunes the filter's size caps.
type Options struct {
	MaxInputBytes     int // soft cap: input is truncated (default 50 KB)
	HardMaxInputBytes int // hard cap: input is rejected (default 500 KB)
}

// NewFilter creates a filter with the given caps.
func NewFilter(opts Options) *Filter {
	if opts.MaxInputBytes <= 0 {
		opts.MaxInputBytes = 50 * 1024
	}
	if opts.HardMaxInputBytes <= 0 {
		opts.HardMaxInputBytes = 500 * 1024
	}
	return &Filter{
		maxInputBytes:     opts.MaxInputBytes,
		hardMaxInputBytes: opts.HardMaxInputBytes,
	}
}

// SanitizeResult reports what happened during input sanitization.
type SanitizeResult struct {
	Text      string
	Truncated bool
	Modified  bool // a sanitize pattern fired
}

// Sanitize cleans user input. Returns ErrSecurityCritical for inputs
// matching a critical pattern; all other findings are repaired silently.
// Sanitize is idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func (f *Filter) Sanitize(input string) (SanitizeResult, error) {
	res := SanitizeResult{}

	if len(input) > f.hardMaxInputBytes {
		return res, ErrSecurityCritical
	}

	text := stripControlChars(input)
	text = strings.ToValidUTF8(text, "")

	if len(text) > f.maxInputBytes {
		text = truncateUTF8(text, f.maxInputBytes)
		res.Truncated = true
	}

	for _, p := range criticalPatterns {
		if p.MatchString(text) {
			slog.Warn("Critical input pattern matched", "pattern", p.String())
			return res, ErrSecurityCritical
		}
	}

	for _, p := range sanitizePatterns {
		if p.regex.MatchString(text) {
			text = p.regex.ReplaceAllString(text, p.replacement)
			res.Modified = true
			slog.Debug("Sanitize pattern applied", "pattern", p.name)
		}
	}

	res.Text = text
	return res, nil
}

// stripControlChars removes control characters except tab and newline.
func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back off to the last rune boundary.
	for n > 0 && (s[n]&0xC0) == 0x80 {
		n--
	}
	return s[:n]
}
