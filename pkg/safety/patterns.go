package safety

import "regexp"

// compiledPattern pairs a pre-compiled regex with its replacement marker.
type compiledPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// criticalPatterns match input that is rejected outright. Bounded list —
// these are multi-stage destructive payloads, not profanity filters.
var criticalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)rm\s+-rf\s+[/~.]\S*\s*(;|&&|\|\|)`),
	regexp.MustCompile(`(?i)drop\s+table\s+\w+\s*;\s*(drop|delete|truncate)`),
	regexp.MustCompile(`(?i)eval\s*\(\s*__import__\s*\(\s*['"]os['"]\s*\)\s*\.\s*system`),
	regexp.MustCompile(`(?i)mkfs\.\w+\s+/dev/\w+`),
	regexp.MustCompile(`(?i):\(\)\s*\{\s*:\|:&\s*\}\s*;`),
}

// sanitizePatterns are silently replaced in input rather than rejected.
var sanitizePatterns = []compiledPattern{
	{
		name:        "backtick_exec",
		regex:       regexp.MustCompile("`[^`\n]{1,200}`"),
		replacement: "[removed]",
	},
	{
		name:        "script_tag",
		regex:       regexp.MustCompile(`(?is)<script[^>]*>.*?</script>|<script[^>]*>`),
		replacement: "[removed]",
	},
	{
		name:        "javascript_uri",
		regex:       regexp.MustCompile(`(?i)javascript:\S+`),
		replacement: "[removed]",
	},
}

// Prompt-injection families. Detection never rejects — the filter extracts
// the legitimate sub-query instead (see injection.go).
var injectionPatterns = map[string][]*regexp.Regexp{
	"command_override": {
		regexp.MustCompile(`(?i)ignore\s+(all\s+|any\s+)?(previous|prior|above|earlier)\s+(instructions?|prompts?|rules?)`),
		regexp.MustCompile(`(?i)disregard\s+(the\s+|your\s+|all\s+)?(rules?|instructions?|guidelines?)`),
		regexp.MustCompile(`(?i)forget\s+(everything|all|your)\s+(you\s+know|instructions?|training)`),
	},
	"role_manipulation": {
		regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|the)\s`),
		regexp.MustCompile(`(?i)^\s*system\s*:`),
		regexp.MustCompile(`(?i)act\s+as\s+(a\s+|an\s+)?(jailbreak|dan|developer\s+mode)`),
		regexp.MustCompile(`(?i)pretend\s+(you\s+are|to\s+be)\s+(unrestricted|uncensored)`),
	},
	"extraction": {
		regexp.MustCompile(`(?i)(show|tell|give|reveal)\s+(me\s+)?your\s+(system\s+)?(prompt|instructions?)`),
		regexp.MustCompile(`(?i)what('?s|\s+is)\s+your\s+(api[\s_-]?key|token|password|secret)`),
		regexp.MustCompile(`(?i)(print|repeat|output)\s+(your\s+)?(initial|original|system)\s+(prompt|message)`),
		regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`),
	},
}

// legitimateQueryPatterns extract the plausible air-quality sub-query from
// an injection-flagged message. Tried in order; first match wins.
var legitimateQueryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:what(?:'s| is)\s+the\s+)?air\s+quality\s+(?:in|at|near|for)\s+[A-Za-z][A-Za-z\s,.'-]{1,60}[?.]?`),
	regexp.MustCompile(`(?i)(?:aqi|pm\s?2\.5|pm\s?10)\s+(?:in|at|near|for)\s+[A-Za-z][A-Za-z\s,.'-]{1,60}[?.]?`),
	regexp.MustCompile(`(?i)is\s+it\s+safe\s+to\s+[a-z][a-z\s]{1,60}[?.]?`),
	regexp.MustCompile(`(?i)(?:forecast|pollution)\s+(?:in|at|near|for)\s+[A-Za-z][A-Za-z\s,.'-]{1,60}[?.]?`),
}

// secretPatterns are redacted from every outbound response.
var secretPatterns = []compiledPattern{
	{
		name:        "openai_key",
		regex:       regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`),
		replacement: "[REDACTED-KEY]",
	},
	{
		name:        "google_key",
		regex:       regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`),
		replacement: "[REDACTED-KEY]",
	},
	{
		name:        "bearer_token",
		regex:       regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/-]{16,}=*`),
		replacement: "[REDACTED-TOKEN]",
	},
	{
		name:        "key_assignment",
		regex:       regexp.MustCompile(`(?i)(api[\s_-]?key|token|password|secret)\s*[=:]\s*['"]?[A-Za-z0-9._~+/-]{8,}['"]?`),
		replacement: "$1=[REDACTED]",
	},
}

// reasoningPrefixes flag responses that start with leaked chain-of-thought.
// Checked case-folded against the first 200 characters. Keep this list
// conservative: false positives replace legitimate answers.
var reasoningPrefixes = []string{
	"the user wants",
	"the user is asking",
	"i should respond",
	"i need to respond",
	"let me think",
	"we need to first",
	"my reasoning:",
	"thinking:",
	"chain of thought:",
}

// codeLeakPatterns match implementation artifacts that must never reach the
// user. Positional and narrow — conceptual discussion of pollutants, units,
// or APIs must not trigger.
var codeLeakPatterns = []*regexp.Regexp{
	regexp.MustCompile("```python"),
	regexp.MustCompile("```json"),
	regexp.MustCompile(`Expected Output:`),
	regexp.MustCompile(`(?m)^\s*(latitude|longitude|api_key)\s*=\s*\S+`),
	regexp.MustCompile(`def\s+\w+\s*\(.*\)\s*:`),
}
