package agent

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind categorizes pipeline failures. User-facing messages are derived
// from the kind; internal details stay in logs.
type Kind string

const (
	KindInputInvalid        Kind = "input_invalid"
	KindSecurityCritical    Kind = "security_critical"
	KindPromptInjection     Kind = "prompt_injection"
	KindCostExceeded        Kind = "cost_exceeded"
	KindLoopDetected        Kind = "loop_detected"
	KindToolTimeout         Kind = "tool_timeout"
	KindToolFailure         Kind = "tool_failure"
	KindCircuitOpen         Kind = "circuit_open"
	KindProviderRateLimited Kind = "provider_rate_limited"
	KindProviderUnavailable Kind = "provider_unavailable"
	KindTokenBudgetExceeded Kind = "token_budget_exceeded"
	KindContextTruncated    Kind = "context_truncated"
	KindInternal            Kind = "internal_error"
)

// Severity levels for logging and alerting.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error is the structured pipeline error. UserMessage is safe to show;
// Internal and the wrapped cause are log-only.
type Error struct {
	Kind        Kind
	Severity    Severity
	Code        string
	UserMessage string
	Internal    string
	Err         error
	Context     map[string]string
}

func (e *Error) Error() string {
	if e.Internal != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Code, e.Internal)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Code, e.UserMessage)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// kindDefaults maps each kind to its severity and user-facing message.
var kindDefaults = map[Kind]struct {
	severity Severity
	message  string
}{
	KindInputInvalid:        {SeverityLow, "I couldn't process that message. Please rephrase and try again."},
	KindSecurityCritical:    {SeverityCritical, "I can't help with that request."},
	KindPromptInjection:     {SeverityMedium, "I've interpreted your message as an air quality question."},
	KindCostExceeded:        {SeverityMedium, "The daily usage budget has been reached. Please try again tomorrow."},
	KindLoopDetected:        {SeverityLow, "It looks like we're going in circles. Let me help you differently."},
	KindToolTimeout:         {SeverityMedium, "A data source took too long to respond. Please try again shortly."},
	KindToolFailure:         {SeverityMedium, "I couldn't reach the air quality data sources right now."},
	KindCircuitOpen:         {SeverityMedium, "A data source is temporarily unavailable. Please try again in a few minutes."},
	KindProviderRateLimited: {SeverityHigh, "I'm experiencing high demand right now. Please try again in a moment."},
	KindProviderUnavailable: {SeverityHigh, "The assistant is temporarily unavailable. Please try again shortly."},
	KindTokenBudgetExceeded: {SeverityMedium, "That message is too long for me to process. Please shorten it."},
	KindContextTruncated:    {SeverityLow, "Part of our earlier conversation was summarized to fit."},
	KindInternal:            {SeverityHigh, "Something went wrong on my side. Please try again."},
}

// newError builds a structured error of the given kind. The code is a
// short opaque id for correlating user reports with logs.
func newError(kind Kind, internal string, cause error) *Error {
	def := kindDefaults[kind]
	if def.message == "" {
		def = kindDefaults[KindInternal]
	}
	return &Error{
		Kind:        kind,
		Severity:    def.severity,
		Code:        uuid.NewString()[:8],
		UserMessage: def.message,
		Internal:    internal,
		Err:         cause,
		Context:     make(map[string]string),
	}
}

func (e *Error) withContext(key, value string) *Error {
	e.Context[key] = value
	return e
}
