package orchestrator

import (
	"sync"
	"time"
)

// breakerEntry tracks one tool's failure state.
type breakerEntry struct {
	mu          sync.Mutex
	failures    int
	lastFailure time.Time
}

// CircuitBreaker skips calls to a tool after sustained failures. Once the
// consecutive failure count reaches the threshold, calls are blocked until
// the open timeout has elapsed since the last failure; the next attempt is
// then allowed through — success fully resets the counter, failure
// re-opens the breaker.
type CircuitBreaker struct {
	threshold   int
	openTimeout time.Duration

	mu      sync.Mutex
	entries map[string]*breakerEntry

	now func() time.Time // test hook
}

// NewCircuitBreaker creates a breaker. Non-positive arguments get the
// production defaults (5 failures, 300 s cooldown).
func NewCircuitBreaker(threshold int, openTimeout time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if openTimeout <= 0 {
		openTimeout = 5 * time.Minute
	}
	return &CircuitBreaker{
		threshold:   threshold,
		openTimeout: openTimeout,
		entries:     make(map[string]*breakerEntry),
		now:         time.Now,
	}
}

func (cb *CircuitBreaker) entry(tool string) *breakerEntry {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	e, ok := cb.entries[tool]
	if !ok {
		e = &breakerEntry{}
		cb.entries[tool] = e
	}
	return e
}

// Allow reports whether a call to the tool may proceed.
func (cb *CircuitBreaker) Allow(tool string) bool {
	e := cb.entry(tool)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failures < cb.threshold {
		return true
	}
	// Open: the breaker admits the next attempt once the cooldown has
	// elapsed since the last failure.
	return cb.now().Sub(e.lastFailure) >= cb.openTimeout
}

// RecordSuccess resets the tool's failure counter.
func (cb *CircuitBreaker) RecordSuccess(tool string) {
	e := cb.entry(tool)
	e.mu.Lock()
	e.failures = 0
	e.mu.Unlock()
}

// RecordFailure increments the counter and stamps the failure time.
func (cb *CircuitBreaker) RecordFailure(tool string) {
	e := cb.entry(tool)
	e.mu.Lock()
	e.failures++
	e.lastFailure = cb.now()
	e.mu.Unlock()
}

// Failures returns the tool's current consecutive failure count.
func (cb *CircuitBreaker) Failures(tool string) int {
	e := cb.entry(tool)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failures
}
