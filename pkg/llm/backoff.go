package llm

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"
)

// Backoff schedule for transient provider errors: a randomized 1-2 s base
// doubled per attempt, capped at 60 s.
const (
	backoffBaseMin = 1 * time.Second
	backoffBaseMax = 2 * time.Second
	backoffMax     = 60 * time.Second
)

// retryable marks errors worth another attempt.
func retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}

// withRetries runs fn up to maxAttempts times, backing off between
// attempts on retryable errors. Non-retryable errors return immediately.
func withRetries(ctx context.Context, maxAttempts int, fn func() (*Output, error)) (*Output, error) {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt)
			slog.Warn("Retrying LLM call", "attempt", attempt+1, "delay", delay)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
		}

		out, err := fn()
		if err == nil {
			return out, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func backoffDelay(attempt int) time.Duration {
	base := backoffBaseMin + time.Duration(rand.Int63n(int64(backoffBaseMax-backoffBaseMin)))
	delay := base * (1 << (attempt - 1))
	if delay > backoffMax {
		delay = backoffMax
	}
	return delay
}
