package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Executor invokes registered tools with per-tool timeout enforcement.
// A timeout cancels the tool's context and returns ErrToolTimeout without
// affecting other executions in flight.
type Executor struct {
	registry       *Registry
	defaultTimeout time.Duration
}

// NewExecutor creates an executor. defaultTimeout applies to tools whose
// definition does not declare its own.
func NewExecutor(registry *Registry, defaultTimeout time.Duration) *Executor {
	if defaultTimeout <= 0 {
		defaultTimeout = 20 * time.Second
	}
	return &Executor{registry: registry, defaultTimeout: defaultTimeout}
}

// Registry exposes the backing registry (the planner needs lookups).
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Execute runs a tool synchronously under its timeout.
func (e *Executor) Execute(ctx context.Context, name string, args Args) (*Result, error) {
	tool, err := e.registry.Get(name)
	if err != nil {
		return nil, err
	}

	timeout := tool.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	toolCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, err := tool.Handler(toolCtx, args)
	elapsed := time.Since(start)

	if err != nil {
		if toolCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			slog.Warn("Tool timed out", "tool", name, "timeout", timeout)
			return nil, fmt.Errorf("%w: %s after %s", ErrToolTimeout, name, timeout)
		}
		return nil, fmt.Errorf("tool %s failed: %w", name, err)
	}

	slog.Debug("Tool executed", "tool", name, "duration", elapsed)
	return result, nil
}

// Execution is the pending result of an asynchronous tool call.
type Execution struct {
	Name string
	done chan struct{}

	result *Result
	err    error
}

// Wait blocks until the execution finishes or ctx is cancelled.
func (x *Execution) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-x.done:
		return x.result, x.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ExecuteAsync starts a tool call in its own goroutine and returns a
// handle. The call still honors its per-tool timeout.
func (e *Executor) ExecuteAsync(ctx context.Context, name string, args Args) *Execution {
	x := &Execution{Name: name, done: make(chan struct{})}
	go func() {
		defer close(x.done)
		x.result, x.err = e.Execute(ctx, name, args)
	}()
	return x
}
