package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/airsift/airsift/pkg/classify"
	"github.com/airsift/airsift/pkg/config"
	"github.com/airsift/airsift/pkg/tools"
)

// ErrCircuitOpen marks calls skipped because the tool's breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// ResponseTimeRecorder receives per-call durations. The health monitor
// implements this.
type ResponseTimeRecorder interface {
	RecordResponseTime(component string, d time.Duration)
}

// Orchestrator executes plans batch by batch with bounded concurrency.
type Orchestrator struct {
	planner   *Planner
	executor  *tools.Executor
	breaker   *CircuitBreaker
	fallbacks map[string][]fallbackStep
	recorder  ResponseTimeRecorder

	maxConcurrent   int64
	maxRetries      int
	retryDelay      time.Duration
	enableFallbacks bool

	sleep func(ctx context.Context, d time.Duration) error // test hook
}

// New creates an orchestrator from config. recorder may be nil.
func New(cfg config.OrchestratorConfig, executor *tools.Executor, recorder ResponseTimeRecorder) *Orchestrator {
	maxConcurrent := int64(cfg.MaxConcurrentTools)
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}
	return &Orchestrator{
		planner:         NewPlanner(executor.Registry()),
		executor:        executor,
		breaker:         NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerOpenTimeout),
		fallbacks:       defaultFallbacks(),
		recorder:        recorder,
		maxConcurrent:   maxConcurrent,
		maxRetries:      cfg.MaxRetries,
		retryDelay:      retryDelay,
		enableFallbacks: cfg.FallbacksEnabled(),
		sleep:           sleepCtx,
	}
}

// Breaker exposes the circuit breaker for health reporting and tests.
func (o *Orchestrator) Breaker() *CircuitBreaker {
	return o.breaker
}

// Run plans and executes tools for a classified query. Individual tool
// failures never abort the run; the result is successful when at least
// one tool produced data.
func (o *Orchestrator) Run(ctx context.Context, res *classify.Result, rawQuery string) *Result {
	plan := o.planner.BuildPlan(res, rawQuery)
	return o.Execute(ctx, plan)
}

// Execute runs an already-built plan.
func (o *Orchestrator) Execute(ctx context.Context, plan *ExecutionPlan) *Result {
	start := time.Now()
	out := &Result{Results: make(map[string]*tools.Result)}
	if plan.Empty() {
		out.Duration = time.Since(start)
		return out
	}

	sem := semaphore.NewWeighted(o.maxConcurrent)
	for _, batch := range layerPlan(plan) {
		var wg sync.WaitGroup
		for _, call := range batch {
			if err := sem.Acquire(ctx, 1); err != nil {
				call.Status = StatusSkipped
				call.Err = err.Error()
				continue
			}
			wg.Add(1)
			go func(call *ToolCall) {
				defer wg.Done()
				defer sem.Release(1)
				o.runCall(ctx, call)
			}(call)
		}
		wg.Wait()
	}

	// Dedup by tool name, last value wins; completion order within a
	// batch is nondeterministic by design.
	for _, call := range plan.Calls {
		out.Calls = append(out.Calls, call)
		if call.Status != StatusSuccess || call.Result == nil {
			continue
		}
		name := call.Tool
		if call.FallbackUsed != "" {
			name = call.FallbackUsed
		}
		if _, dup := out.Results[name]; !dup {
			out.ToolsUsed = append(out.ToolsUsed, name)
		}
		out.Results[name] = call.Result
	}

	out.Success = len(out.Results) > 0
	out.ContextInjection = FormatContextInjection(out)
	out.Duration = time.Since(start)
	return out
}

// runCall drives one call through breaker check, retries, and the
// fallback cascade.
func (o *Orchestrator) runCall(ctx context.Context, call *ToolCall) {
	start := time.Now()
	defer func() {
		call.Duration = time.Since(start)
		if o.recorder != nil {
			o.recorder.RecordResponseTime("tools", call.Duration)
		}
	}()

	call.Status = StatusRunning
	result, err := o.attemptWithRetries(ctx, call, call.Tool, call.Args)
	if err == nil {
		call.Status = StatusSuccess
		call.Result = result
		return
	}
	if errors.Is(err, ErrCircuitOpen) && call.Attempts == 0 {
		call.Status = StatusSkipped
		call.Err = err.Error()
		return
	}

	call.Err = err.Error()
	if !o.enableFallbacks {
		call.Status = StatusFailed
		return
	}

	for _, step := range o.fallbacks[call.Tool] {
		args := call.Args
		if step.adapt != nil {
			adapted, ok := step.adapt(call.Args)
			if !ok {
				continue
			}
			args = adapted
		}
		slog.Info("Trying fallback tool", "primary", call.Tool, "fallback", step.tool)
		result, err := o.attemptWithRetries(ctx, call, step.tool, args)
		if err == nil {
			call.Status = StatusSuccess
			call.Result = result
			call.FallbackUsed = step.tool
			call.Err = ""
			return
		}
	}
	call.Status = StatusFailed
}

// attemptWithRetries runs one tool with the retry loop, recording breaker
// outcomes. A Result with Success=false counts as a failure.
func (o *Orchestrator) attemptWithRetries(ctx context.Context, call *ToolCall, name string, args tools.Args) (*tools.Result, error) {
	if !o.breaker.Allow(name) {
		slog.Warn("Circuit breaker open, skipping tool", "tool", name)
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, name)
	}

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			call.Status = StatusRetrying
			delay := o.retryDelay * (1 << (attempt - 1))
			if err := o.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		call.Attempts++
		result, err := o.executor.Execute(ctx, name, args)
		if err == nil && result != nil && result.Success {
			o.breaker.RecordSuccess(name)
			return result, nil
		}

		switch {
		case err != nil:
			lastErr = err
		case result == nil:
			lastErr = fmt.Errorf("tool %s returned no result", name)
		default:
			lastErr = fmt.Errorf("tool %s reported failure: %s", name, result.Error)
		}
		o.breaker.RecordFailure(name)
		slog.Debug("Tool attempt failed", "tool", name, "attempt", attempt+1, "error", lastErr)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
