// Package orchestrator plans proactive tool execution from a query
// classification and runs the plan in dependency-ordered parallel batches
// with retries, fallback cascades, and per-tool circuit breaking.
package orchestrator

import (
	"time"

	"github.com/airsift/airsift/pkg/tools"
)

// CallStatus is the lifecycle state of a planned tool call.
type CallStatus string

const (
	StatusPending  CallStatus = "pending"
	StatusRunning  CallStatus = "running"
	StatusRetrying CallStatus = "retrying"
	StatusSuccess  CallStatus = "success"
	StatusFailed   CallStatus = "failed"
	StatusSkipped  CallStatus = "skipped"
)

// ToolCall is one planned invocation. The planner creates calls; only the
// executor mutates them afterwards.
type ToolCall struct {
	// ID distinguishes calls that share a tool name (e.g. the same tool
	// for two cities).
	ID string

	Tool string
	Args tools.Args

	// Priority orders submission within a batch, highest first. The
	// planner assigns base priorities scaled by tool relevance.
	Priority float64

	// DependsOn lists call IDs that must complete before this call runs.
	DependsOn []string

	Status   CallStatus
	Result   *tools.Result
	Err      string
	Attempts int
	Duration time.Duration

	// FallbackUsed names the fallback tool that produced Result, when the
	// primary tool failed.
	FallbackUsed string
}

// ExecutionPlan is the ordered set of calls for one turn.
type ExecutionPlan struct {
	Calls []*ToolCall
}

// Empty reports whether the plan has nothing to do.
func (p *ExecutionPlan) Empty() bool {
	return p == nil || len(p.Calls) == 0
}

// Batch is a set of calls whose dependencies are all satisfied; its
// members may run in parallel.
type Batch []*ToolCall

// Result is the outcome of executing a plan. Success means at least one
// tool produced data; individual failures never abort the orchestration.
type Result struct {
	Success bool

	// Results is keyed by tool name, deduplicated last-write-wins across
	// batches.
	Results map[string]*tools.Result

	// ToolsUsed lists the tools that actually produced data, including
	// fallbacks, in completion order.
	ToolsUsed []string

	// Calls carries the full per-call record for diagnostics.
	Calls []*ToolCall

	// ContextInjection is the formatted block appended to the system
	// preamble. Empty when no tool succeeded.
	ContextInjection string

	Duration time.Duration
}
