package orchestrator

import (
	"log/slog"
	"sort"
)

// layerPlan partitions a plan into ordered batches: a call joins a batch
// once every call it depends on sits in an earlier batch. Within a batch,
// calls are sorted by descending priority. Cycles and dangling dependency
// IDs cannot be layered; those plans degrade to a single sequential batch
// per call, in plan order, with a warning.
func layerPlan(plan *ExecutionPlan) []Batch {
	if plan.Empty() {
		return nil
	}

	placed := make(map[string]bool, len(plan.Calls))
	remaining := append([]*ToolCall(nil), plan.Calls...)

	var batches []Batch
	for len(remaining) > 0 {
		var batch Batch
		var next []*ToolCall
		for _, call := range remaining {
			if depsSatisfied(call, placed) {
				batch = append(batch, call)
			} else {
				next = append(next, call)
			}
		}

		if len(batch) == 0 {
			slog.Warn("Execution plan has unsatisfiable dependencies, running sequentially",
				"stuck_calls", len(next))
			return sequentialBatches(plan)
		}

		sort.SliceStable(batch, func(i, j int) bool {
			return batch[i].Priority > batch[j].Priority
		})
		for _, call := range batch {
			placed[call.ID] = true
		}
		batches = append(batches, batch)
		remaining = next
	}
	return batches
}

func depsSatisfied(call *ToolCall, placed map[string]bool) bool {
	for _, dep := range call.DependsOn {
		if !placed[dep] {
			return false
		}
	}
	return true
}

func sequentialBatches(plan *ExecutionPlan) []Batch {
	batches := make([]Batch, 0, len(plan.Calls))
	for _, call := range plan.Calls {
		batches = append(batches, Batch{call})
	}
	return batches
}
