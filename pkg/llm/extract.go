package llm

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/airsift/airsift/pkg/tools"
)

// Models without native tool calling often declare intent in prose:
//
//	get_city_air_quality(city=Kampala)
//
// extractToolCalls scans the output for such declarations matching
// registered tool names.
var toolCallPattern = regexp.MustCompile(`\b([a-z][a-z0-9_]*)\(([^()]*)\)`)

// extractedCall is one parsed free-form declaration.
type extractedCall struct {
	Name string
	Args tools.Args
}

func extractToolCalls(text string, registry *tools.Registry) []extractedCall {
	if registry == nil {
		return nil
	}
	var calls []extractedCall
	seen := make(map[string]bool)
	for _, m := range toolCallPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if !registry.Has(name) || seen[name+m[2]] {
			continue
		}
		seen[name+m[2]] = true
		calls = append(calls, extractedCall{Name: name, Args: parseCallArgs(m[2])})
	}
	return calls
}

// parseCallArgs parses "city=Kampala, days=3" into an argument map.
// Values are unquoted strings or numbers.
func parseCallArgs(raw string) tools.Args {
	args := tools.Args{}
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.Trim(strings.TrimSpace(kv[1]), `"'`)
		if key == "" || val == "" {
			continue
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			args[key] = f
		} else {
			args[key] = val
		}
	}
	return args
}

// runExtractedCalls executes free-form calls and renders their results as
// a transcript block for re-submission.
func runExtractedCalls(ctx context.Context, executor *tools.Executor, calls []extractedCall) (string, []string) {
	var b strings.Builder
	var used []string
	for _, call := range calls {
		result, err := executor.Execute(ctx, call.Name, call.Args)
		if err != nil || result == nil || !result.Success {
			slog.Debug("Extracted tool call failed", "tool", call.Name, "error", err)
			continue
		}
		used = append(used, call.Name)
		fmt.Fprintf(&b, "Result of %s: %v\n", call.Name, result.Data)
	}
	return b.String(), used
}
