package tools

import (
	"context"
	"errors"

	"github.com/airsift/airsift/pkg/classify"
)

var chartTypes = map[string]bool{
	"line": true,
	"bar":  true,
	"area": true,
}

// generateChartTool produces a chart descriptor the client renders. The
// server never rasterizes anything; the descriptor carries the series and
// presentation hints.
func generateChartTool() *Tool {
	return &Tool{
		Definition: Definition{
			Name:        ToolGenerateChart,
			Description: "Build a chart descriptor (type, series, labels) for client-side rendering.",
			ParametersSchema: `{
				"type": "object",
				"properties": {
					"title": {"type": "string"},
					"chart_type": {"type": "string", "enum": ["line", "bar", "area"]},
					"labels": {"type": "array", "items": {"type": "string"}},
					"series": {"type": "array"}
				},
				"required": ["title", "series"]
			}`,
			Capability: classify.Capability{
				BaseConfidence: 0.60,
			},
		},
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			title := args.String("title")
			if title == "" {
				return nil, errors.New("title is required")
			}
			series, ok := args["series"].([]any)
			if !ok || len(series) == 0 {
				return nil, errors.New("series is required")
			}

			chartType := args.String("chart_type")
			if !chartTypes[chartType] {
				chartType = "line"
			}

			data := map[string]any{
				"title":      title,
				"chart_type": chartType,
				"series":     series,
			}
			if labels, ok := args["labels"].([]any); ok && len(labels) > 0 {
				data["labels"] = labels
			}

			return &Result{Name: ToolGenerateChart, Success: true, Data: data}, nil
		},
	}
}
