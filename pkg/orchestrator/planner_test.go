package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsift/airsift/pkg/classify"
	"github.com/airsift/airsift/pkg/tools"
)

// registryWithStubs registers succeeding stubs for every built-in tool
// name so plans are never filtered by registration.
func registryWithStubs(t *testing.T) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	for _, name := range []string{
		tools.ToolCityAirQuality, tools.ToolAfricanCityAirQuality,
		tools.ToolOpenMeteoAirQuality, tools.ToolAirQualityForecast,
		tools.ToolWeatherForecast, tools.ToolSearchWeb,
		tools.ToolScrapeWebsite, tools.ToolSeasonalContext,
	} {
		registerStub(r, name, capabilityFor(name), nil)
	}
	return r
}

func capabilityFor(name string) classify.Capability {
	switch name {
	case tools.ToolAfricanCityAirQuality:
		return classify.Capability{AfricaSpecialist: true, Realtime: true, BaseConfidence: 0.85}
	case tools.ToolCityAirQuality:
		return classify.Capability{Realtime: true, BaseConfidence: 0.85}
	case tools.ToolOpenMeteoAirQuality:
		return classify.Capability{Realtime: true, BaseConfidence: 0.70}
	case tools.ToolSearchWeb, tools.ToolScrapeWebsite:
		return classify.Capability{BaseConfidence: 0.50}
	}
	return classify.Capability{BaseConfidence: 0.70}
}

// registerStub installs a tool whose handler returns result (or a default
// success payload when result is nil).
func registerStub(r *tools.Registry, name string, cap classify.Capability, result *tools.Result) {
	r.Register(&tools.Tool{
		Definition: tools.Definition{Name: name, Capability: cap},
		Handler: func(ctx context.Context, args tools.Args) (*tools.Result, error) {
			if result != nil {
				return result, nil
			}
			return &tools.Result{Name: name, Success: true, Data: map[string]any{
				"city": args.String("city"), "source": "stub",
			}}, nil
		},
	})
}

func findCall(plan *ExecutionPlan, tool string) *ToolCall {
	for _, c := range plan.Calls {
		if c.Tool == tool {
			return c
		}
	}
	return nil
}

func TestBuildPlan(t *testing.T) {
	pl := NewPlanner(registryWithStubs(t))

	t.Run("african city gets the specialist source at top priority", func(t *testing.T) {
		plan := pl.BuildPlan(&classify.Result{
			Intent:        classify.IntentAirQualityData,
			Locations:     []classify.Location{{Name: "Kampala", IsAfrican: true}},
			TimeRange:     classify.TimeCurrent,
			NeedsExternal: true,
		}, "What's the air quality in Kampala?")

		require.Len(t, plan.Calls, 1)
		call := plan.Calls[0]
		assert.Equal(t, tools.ToolAfricanCityAirQuality, call.Tool)
		assert.Equal(t, "Kampala", call.Args.String("city"))
		// base 100 × relevance (0.85 × 1.20 africa × 1.10 realtime, capped at 1.0)
		assert.Equal(t, 100.0, call.Priority)
		assert.Empty(t, call.DependsOn)
	})

	t.Run("global city gets the generic source", func(t *testing.T) {
		plan := pl.BuildPlan(&classify.Result{
			Locations:     []classify.Location{{Name: "London", IsAfrican: false}},
			TimeRange:     classify.TimeCurrent,
			NeedsExternal: true,
		}, "air quality in London")

		require.Len(t, plan.Calls, 1)
		assert.Equal(t, tools.ToolCityAirQuality, plan.Calls[0].Tool)
		// base 90 × (0.85 × 1.10 realtime)
		assert.InDelta(t, 90*0.85*1.10, plan.Calls[0].Priority, 1e-9)
	})

	t.Run("forecast comparison plans four independent calls", func(t *testing.T) {
		plan := pl.BuildPlan(&classify.Result{
			Intent:           classify.IntentComparison,
			ComparisonIntent: true,
			Locations: []classify.Location{
				{Name: "Nairobi", IsAfrican: true},
				{Name: "Lagos", IsAfrican: true},
			},
			TimeRange:     classify.TimeForecast,
			NeedsExternal: true,
		}, "Compare air quality in Nairobi vs Lagos tomorrow")

		require.Len(t, plan.Calls, 4)
		var aq, wf int
		for _, c := range plan.Calls {
			assert.Empty(t, c.DependsOn)
			switch c.Tool {
			case tools.ToolAfricanCityAirQuality:
				aq++
			case tools.ToolWeatherForecast:
				wf++
				assert.Equal(t, 3, c.Args.Int("days", 0))
			}
		}
		assert.Equal(t, 2, aq)
		assert.Equal(t, 2, wf)

		batches := layerPlan(plan)
		require.Len(t, batches, 1, "independent calls run in one parallel batch")
	})

	t.Run("no locations falls back to web search", func(t *testing.T) {
		plan := pl.BuildPlan(&classify.Result{
			NeedsExternal: true,
		}, "how bad is pollution right now")

		require.Len(t, plan.Calls, 1)
		assert.Equal(t, tools.ToolSearchWeb, plan.Calls[0].Tool)
		assert.Equal(t, "how bad is pollution right now", plan.Calls[0].Args.String("query"))
	})

	t.Run("historical query adds web search beside city lookup", func(t *testing.T) {
		plan := pl.BuildPlan(&classify.Result{
			Locations:     []classify.Location{{Name: "Kampala", IsAfrican: true}},
			TimeRange:     classify.TimeHistorical,
			NeedsExternal: true,
		}, "kampala air quality last year")

		require.NotNil(t, findCall(plan, tools.ToolAfricanCityAirQuality))
		require.NotNil(t, findCall(plan, tools.ToolSearchWeb))
	})

	t.Run("coordinates plan the coordinate tool", func(t *testing.T) {
		plan := pl.BuildPlan(&classify.Result{
			Coordinates:   &classify.Coordinates{Latitude: 0.3476, Longitude: 32.5825},
			NeedsExternal: true,
		}, "air quality at 0.3476, 32.5825")

		require.Len(t, plan.Calls, 1)
		assert.Equal(t, tools.ToolOpenMeteoAirQuality, plan.Calls[0].Tool)
	})

	t.Run("duplicate locations collapse to one call", func(t *testing.T) {
		plan := pl.BuildPlan(&classify.Result{
			Locations: []classify.Location{
				{Name: "Kampala", IsAfrican: true},
				{Name: "kampala", IsAfrican: true},
			},
			NeedsExternal: true,
		}, "kampala vs Kampala")

		assert.Len(t, plan.Calls, 1)
	})

	t.Run("no external data means an empty plan", func(t *testing.T) {
		plan := pl.BuildPlan(&classify.Result{NeedsExternal: false}, "hello")
		assert.True(t, plan.Empty())
	})
}

func TestLayerPlan(t *testing.T) {
	t.Run("dependencies produce ordered batches", func(t *testing.T) {
		plan := &ExecutionPlan{Calls: []*ToolCall{
			{ID: "a", Tool: "a", Priority: 50},
			{ID: "b", Tool: "b", Priority: 90},
			{ID: "c", Tool: "c", Priority: 80, DependsOn: []string{"a"}},
		}}

		batches := layerPlan(plan)
		require.Len(t, batches, 2)
		require.Len(t, batches[0], 2)
		assert.Equal(t, "b", batches[0][0].ID, "higher priority first within a batch")
		assert.Equal(t, "a", batches[0][1].ID)
		assert.Equal(t, "c", batches[1][0].ID)
	})

	t.Run("cycle degrades to sequential batches", func(t *testing.T) {
		plan := &ExecutionPlan{Calls: []*ToolCall{
			{ID: "a", Tool: "a", DependsOn: []string{"b"}},
			{ID: "b", Tool: "b", DependsOn: []string{"a"}},
		}}

		batches := layerPlan(plan)
		require.Len(t, batches, 2)
		assert.Len(t, batches[0], 1)
		assert.Len(t, batches[1], 1)
	})

	t.Run("empty plan has no batches", func(t *testing.T) {
		assert.Nil(t, layerPlan(&ExecutionPlan{}))
	})
}
