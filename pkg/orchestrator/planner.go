package orchestrator

import (
	"fmt"
	"strings"

	"github.com/airsift/airsift/pkg/classify"
	"github.com/airsift/airsift/pkg/tools"
)

// Base priorities before relevance scaling.
const (
	priorityAfricanAQ = 100
	priorityGlobalAQ  = 90
	priorityForecast  = 80
	prioritySearch    = 60
)

// Planner turns a classification into an execution plan.
type Planner struct {
	registry *tools.Registry
}

// NewPlanner creates a planner over the given registry. Unregistered tools
// are never planned.
func NewPlanner(registry *tools.Registry) *Planner {
	return &Planner{registry: registry}
}

// BuildPlan derives tool calls from a classified query:
//
//   - per detected location, the African-specialist source for African
//     cities and the global source otherwise
//   - weather forecasts per city when the query asks about the future
//   - a web search when the query is historical, or when external data is
//     needed but no location was detected
//
// Calls for distinct locations carry no dependencies, so they run in one
// parallel batch. Base priorities are scaled by tool relevance for the
// query, so a specialist source outranks a generic one for its region.
func (pl *Planner) BuildPlan(res *classify.Result, rawQuery string) *ExecutionPlan {
	plan := &ExecutionPlan{}
	if res == nil || !res.NeedsExternal {
		return plan
	}

	seen := make(map[string]bool)
	add := func(name string, args tools.Args, base float64, deps ...string) string {
		if !pl.registry.Has(name) {
			return ""
		}
		id := callID(name, args)
		if seen[id] {
			return id
		}
		seen[id] = true
		plan.Calls = append(plan.Calls, &ToolCall{
			ID:        id,
			Tool:      name,
			Args:      args,
			Priority:  base * pl.relevance(name, res),
			DependsOn: deps,
			Status:    StatusPending,
		})
		return id
	}

	for _, loc := range res.Locations {
		if loc.IsAfrican {
			add(tools.ToolAfricanCityAirQuality, tools.Args{"city": loc.Name}, priorityAfricanAQ)
		} else {
			add(tools.ToolCityAirQuality, tools.Args{"city": loc.Name}, priorityGlobalAQ)
		}
		if res.TimeRange == classify.TimeForecast {
			add(tools.ToolWeatherForecast, tools.Args{"city": loc.Name, "days": 3}, priorityForecast)
		}
	}

	if res.Coordinates != nil {
		add(tools.ToolOpenMeteoAirQuality, tools.Args{
			"latitude":  res.Coordinates.Latitude,
			"longitude": res.Coordinates.Longitude,
		}, priorityGlobalAQ)
	}

	if res.TimeRange == classify.TimeHistorical ||
		(len(res.Locations) == 0 && res.Coordinates == nil) {
		add(tools.ToolSearchWeb, tools.Args{"query": rawQuery}, prioritySearch)
	}

	return plan
}

func (pl *Planner) relevance(name string, res *classify.Result) float64 {
	tool, err := pl.registry.Get(name)
	if err != nil {
		return 1.0
	}
	return classify.ToolRelevance(tool.Capability, res)
}

// callID builds a stable identity for deduplication: a tool planned twice
// for the same city collapses to one call.
func callID(name string, args tools.Args) string {
	if city := args.String("city"); city != "" {
		return name + ":" + strings.ToLower(city)
	}
	if q := args.String("query"); q != "" {
		return name + ":" + strings.ToLower(q)
	}
	if lat, ok := args.Float("latitude"); ok {
		lon, _ := args.Float("longitude")
		return fmt.Sprintf("%s:%.4f,%.4f", name, lat, lon)
	}
	return name
}
