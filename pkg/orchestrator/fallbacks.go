package orchestrator

import (
	"github.com/airsift/airsift/pkg/tools"
)

// ArgAdapter rewrites a failed call's arguments for a fallback tool. A nil
// adapter passes the arguments through unchanged.
type ArgAdapter func(args tools.Args) (tools.Args, bool)

// fallbackStep is one link in a cascade.
type fallbackStep struct {
	tool  string
	adapt ArgAdapter
}

// cityToCoords adapts {city} arguments for coordinate-based tools. Fails
// (skipping the fallback) when the city is unknown.
func cityToCoords(args tools.Args) (tools.Args, bool) {
	city := args.String("city")
	if city == "" {
		return nil, false
	}
	lat, lon, err := tools.CityCoords(city)
	if err != nil {
		return nil, false
	}
	return tools.Args{"latitude": lat, "longitude": lon}, true
}

// cityToSearch turns a city lookup into a web search query.
func cityToSearch(args tools.Args) (tools.Args, bool) {
	city := args.String("city")
	if city == "" {
		return nil, false
	}
	return tools.Args{"query": "current air quality in " + city}, true
}

// searchToScrape follows the first search result.
func searchToScrape(args tools.Args) (tools.Args, bool) {
	// The executor substitutes the failed search's partial data when
	// available; with only the query there is nothing to scrape.
	if u := args.String("url"); u != "" {
		return tools.Args{"url": u}, true
	}
	return nil, false
}

// defaultFallbacks declares the cascade per tool name. Order matters:
// ground sensors, then aggregated stations, then modeled data, then the
// open web, then the offline seasonal estimate.
func defaultFallbacks() map[string][]fallbackStep {
	return map[string][]fallbackStep{
		tools.ToolAfricanCityAirQuality: {
			{tool: tools.ToolCityAirQuality},
			{tool: tools.ToolOpenMeteoAirQuality, adapt: cityToCoords},
			{tool: tools.ToolSearchWeb, adapt: cityToSearch},
			{tool: tools.ToolSeasonalContext},
		},
		tools.ToolCityAirQuality: {
			{tool: tools.ToolOpenMeteoAirQuality, adapt: cityToCoords},
			{tool: tools.ToolSearchWeb, adapt: cityToSearch},
			{tool: tools.ToolSeasonalContext},
		},
		tools.ToolSearchWeb: {
			{tool: tools.ToolScrapeWebsite, adapt: searchToScrape},
		},
	}
}
