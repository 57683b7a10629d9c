package tools

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/airsift/airsift/pkg/classify"
)

// seasonalProfile describes the pollution-relevant seasons for a region.
type seasonalProfile struct {
	region string
	// dryMonths lists months (1-12) in the dry season, when particulate
	// levels typically run higher.
	dryMonths []time.Month
	dryNote   string
	wetNote   string
}

var seasonalProfiles = map[string]seasonalProfile{
	"east_africa": {
		region:    "East Africa",
		dryMonths: []time.Month{time.January, time.February, time.June, time.July, time.August, time.September, time.December},
		dryNote:   "Dry season: dust and biomass burning raise PM2.5 levels, especially in urban areas.",
		wetNote:   "Rainy season: rainfall washes out particulates; air quality is typically better.",
	},
	"west_africa": {
		region:    "West Africa",
		dryMonths: []time.Month{time.November, time.December, time.January, time.February, time.March},
		dryNote:   "Harmattan season: Saharan dust sharply raises PM10 and PM2.5 across the region.",
		wetNote:   "Wet season: monsoon rains suppress dust; air quality is typically better.",
	},
	"southern_africa": {
		region:    "Southern Africa",
		dryMonths: []time.Month{time.May, time.June, time.July, time.August, time.September},
		dryNote:   "Dry winter: temperature inversions and biomass burning trap pollutants.",
		wetNote:   "Summer rains: better dispersion and washout, air quality is typically better.",
	},
	"north_africa": {
		region:    "North Africa",
		dryMonths: []time.Month{time.April, time.May, time.June, time.July, time.August, time.September},
		dryNote:   "Dry season: dust storms (khamsin) can raise particulate levels sharply.",
		wetNote:   "Cooler months: occasional rain helps, though urban emissions persist.",
	},
}

var citySeasonRegion = map[string]string{
	"kampala":       "east_africa",
	"entebbe":       "east_africa",
	"jinja":         "east_africa",
	"gulu":          "east_africa",
	"mbarara":       "east_africa",
	"nairobi":       "east_africa",
	"mombasa":       "east_africa",
	"kisumu":        "east_africa",
	"dar es salaam": "east_africa",
	"mwanza":        "east_africa",
	"kigali":        "east_africa",
	"addis ababa":   "east_africa",
	"lagos":         "west_africa",
	"abuja":         "west_africa",
	"kano":          "west_africa",
	"ibadan":        "west_africa",
	"port harcourt": "west_africa",
	"accra":         "west_africa",
	"kumasi":        "west_africa",
	"dakar":         "west_africa",
	"johannesburg":  "southern_africa",
	"cape town":     "southern_africa",
	"harare":        "southern_africa",
	"lusaka":        "southern_africa",
	"cairo":         "north_africa",
}

// seasonalContextTool estimates seasonal air quality context from the
// calendar. No network calls, so it always succeeds for known cities and
// terminates every fallback chain.
func seasonalContextTool() *Tool {
	return &Tool{
		Definition: Definition{
			Name:        ToolSeasonalContext,
			Description: "Get seasonal air quality context (dry/wet season patterns) for an African city.",
			ParametersSchema: `{
				"type": "object",
				"properties": {
					"city": {"type": "string", "description": "African city name"}
				},
				"required": ["city"]
			}`,
			Capability: classify.Capability{
				AfricaSpecialist: true,
				BaseConfidence:   0.40,
			},
		},
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			city := args.String("city")
			if city == "" {
				return nil, errors.New("city is required")
			}

			regionKey, ok := citySeasonRegion[strings.ToLower(strings.TrimSpace(city))]
			if !ok {
				// Default to East Africa for unknown African cities; the
				// answer is framed as an estimate either way.
				regionKey = "east_africa"
			}
			profile := seasonalProfiles[regionKey]

			month := time.Now().UTC().Month()
			dry := false
			for _, m := range profile.dryMonths {
				if m == month {
					dry = true
					break
				}
			}

			season := "wet"
			note := profile.wetNote
			if dry {
				season = "dry"
				note = profile.dryNote
			}

			return &Result{Name: ToolSeasonalContext, Success: true, Data: map[string]any{
				"city":     city,
				"region":   profile.region,
				"month":    month.String(),
				"season":   season,
				"note":     note,
				"estimate": true,
			}}, nil
		},
	}
}
