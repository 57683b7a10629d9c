package tools

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/airsift/airsift/pkg/classify"
)

// openMeteoAQForecast is the subset of the Open-Meteo air quality forecast
// response the adapter reads.
type openMeteoAQForecast struct {
	Hourly struct {
		Time []string  `json:"time"`
		PM25 []float64 `json:"pm2_5"`
		PM10 []float64 `json:"pm10"`
	} `json:"hourly"`
}

// airQualityForecastTool returns a daily PM2.5/PM10 outlook built from
// Open-Meteo hourly forecasts.
func (p *providers) airQualityForecastTool() *Tool {
	return &Tool{
		Definition: Definition{
			Name:        ToolAirQualityForecast,
			Description: "Get an air quality forecast (PM2.5/PM10 daily averages) for a city.",
			ParametersSchema: `{
				"type": "object",
				"properties": {
					"city": {"type": "string"},
					"days": {"type": "integer", "minimum": 1, "maximum": 7}
				},
				"required": ["city"]
			}`,
			Capability: classify.Capability{
				Realtime:       false,
				Historical:     false,
				BaseConfidence: 0.75,
			},
		},
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			city := args.String("city")
			if city == "" {
				return nil, errors.New("city is required")
			}
			days := clampDays(args.Int("days", 3))

			lat, lon, err := CityCoords(city)
			if err != nil {
				return &Result{Name: ToolAirQualityForecast, Success: false, Error: err.Error()}, nil
			}

			q := url.Values{}
			q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
			q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
			q.Set("hourly", "pm2_5,pm10")
			q.Set("forecast_days", strconv.Itoa(days))

			var resp openMeteoAQForecast
			if err := p.getJSON(ctx, buildURL(p.opts.OpenMeteoEndpoint, "/v1/air-quality", q), &resp); err != nil {
				return nil, err
			}

			daily := dailyAverages(resp.Hourly.Time, resp.Hourly.PM25, resp.Hourly.PM10)
			return &Result{Name: ToolAirQualityForecast, Success: true, Data: map[string]any{
				"city":   city,
				"days":   days,
				"daily":  daily,
				"source": "Open-Meteo (modeled)",
			}}, nil
		},
	}
}

// openMeteoWeather is the subset of the Open-Meteo weather forecast
// response the adapter reads.
type openMeteoWeather struct {
	Daily struct {
		Time          []string  `json:"time"`
		TempMax       []float64 `json:"temperature_2m_max"`
		TempMin       []float64 `json:"temperature_2m_min"`
		Precipitation []float64 `json:"precipitation_sum"`
		WindMax       []float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

// weatherForecastTool returns a daily weather outlook. Weather context
// matters for air quality: rain clears particulates, stagnant air traps
// them.
func (p *providers) weatherForecastTool() *Tool {
	return &Tool{
		Definition: Definition{
			Name:        ToolWeatherForecast,
			Description: "Get a daily weather forecast (temperature, precipitation, wind) for a city.",
			ParametersSchema: `{
				"type": "object",
				"properties": {
					"city": {"type": "string"},
					"days": {"type": "integer", "minimum": 1, "maximum": 7}
				},
				"required": ["city"]
			}`,
			Capability: classify.Capability{
				BaseConfidence: 0.70,
			},
		},
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			city := args.String("city")
			if city == "" {
				return nil, errors.New("city is required")
			}
			days := clampDays(args.Int("days", 3))

			lat, lon, err := CityCoords(city)
			if err != nil {
				return &Result{Name: ToolWeatherForecast, Success: false, Error: err.Error()}, nil
			}

			q := url.Values{}
			q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
			q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
			q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,wind_speed_10m_max")
			q.Set("forecast_days", strconv.Itoa(days))
			q.Set("timezone", "auto")

			var resp openMeteoWeather
			if err := p.getJSON(ctx, buildURL(p.opts.ForecastEndpoint, "/v1/forecast", q), &resp); err != nil {
				return nil, err
			}

			forecast := make([]map[string]any, 0, len(resp.Daily.Time))
			for i, day := range resp.Daily.Time {
				entry := map[string]any{"date": day}
				if i < len(resp.Daily.TempMax) {
					entry["temp_max"] = resp.Daily.TempMax[i]
				}
				if i < len(resp.Daily.TempMin) {
					entry["temp_min"] = resp.Daily.TempMin[i]
				}
				if i < len(resp.Daily.Precipitation) {
					entry["precipitation_mm"] = resp.Daily.Precipitation[i]
				}
				if i < len(resp.Daily.WindMax) {
					entry["wind_max"] = resp.Daily.WindMax[i]
				}
				forecast = append(forecast, entry)
			}

			return &Result{Name: ToolWeatherForecast, Success: true, Data: map[string]any{
				"city":     city,
				"days":     days,
				"forecast": forecast,
				"source":   "Open-Meteo",
			}}, nil
		},
	}
}

func clampDays(days int) int {
	if days < 1 {
		return 3
	}
	if days > 7 {
		return 7
	}
	return days
}

// dailyAverages collapses hourly samples (ISO timestamps) into per-day
// means. Timestamps look like "2026-08-24T13:00"; the date is the first
// 10 characters.
func dailyAverages(times []string, pm25, pm10 []float64) []map[string]any {
	type acc struct {
		pm25Sum, pm10Sum float64
		n                int
	}
	order := make([]string, 0, 8)
	byDay := make(map[string]*acc)

	for i, ts := range times {
		if len(ts) < 10 {
			continue
		}
		day := ts[:10]
		a, ok := byDay[day]
		if !ok {
			a = &acc{}
			byDay[day] = a
			order = append(order, day)
		}
		if i < len(pm25) {
			a.pm25Sum += pm25[i]
		}
		if i < len(pm10) {
			a.pm10Sum += pm10[i]
		}
		a.n++
	}

	out := make([]map[string]any, 0, len(order))
	for _, day := range order {
		a := byDay[day]
		if a.n == 0 {
			continue
		}
		out = append(out, map[string]any{
			"date":     day,
			"pm25_avg": round1(a.pm25Sum / float64(a.n)),
			"pm10_avg": round1(a.pm10Sum / float64(a.n)),
		})
	}
	return out
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
