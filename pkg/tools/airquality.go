package tools

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/airsift/airsift/pkg/classify"
)

// waqiFeed is the subset of the WAQI /feed response the adapter reads.
type waqiFeed struct {
	Status string `json:"status"`
	Data   struct {
		AQI  int `json:"aqi"`
		City struct {
			Name string `json:"name"`
		} `json:"city"`
		IAQI map[string]struct {
			V float64 `json:"v"`
		} `json:"iaqi"`
		Time struct {
			S string `json:"s"`
		} `json:"time"`
	} `json:"data"`
}

// cityAirQualityTool reads global realtime data from WAQI.
func (p *providers) cityAirQualityTool() *Tool {
	return &Tool{
		Definition: Definition{
			Name:        ToolCityAirQuality,
			Description: "Get current air quality (AQI, PM2.5, PM10) for any city worldwide.",
			ParametersSchema: `{
				"type": "object",
				"properties": {
					"city": {"type": "string", "description": "City name"}
				},
				"required": ["city"]
			}`,
			Capability: classify.Capability{
				Realtime:       true,
				BaseConfidence: 0.85,
			},
		},
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			city := args.String("city")
			if city == "" {
				return nil, errors.New("city is required")
			}

			q := url.Values{}
			q.Set("token", p.opts.WAQIToken)
			var feed waqiFeed
			if err := p.getJSON(ctx, buildURL(p.opts.WAQIEndpoint, "/feed/"+url.PathEscape(city)+"/", q), &feed); err != nil {
				return nil, err
			}
			if feed.Status != "ok" {
				return &Result{Name: ToolCityAirQuality, Success: false,
					Error: fmt.Sprintf("provider returned status %q for %s", feed.Status, city)}, nil
			}

			data := map[string]any{
				"city":   city,
				"aqi":    feed.Data.AQI,
				"source": "WAQI",
				"time":   feed.Data.Time.S,
			}
			if station := feed.Data.City.Name; station != "" {
				data["station"] = station
			}
			if pm25, ok := feed.Data.IAQI["pm25"]; ok {
				data["pm25"] = pm25.V
			}
			if pm10, ok := feed.Data.IAQI["pm10"]; ok {
				data["pm10"] = pm10.V
			}
			if o3, ok := feed.Data.IAQI["o3"]; ok {
				data["o3"] = o3.V
			}
			return &Result{Name: ToolCityAirQuality, Success: true, Data: data}, nil
		},
	}
}

// airqoMeasurements is the subset of the AirQo recent-measurements response
// the adapter reads.
type airqoMeasurements struct {
	Success      bool `json:"success"`
	Measurements []struct {
		PM25 struct {
			Value float64 `json:"value"`
		} `json:"pm2_5"`
		PM10 struct {
			Value float64 `json:"value"`
		} `json:"pm10"`
		AQICategory string `json:"aqi_category"`
		SiteDetails struct {
			City string `json:"city"`
			Name string `json:"name"`
		} `json:"siteDetails"`
		Time string `json:"time"`
	} `json:"measurements"`
}

// africanCityAirQualityTool reads ground-sensor data from the AirQo
// network. Coverage is limited to African cities; elsewhere it reports a
// soft failure so the fallback chain takes over.
func (p *providers) africanCityAirQualityTool() *Tool {
	return &Tool{
		Definition: Definition{
			Name:        ToolAfricanCityAirQuality,
			Description: "Get current air quality from AirQo's ground sensor network (African cities).",
			ParametersSchema: `{
				"type": "object",
				"properties": {
					"city": {"type": "string", "description": "African city name"}
				},
				"required": ["city"]
			}`,
			Capability: classify.Capability{
				AfricaSpecialist: true,
				Realtime:         true,
				BaseConfidence:   0.85,
			},
		},
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			city := args.String("city")
			if city == "" {
				return nil, errors.New("city is required")
			}

			q := url.Values{}
			q.Set("token", p.opts.AirQoToken)
			var resp airqoMeasurements
			if err := p.getJSON(ctx, buildURL(p.opts.AirQoEndpoint,
				"/devices/measurements/cities/"+url.PathEscape(city)+"/recent", q), &resp); err != nil {
				return nil, err
			}
			if !resp.Success || len(resp.Measurements) == 0 {
				return &Result{Name: ToolAfricanCityAirQuality, Success: false,
					Error: fmt.Sprintf("no AirQo measurements for %s", city)}, nil
			}

			m := resp.Measurements[0]
			data := map[string]any{
				"city":         city,
				"pm25":         m.PM25.Value,
				"pm10":         m.PM10.Value,
				"aqi_category": m.AQICategory,
				"source":       "AirQo",
				"time":         m.Time,
			}
			if m.SiteDetails.Name != "" {
				data["station"] = m.SiteDetails.Name
			}
			return &Result{Name: ToolAfricanCityAirQuality, Success: true, Data: data}, nil
		},
	}
}

// openMeteoCurrent is the subset of the Open-Meteo air quality response.
type openMeteoCurrent struct {
	Current struct {
		USAQI           float64 `json:"us_aqi"`
		PM25            float64 `json:"pm2_5"`
		PM10            float64 `json:"pm10"`
		Ozone           float64 `json:"ozone"`
		NitrogenDioxide float64 `json:"nitrogen_dioxide"`
		Time            string  `json:"time"`
	} `json:"current"`
}

// openMeteoAirQualityTool reads modeled realtime data. Works anywhere with
// coordinates — the standard fallback when ground sensors are unavailable.
func (p *providers) openMeteoAirQualityTool() *Tool {
	return &Tool{
		Definition: Definition{
			Name:        ToolOpenMeteoAirQuality,
			Description: "Get modeled current air quality for a coordinate pair (global coverage).",
			ParametersSchema: `{
				"type": "object",
				"properties": {
					"latitude": {"type": "number"},
					"longitude": {"type": "number"}
				},
				"required": ["latitude", "longitude"]
			}`,
			Capability: classify.Capability{
				Realtime:       true,
				BaseConfidence: 0.70,
			},
		},
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			lat, okLat := args.Float("latitude")
			lon, okLon := args.Float("longitude")
			if !okLat || !okLon {
				return nil, errors.New("latitude and longitude are required")
			}

			q := url.Values{}
			q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
			q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
			q.Set("current", "us_aqi,pm2_5,pm10,ozone,nitrogen_dioxide")

			var resp openMeteoCurrent
			if err := p.getJSON(ctx, buildURL(p.opts.OpenMeteoEndpoint, "/v1/air-quality", q), &resp); err != nil {
				return nil, err
			}

			return &Result{Name: ToolOpenMeteoAirQuality, Success: true, Data: map[string]any{
				"latitude":  lat,
				"longitude": lon,
				"aqi":       resp.Current.USAQI,
				"pm25":      resp.Current.PM25,
				"pm10":      resp.Current.PM10,
				"o3":        resp.Current.Ozone,
				"no2":       resp.Current.NitrogenDioxide,
				"source":    "Open-Meteo (modeled)",
				"time":      resp.Current.Time,
			}}, nil
		},
	}
}
