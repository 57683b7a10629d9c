package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/airsift/airsift/pkg/version"
)

// Default provider endpoints. Tests override these via ProviderOptions.
const (
	defaultWAQIEndpoint      = "https://api.waqi.info"
	defaultAirQoEndpoint     = "https://api.airqo.net/api/v2"
	defaultOpenMeteoAQ       = "https://air-quality-api.open-meteo.com"
	defaultOpenMeteoForecast = "https://api.open-meteo.com"
	defaultSearchEndpoint    = "https://api.duckduckgo.com"
)

// ProviderOptions configures the built-in data-provider adapters.
type ProviderOptions struct {
	// HTTPClient is shared by all adapters. Nil gets a 15 s client.
	HTTPClient *http.Client

	WAQIToken  string
	AirQoToken string

	// Endpoint overrides, primarily for tests.
	WAQIEndpoint      string
	AirQoEndpoint     string
	OpenMeteoEndpoint string
	ForecastEndpoint  string
	SearchEndpoint    string
}

func (o *ProviderOptions) applyDefaults() {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if o.WAQIEndpoint == "" {
		o.WAQIEndpoint = defaultWAQIEndpoint
	}
	if o.AirQoEndpoint == "" {
		o.AirQoEndpoint = defaultAirQoEndpoint
	}
	if o.OpenMeteoEndpoint == "" {
		o.OpenMeteoEndpoint = defaultOpenMeteoAQ
	}
	if o.ForecastEndpoint == "" {
		o.ForecastEndpoint = defaultOpenMeteoForecast
	}
	if o.SearchEndpoint == "" {
		o.SearchEndpoint = defaultSearchEndpoint
	}
}

// providers bundles shared adapter state.
type providers struct {
	opts ProviderOptions
}

// getJSON performs a GET and decodes the JSON body into out.
func (p *providers) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", version.Full())

	resp, err := p.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// RegisterBuiltins registers every built-in tool adapter. enabled filters
// by name; empty means all.
func RegisterBuiltins(r *Registry, opts ProviderOptions, enabled []string) {
	opts.applyDefaults()
	p := &providers{opts: opts}

	allowed := func(name string) bool {
		if len(enabled) == 0 {
			return true
		}
		for _, n := range enabled {
			if n == name {
				return true
			}
		}
		return false
	}

	for _, t := range p.builtinTools() {
		if allowed(t.Name) {
			r.Register(t)
		}
	}
}

func (p *providers) builtinTools() []*Tool {
	return []*Tool{
		p.cityAirQualityTool(),
		p.africanCityAirQualityTool(),
		p.openMeteoAirQualityTool(),
		p.airQualityForecastTool(),
		p.weatherForecastTool(),
		p.searchWebTool(),
		p.scrapeWebsiteTool(),
		seasonalContextTool(),
		generateChartTool(),
	}
}

// buildURL joins an endpoint, path, and query values.
func buildURL(endpoint, path string, q url.Values) string {
	u := endpoint + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}
