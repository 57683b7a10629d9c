package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, opts ProviderOptions) (*Registry, *Executor) {
	t.Helper()
	r := NewRegistry()
	RegisterBuiltins(r, opts, nil)
	return r, NewExecutor(r, 5*time.Second)
}

func TestRegisterBuiltins(t *testing.T) {
	t.Run("all nine tools by default", func(t *testing.T) {
		r, _ := newTestRegistry(t, ProviderOptions{})
		assert.Len(t, r.Names(), 9)
		for _, name := range []string{
			ToolCityAirQuality, ToolAfricanCityAirQuality, ToolOpenMeteoAirQuality,
			ToolAirQualityForecast, ToolWeatherForecast, ToolSearchWeb,
			ToolScrapeWebsite, ToolSeasonalContext, ToolGenerateChart,
		} {
			assert.True(t, r.Has(name), name)
		}
	})

	t.Run("enabled list filters", func(t *testing.T) {
		r := NewRegistry()
		RegisterBuiltins(r, ProviderOptions{}, []string{ToolSeasonalContext})
		assert.Equal(t, []string{ToolSeasonalContext}, r.Names())
	})
}

func TestCityAirQualityTool(t *testing.T) {
	t.Run("parses WAQI feed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/feed/Kampala/", r.URL.Path)
			assert.Equal(t, "test-token", r.URL.Query().Get("token"))
			fmt.Fprint(w, `{"status":"ok","data":{"aqi":152,"city":{"name":"Kampala, Uganda"},
				"iaqi":{"pm25":{"v":152},"pm10":{"v":80}},"time":{"s":"2026-08-24 10:00:00"}}}`)
		}))
		defer srv.Close()

		_, e := newTestRegistry(t, ProviderOptions{WAQIEndpoint: srv.URL, WAQIToken: "test-token"})
		result, err := e.Execute(context.Background(), ToolCityAirQuality, Args{"city": "Kampala"})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 152, result.Data["aqi"])
		assert.Equal(t, 152.0, result.Data["pm25"])
		assert.Equal(t, "WAQI", result.Data["source"])
	})

	t.Run("non-ok status is a soft failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"error"}`)
		}))
		defer srv.Close()

		_, e := newTestRegistry(t, ProviderOptions{WAQIEndpoint: srv.URL})
		result, err := e.Execute(context.Background(), ToolCityAirQuality, Args{"city": "Atlantis"})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Error)
	})

	t.Run("missing city is an error", func(t *testing.T) {
		_, e := newTestRegistry(t, ProviderOptions{})
		_, err := e.Execute(context.Background(), ToolCityAirQuality, Args{})
		assert.Error(t, err)
	})
}

func TestAfricanCityAirQualityTool(t *testing.T) {
	t.Run("parses AirQo measurements", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/devices/measurements/cities/Kampala/recent", r.URL.Path)
			fmt.Fprint(w, `{"success":true,"measurements":[{"pm2_5":{"value":61.3},"pm10":{"value":88.1},
				"aqi_category":"Unhealthy","siteDetails":{"city":"Kampala","name":"Makerere"},
				"time":"2026-08-24T10:00:00Z"}]}`)
		}))
		defer srv.Close()

		_, e := newTestRegistry(t, ProviderOptions{AirQoEndpoint: srv.URL})
		result, err := e.Execute(context.Background(), ToolAfricanCityAirQuality, Args{"city": "Kampala"})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 61.3, result.Data["pm25"])
		assert.Equal(t, "Unhealthy", result.Data["aqi_category"])
		assert.Equal(t, "Makerere", result.Data["station"])
	})

	t.Run("no measurements is a soft failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"success":true,"measurements":[]}`)
		}))
		defer srv.Close()

		_, e := newTestRegistry(t, ProviderOptions{AirQoEndpoint: srv.URL})
		result, err := e.Execute(context.Background(), ToolAfricanCityAirQuality, Args{"city": "Mwanza"})
		require.NoError(t, err)
		assert.False(t, result.Success)
	})
}

func TestOpenMeteoAirQualityTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/air-quality", r.URL.Path)
		assert.Equal(t, "0.3476", r.URL.Query().Get("latitude"))
		fmt.Fprint(w, `{"current":{"us_aqi":95,"pm2_5":33.2,"pm10":51.0,"ozone":40.1,
			"nitrogen_dioxide":12.5,"time":"2026-08-24T10:00"}}`)
	}))
	defer srv.Close()

	_, e := newTestRegistry(t, ProviderOptions{OpenMeteoEndpoint: srv.URL})
	result, err := e.Execute(context.Background(), ToolOpenMeteoAirQuality,
		Args{"latitude": 0.3476, "longitude": 32.5825})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 95.0, result.Data["aqi"])
	assert.Equal(t, 33.2, result.Data["pm25"])

	_, err = e.Execute(context.Background(), ToolOpenMeteoAirQuality, Args{"latitude": 0.3476})
	assert.Error(t, err, "missing longitude")
}

func TestAirQualityForecastTool(t *testing.T) {
	t.Run("aggregates hourly samples into daily averages", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"hourly":{
				"time":["2026-08-24T00:00","2026-08-24T01:00","2026-08-25T00:00"],
				"pm2_5":[10,20,40],
				"pm10":[30,50,60]}}`)
		}))
		defer srv.Close()

		_, e := newTestRegistry(t, ProviderOptions{OpenMeteoEndpoint: srv.URL})
		result, err := e.Execute(context.Background(), ToolAirQualityForecast,
			Args{"city": "Kampala", "days": 2})
		require.NoError(t, err)
		assert.True(t, result.Success)

		daily, ok := result.Data["daily"].([]map[string]any)
		require.True(t, ok)
		require.Len(t, daily, 2)
		assert.Equal(t, "2026-08-24", daily[0]["date"])
		assert.Equal(t, 15.0, daily[0]["pm25_avg"])
		assert.Equal(t, 40.0, daily[0]["pm10_avg"])
		assert.Equal(t, 40.0, daily[1]["pm25_avg"])
	})

	t.Run("unknown city is a soft failure", func(t *testing.T) {
		_, e := newTestRegistry(t, ProviderOptions{})
		result, err := e.Execute(context.Background(), ToolAirQualityForecast, Args{"city": "atlantis"})
		require.NoError(t, err)
		assert.False(t, result.Success)
	})
}

func TestWeatherForecastTool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		fmt.Fprint(w, `{"daily":{"time":["2026-08-24"],"temperature_2m_max":[27.5],
			"temperature_2m_min":[17.1],"precipitation_sum":[4.2],"wind_speed_10m_max":[13.0]}}`)
	}))
	defer srv.Close()

	_, e := newTestRegistry(t, ProviderOptions{ForecastEndpoint: srv.URL})
	result, err := e.Execute(context.Background(), ToolWeatherForecast, Args{"city": "Nairobi"})
	require.NoError(t, err)
	assert.True(t, result.Success)

	forecast, ok := result.Data["forecast"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, forecast, 1)
	assert.Equal(t, 27.5, forecast[0]["temp_max"])
	assert.Equal(t, 4.2, forecast[0]["precipitation_mm"])
}

func TestSearchWebTool(t *testing.T) {
	t.Run("abstract plus related topics", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "air quality mwanza", r.URL.Query().Get("q"))
			fmt.Fprint(w, `{"AbstractText":"Mwanza is a city in Tanzania.","AbstractURL":"https://example.org/mwanza",
				"AbstractSource":"Example","RelatedTopics":[{"Text":"Lake Victoria","FirstURL":"https://example.org/lv"}]}`)
		}))
		defer srv.Close()

		_, e := newTestRegistry(t, ProviderOptions{SearchEndpoint: srv.URL})
		result, err := e.Execute(context.Background(), ToolSearchWeb, Args{"query": "air quality mwanza"})
		require.NoError(t, err)
		assert.True(t, result.Success)

		results, ok := result.Data["results"].([]map[string]any)
		require.True(t, ok)
		require.Len(t, results, 2)
		assert.Equal(t, "Mwanza is a city in Tanzania.", results[0]["text"])
	})

	t.Run("empty response is a soft failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"AbstractText":"","RelatedTopics":[]}`)
		}))
		defer srv.Close()

		_, e := newTestRegistry(t, ProviderOptions{SearchEndpoint: srv.URL})
		result, err := e.Execute(context.Background(), ToolSearchWeb, Args{"query": "nothing"})
		require.NoError(t, err)
		assert.False(t, result.Success)
	})
}

func TestScrapeWebsiteTool(t *testing.T) {
	t.Run("strips markup and scripts", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><head><script>alert(1)</script><style>p{}</style></head>
				<body><h1>Air Quality</h1><p>PM2.5 is 35 today.</p></body></html>`)
		}))
		defer srv.Close()

		_, e := newTestRegistry(t, ProviderOptions{})
		result, err := e.Execute(context.Background(), ToolScrapeWebsite, Args{"url": srv.URL})
		require.NoError(t, err)
		assert.True(t, result.Success)

		content := result.Data["content"].(string)
		assert.Contains(t, content, "Air Quality")
		assert.Contains(t, content, "PM2.5 is 35 today.")
		assert.NotContains(t, content, "alert")
		assert.NotContains(t, content, "<p>")
	})

	t.Run("rejects non-http urls", func(t *testing.T) {
		_, e := newTestRegistry(t, ProviderOptions{})
		_, err := e.Execute(context.Background(), ToolScrapeWebsite, Args{"url": "file:///etc/passwd"})
		assert.Error(t, err)
	})

	t.Run("non-200 is a soft failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, e := newTestRegistry(t, ProviderOptions{})
		result, err := e.Execute(context.Background(), ToolScrapeWebsite, Args{"url": srv.URL})
		require.NoError(t, err)
		assert.False(t, result.Success)
	})
}

func TestSeasonalContextTool(t *testing.T) {
	_, e := newTestRegistry(t, ProviderOptions{})

	result, err := e.Execute(context.Background(), ToolSeasonalContext, Args{"city": "Lagos"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "West Africa", result.Data["region"])
	assert.Contains(t, []any{"dry", "wet"}, result.Data["season"])
	assert.Equal(t, true, result.Data["estimate"])

	// Unknown cities still get an estimate; the tool never soft-fails.
	result, err = e.Execute(context.Background(), ToolSeasonalContext, Args{"city": "unknownville"})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestGenerateChartTool(t *testing.T) {
	_, e := newTestRegistry(t, ProviderOptions{})

	t.Run("builds descriptor", func(t *testing.T) {
		result, err := e.Execute(context.Background(), ToolGenerateChart, Args{
			"title":      "PM2.5 Trend",
			"chart_type": "bar",
			"labels":     []any{"Mon", "Tue"},
			"series":     []any{map[string]any{"name": "Kampala", "values": []any{35.0, 41.0}}},
		})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "bar", result.Data["chart_type"])
		assert.Equal(t, "PM2.5 Trend", result.Data["title"])
	})

	t.Run("invalid chart type falls back to line", func(t *testing.T) {
		result, err := e.Execute(context.Background(), ToolGenerateChart, Args{
			"title":      "Trend",
			"chart_type": "pie3d",
			"series":     []any{1.0},
		})
		require.NoError(t, err)
		assert.Equal(t, "line", result.Data["chart_type"])
	})

	t.Run("missing series is an error", func(t *testing.T) {
		_, err := e.Execute(context.Background(), ToolGenerateChart, Args{"title": "Trend"})
		assert.Error(t, err)
	})
}

func TestExtractText(t *testing.T) {
	text := extractText("<div>a  b\n<script>x</script>c</div>")
	assert.Equal(t, "a b c", text)
}
