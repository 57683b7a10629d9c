// Package classify implements the deterministic query analyzer. No model
// calls, no I/O: Classify(msg) is a pure function of the message text, so
// plans built from its output are reproducible.
package classify

// Intent is the primary purpose of a user message.
type Intent string

const (
	IntentAirQualityData Intent = "air_quality_data"
	IntentForecast       Intent = "forecast"
	IntentHealthAdvice   Intent = "health_advice"
	IntentComparison     Intent = "comparison"
	IntentTrendAnalysis  Intent = "trend_analysis"
	IntentGeneralKnow    Intent = "general_knowledge"
	IntentPersonalInfo   Intent = "personal_info"
	IntentGeneralInquiry Intent = "general_inquiry"
)

// Complexity buckets drive model/effort selection downstream.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// TimeRange is the temporal scope of the query.
type TimeRange string

const (
	TimeCurrent    TimeRange = "current"
	TimeForecast   TimeRange = "forecast"
	TimeHistorical TimeRange = "historical"
	TimeComparison TimeRange = "comparison"
)

// Metric is a pollutant or index the user asked about.
type Metric string

const (
	MetricAQI  Metric = "aqi"
	MetricPM25 Metric = "pm25"
	MetricPM10 Metric = "pm10"
	MetricO3   Metric = "o3"
	MetricNO2  Metric = "no2"
	MetricSO2  Metric = "so2"
	MetricCO   Metric = "co"
)

// Location is a detected place with its region flag.
type Location struct {
	Name      string
	IsAfrican bool
}

// Coordinates is a detected lat/lon pair.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// PersonalInfo captures the personal-info sub-protocol result.
type PersonalInfo struct {
	// Sharing is true when the user is volunteering information
	// ("my name is X"), false for recall questions ("what's my name").
	Sharing  bool
	Name     string
	Location string
}

// Result is the full classification of one user message.
type Result struct {
	Intent           Intent
	Complexity       Complexity
	Locations        []Location
	Coordinates      *Coordinates
	Metrics          []Metric
	TimeRange        TimeRange
	ComparisonIntent bool
	NeedsExternal    bool
	Confidence       float64
	PersonalInfo     *PersonalInfo
}

// HasAfricanLocation reports whether any detected location is African.
func (r *Result) HasAfricanLocation() bool {
	for _, loc := range r.Locations {
		if loc.IsAfrican {
			return true
		}
	}
	return false
}
