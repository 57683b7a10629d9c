package classify

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// coordPattern detects "lat, lon" pairs. Range-validated after matching.
var coordPattern = regexp.MustCompile(`(-?\d+\.?\d*)\s*,\s*(-?\d+\.?\d*)`)

// Keyword tables per intent. Scores are match counts; ties are broken by
// the fixed priority order below.
var intentKeywords = map[Intent][]string{
	IntentAirQualityData: {
		"air quality", "aqi", "pm2.5", "pm 2.5", "pm10", "pm 10",
		"pollution", "smog", "how clean", "air like", "particulate",
	},
	IntentForecast: {
		"forecast", "tomorrow", "will the air", "next week", "next few days",
		"later today", "this evening", "expect",
	},
	IntentComparison: {
		" vs ", " versus ", "compared to", "compare", "better air",
		"worse air", "which city", "difference between",
	},
	IntentTrendAnalysis: {
		"trend", "history", "historical", "over time", "past week",
		"last month", "last week", "improving", "getting worse",
	},
	IntentHealthAdvice: {
		"safe to", "is it safe", "healthy", "mask", "asthma", "exercise",
		"jog", "run outside", "children", "sensitive", "health",
	},
	IntentGeneralKnow: {
		"what is", "what are", "explain", "why is", "how does", "mean",
		"causes", "definition",
	},
}

// intentPriority breaks score ties: earlier wins.
var intentPriority = []Intent{
	IntentPersonalInfo,
	IntentAirQualityData,
	IntentForecast,
	IntentComparison,
	IntentTrendAnalysis,
	IntentHealthAdvice,
	IntentGeneralKnow,
	IntentGeneralInquiry,
}

var metricKeywords = map[Metric][]string{
	MetricAQI:  {"aqi", "air quality index"},
	MetricPM25: {"pm2.5", "pm 2.5", "pm25", "fine particle"},
	MetricPM10: {"pm10", "pm 10", "coarse particle"},
	MetricO3:   {"ozone", "o3"},
	MetricNO2:  {"no2", "nitrogen dioxide"},
	MetricSO2:  {"so2", "sulfur dioxide", "sulphur dioxide"},
	MetricCO:   {"carbon monoxide", " co "},
}

var (
	forecastWords   = []string{"forecast", "tomorrow", "next week", "next few days", "will the air", "later today"}
	historicalWords = []string{"yesterday", "last week", "last month", "trend", "history", "historical", "past week"}
	comparisonWords = []string{"weekend", "daily", "hourly"}
)

// Classify analyzes a user message. Pure and deterministic: identical input
// always yields an identical Result.
func Classify(message string) *Result {
	lower := strings.ToLower(message)

	res := &Result{
		TimeRange:  TimeCurrent,
		Complexity: ComplexityModerate,
	}

	// Personal-info sub-protocol short-circuits intent scoring.
	if pi := detectPersonalInfo(message); pi != nil {
		res.Intent = IntentPersonalInfo
		res.PersonalInfo = pi
		res.Complexity = ComplexitySimple
		res.Confidence = 0.9
		res.Metrics = []Metric{MetricAQI}
		return res
	}

	res.Locations = detectLocations(lower)
	res.Coordinates = detectCoordinates(lower)
	res.TimeRange = detectTimeRange(lower)
	res.Metrics = detectMetrics(lower)

	res.ComparisonIntent = containsAny(lower, " vs ", " versus ", "compared to") ||
		len(res.Locations) > 1

	intent, topScore, totalMatches := scoreIntents(lower)
	res.Intent = intent

	res.Complexity = classifyComplexity(lower, res, totalMatches)

	switch res.Intent {
	case IntentAirQualityData, IntentForecast, IntentComparison, IntentTrendAnalysis:
		res.NeedsExternal = true
	}

	res.Confidence = float64(topScore) / 3
	if res.Confidence > 1 {
		res.Confidence = 1
	}
	if res.Confidence < 0.5 {
		res.Confidence = 0.5
	}

	return res
}

// detectLocations scans the closed city dictionaries. Multi-word names are
// listed first in each dictionary so "dar es salaam" wins over any overlap.
func detectLocations(lower string) []Location {
	var out []Location
	seen := make(map[string]bool)

	match := func(cities []string, african bool) {
		for _, city := range cities {
			if seen[city] || !containsWord(lower, city) {
				continue
			}
			seen[city] = true
			out = append(out, Location{Name: titleCase(city), IsAfrican: african})
		}
	}
	match(africanCities, true)
	match(globalCities, false)

	// Stable order: by first occurrence in the message.
	sort.SliceStable(out, func(i, j int) bool {
		return strings.Index(lower, strings.ToLower(out[i].Name)) <
			strings.Index(lower, strings.ToLower(out[j].Name))
	})
	return out
}

// containsWord matches needle at word boundaries only, so "cairo" never
// fires inside "cairopractor".
func containsWord(haystack, needle string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		beforeOK := start == 0 || !isWordChar(haystack[start-1])
		afterOK := end == len(haystack) || !isWordChar(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "es" || w == "de" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// detectCoordinates returns the first valid lat/lon pair, if any.
func detectCoordinates(lower string) *Coordinates {
	for _, m := range coordPattern.FindAllStringSubmatch(lower, -1) {
		lat, err1 := strconv.ParseFloat(m[1], 64)
		lon, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			continue
		}
		return &Coordinates{Latitude: lat, Longitude: lon}
	}
	return nil
}

func detectTimeRange(lower string) TimeRange {
	switch {
	case containsAny(lower, forecastWords...):
		return TimeForecast
	case containsAny(lower, historicalWords...):
		return TimeHistorical
	case containsAny(lower, comparisonWords...):
		return TimeComparison
	}
	return TimeCurrent
}

func detectMetrics(lower string) []Metric {
	var out []Metric
	for _, metric := range []Metric{MetricAQI, MetricPM25, MetricPM10, MetricO3, MetricNO2, MetricSO2, MetricCO} {
		if containsAny(lower, metricKeywords[metric]...) {
			out = append(out, metric)
		}
	}
	if len(out) == 0 {
		out = []Metric{MetricAQI}
	}
	return out
}

// scoreIntents counts keyword matches per intent and picks the winner,
// breaking ties by the fixed priority order.
func scoreIntents(lower string) (Intent, int, int) {
	scores := make(map[Intent]int)
	total := 0
	for intent, keywords := range intentKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				scores[intent]++
				total++
			}
		}
	}

	best := IntentGeneralInquiry
	bestScore := 0
	for _, intent := range intentPriority {
		if s := scores[intent]; s > bestScore {
			best = intent
			bestScore = s
		}
	}
	return best, bestScore, total
}

func classifyComplexity(lower string, res *Result, intentMatches int) Complexity {
	if len(res.Locations) > 2 || (res.ComparisonIntent && res.TimeRange == TimeHistorical) {
		return ComplexityComplex
	}
	if len(strings.Fields(lower)) < 10 && intentMatches <= 1 {
		return ComplexitySimple
	}
	return ComplexityModerate
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
