package cache

import "time"

// QueryType categorizes a query for freshness purposes. The classifier maps
// its richer intent taxonomy down to these four buckets.
type QueryType string

const (
	QueryForecast       QueryType = "forecast"       // forecast requests
	QueryCurrent        QueryType = "current"        // explicit "now/today/latest"
	QueryAirQuality     QueryType = "air_quality"    // general air-quality data
	QueryConversational QueryType = "conversational" // everything else
)

// IdenticalQueryWindow is the window inside which an identical query is
// always served from cache, regardless of freshness policy.
const IdenticalQueryWindow = 5 * time.Minute

// baseTTL per query type.
var baseTTL = map[QueryType]time.Duration{
	QueryForecast:       60 * time.Minute,
	QueryCurrent:        30 * time.Minute,
	QueryAirQuality:     60 * time.Minute,
	QueryConversational: 240 * time.Minute,
}

// isPeakPollutionHour reports whether the local hour falls in a window of
// rapidly changing pollution: morning rush (6-8), evening rush and nighttime
// burning (17-23), and the spillover past midnight (0-1).
func isPeakPollutionHour(hour int) bool {
	switch {
	case hour >= 6 && hour <= 8:
		return true
	case hour >= 17 && hour <= 23:
		return true
	case hour >= 0 && hour <= 1:
		return true
	}
	return false
}

// EffectiveTTL computes the freshness window for a query type at the given
// local time. During peak pollution hours the TTL is halved for data-bearing
// query types; conversational entries keep their long TTL.
func EffectiveTTL(qt QueryType, now time.Time) time.Duration {
	ttl, ok := baseTTL[qt]
	if !ok {
		ttl = baseTTL[QueryConversational]
	}
	if isPeakPollutionHour(now.Hour()) && qt != QueryConversational {
		ttl /= 2
	}
	return ttl
}

// Fresh reports whether an entry of the given age may be served for the
// query type. Entries younger than IdenticalQueryWindow are always fresh.
func Fresh(age time.Duration, qt QueryType, now time.Time) bool {
	if age <= IdenticalQueryWindow {
		return true
	}
	return age <= EffectiveTTL(qt, now)
}
