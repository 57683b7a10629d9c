package tools

import (
	"fmt"
	"strings"
)

// cityCoords maps known cities to coordinates for tools that take lat/lon
// (Open-Meteo) when the caller only has a city name. Covers the classifier
// dictionaries; unknown cities fall through to an error so fallbacks can
// take over.
var cityCoords = map[string][2]float64{
	"kampala":       {0.3476, 32.5825},
	"nairobi":       {-1.2921, 36.8219},
	"lagos":         {6.5244, 3.3792},
	"accra":         {5.6037, -0.1870},
	"kigali":        {-1.9441, 30.0619},
	"addis ababa":   {9.0250, 38.7469},
	"dar es salaam": {-6.7924, 39.2083},
	"cairo":         {30.0444, 31.2357},
	"johannesburg":  {-26.2041, 28.0473},
	"cape town":     {-33.9249, 18.4241},
	"abuja":         {9.0765, 7.3986},
	"kinshasa":      {-4.4419, 15.2663},
	"dakar":         {14.7167, -17.4677},
	"lusaka":        {-15.3875, 28.3228},
	"harare":        {-17.8252, 31.0335},
	"mwanza":        {-2.5164, 32.9175},
	"mombasa":       {-4.0435, 39.6682},
	"kisumu":        {-0.0917, 34.7680},
	"entebbe":       {0.0512, 32.4637},
	"gulu":          {2.7746, 32.2980},
	"jinja":         {0.4244, 33.2041},
	"mbarara":       {-0.6072, 30.6545},
	"kano":          {12.0022, 8.5920},
	"ibadan":        {7.3775, 3.9470},
	"kumasi":        {6.6666, -1.6163},
	"london":        {51.5074, -0.1278},
	"paris":         {48.8566, 2.3522},
	"new york":      {40.7128, -74.0060},
	"beijing":       {39.9042, 116.4074},
	"delhi":         {28.7041, 77.1025},
	"new delhi":     {28.6139, 77.2090},
	"mumbai":        {19.0760, 72.8777},
	"tokyo":         {35.6762, 139.6503},
	"los angeles":   {34.0522, -118.2437},
	"bangkok":       {13.7563, 100.5018},
	"jakarta":       {-6.2088, 106.8456},
	"singapore":     {1.3521, 103.8198},
	"sydney":        {-33.8688, 151.2093},
	"toronto":       {43.6532, -79.3832},
	"mexico city":   {19.4326, -99.1332},
	"sao paulo":     {-23.5505, -46.6333},
	"seoul":         {37.5665, 126.9780},
	"shanghai":      {31.2304, 121.4737},
	"karachi":       {24.8607, 67.0011},
	"dhaka":         {23.8103, 90.4125},
	"istanbul":      {41.0082, 28.9784},
	"lahore":        {31.5204, 74.3587},
}

// CityCoords returns the coordinates for a known city.
func CityCoords(city string) (lat, lon float64, err error) {
	c, ok := cityCoords[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		return 0, 0, fmt.Errorf("unknown city: %s", city)
	}
	return c[0], c[1], nil
}
