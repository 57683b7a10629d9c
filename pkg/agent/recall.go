package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/airsift/airsift/pkg/classify"
	"github.com/airsift/airsift/pkg/llm"
	"github.com/airsift/airsift/pkg/session"
	"github.com/airsift/airsift/pkg/tools"
)

// answerRecall builds a deterministic personal-info answer without a
// model call. Stored fields are merged with a scan of the session's past
// turns so recall survives history truncation.
func (a *Agent) answerRecall(sess *session.Session) *Response {
	name := sess.PersonalInfo["name"]
	location := sess.PersonalInfo["location"]
	for _, turn := range sess.Turns {
		n, l := classify.ExtractPersonalFields(turn.User)
		if name == "" && n != "" {
			name = n
		}
		if location == "" && l != "" {
			location = l
		}
	}

	var text string
	switch {
	case name != "" && location != "":
		text = fmt.Sprintf("Your name is %s and you told me you live in %s.", name, location)
	case name != "":
		text = fmt.Sprintf("Your name is %s.", name)
	case location != "":
		text = fmt.Sprintf("You told me you live in %s.", location)
	default:
		text = "You haven't shared any personal details with me in this conversation."
	}
	return &Response{Text: text, FinishReason: llm.FinishStop}
}

// acknowledgeSharing confirms volunteered personal details without a
// model call.
func acknowledgeSharing(pi *classify.PersonalInfo) *Response {
	var text string
	switch {
	case pi.Name != "" && pi.Location != "":
		text = fmt.Sprintf("Nice to meet you, %s! You told me you're in %s. I'll remember that.", pi.Name, pi.Location)
	case pi.Name != "":
		text = fmt.Sprintf("Nice to meet you, %s! I'll remember that.", pi.Name)
	default:
		text = fmt.Sprintf("Got it, you're in %s. I'll remember that.", pi.Location)
	}
	return &Response{Text: text, ToolsUsed: []string{}, FinishReason: llm.FinishStop}
}

// loopResponse is the fixed reply when the conversation is going in
// circles.
func (a *Agent) loopResponse() *Response {
	return &Response{
		LoopDetected: true,
		Text: "It looks like we may be going in circles — let me help you differently.\n\n" +
			"You can ask me about:\n" +
			"- Current air quality in a specific city\n" +
			"- Air quality forecasts and comparisons between cities\n" +
			"- Health advice for current pollution levels\n" +
			"- Seasonal pollution patterns in African cities",
		FinishReason: llm.FinishStop,
	}
}

// herePhrases trigger the GPS short-circuit together with a gps location.
var herePhrases = []string{"my location", "here", "current location", "where i am", "near me"}

// gpsShortCircuit answers location-relative queries directly from the
// coordinate tool, bypassing the model. Latency optimization and privacy
// guard: coordinates never reach the provider.
func (a *Agent) gpsShortCircuit(ctx context.Context, req *Request, message string) (*Response, bool) {
	loc := req.Location
	if loc == nil || loc.Source != "gps" {
		return nil, false
	}
	lower := strings.ToLower(message)
	matched := false
	for _, phrase := range herePhrases {
		if strings.Contains(lower, phrase) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, false
	}

	a.emit(req, "routing", "Answering from device location", "")
	result, err := a.executor.Execute(ctx, tools.ToolOpenMeteoAirQuality, tools.Args{
		"latitude":  loc.Latitude,
		"longitude": loc.Longitude,
	})
	if err != nil || result == nil || !result.Success {
		return nil, false // fall through to the normal pipeline
	}

	var b strings.Builder
	b.WriteString("Air quality at your current location")
	if place := nearestKnownCity(loc.Latitude, loc.Longitude); place != "" {
		fmt.Fprintf(&b, " (near %s)", place)
	}
	b.WriteString(":\n")
	for _, item := range []struct{ key, label string }{
		{"aqi", "US AQI"}, {"pm25", "PM2.5"}, {"pm10", "PM10"},
	} {
		if v, ok := result.Data[item.key]; ok {
			fmt.Fprintf(&b, "- %s: %v\n", item.label, v)
		}
	}
	b.WriteString("\nSource: Open-Meteo (modeled data).")

	resp := &Response{
		Text:         b.String(),
		ToolsUsed:    []string{tools.ToolOpenMeteoAirQuality},
		FinishReason: llm.FinishStop,
	}
	sess := a.sessions.GetOrCreate(req.SessionID)
	a.persistTurn(req, sess, message, resp)
	return resp, true
}

// nearestKnownCity reverse-geocodes against the known city table with a
// coarse distance check. Empty when nothing is close.
func nearestKnownCity(lat, lon float64) string {
	best := ""
	bestDist := 1.0 // ~100 km in degrees, rough
	for _, city := range classify.AfricanCityNames() {
		clat, clon, err := tools.CityCoords(city)
		if err != nil {
			continue
		}
		d := (lat-clat)*(lat-clat) + (lon-clon)*(lon-clon)
		if d < bestDist*bestDist {
			best = city
			bestDist = d
		}
	}
	return capitalizeWords(best)
}

func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// consentWords mark a short affirmation as location consent.
var consentWords = []string{"yes", "sure", "ok", "okay", "please", "go ahead", "yeah", "yep"}

// consentRewrite is the internal message substituted for an affirmation.
const consentRewrite = "User has consented. Get air quality for current location via IP lookup."

// synthesizeConsent rewrites a short "yes" into an actionable request
// when the previous assistant turn asked for the user's location.
func synthesizeConsent(sess *session.Session, message string) (string, bool) {
	if sess.NumTurns() == 0 {
		return "", false
	}
	lastAssistant := strings.ToLower(sess.Turns[len(sess.Turns)-1].Assistant)
	if !strings.Contains(lastAssistant, "your location") &&
		!strings.Contains(lastAssistant, "share your location") {
		return "", false
	}

	lower := strings.ToLower(strings.TrimSpace(message))
	if strings.Contains(lower, "?") || len(strings.Fields(lower)) > 5 {
		return "", false
	}
	for _, word := range consentWords {
		if strings.Contains(lower, word) {
			return consentRewrite, true
		}
	}
	return "", false
}
