package classify

// Capability describes what a tool is good at. Used to weight planner
// priorities toward the best-fitting provider for a query.
type Capability struct {
	// AfricaSpecialist tools carry ground-truth sensors for African cities.
	AfricaSpecialist bool

	// Realtime / Historical report what time ranges the tool serves.
	Realtime   bool
	Historical bool

	// Metrics the tool reports. Empty means all.
	Metrics []Metric

	// BaseConfidence is the starting relevance score in [0,1].
	BaseConfidence float64
}

// ToolRelevance scores how well a tool fits a classified query, in [0,1].
//
// Boosts and penalties:
//   - +20% for Africa specialists when the query names an African city
//   - +10% when realtime data is requested and the tool serves it
//   - -30% when historical data is requested and the tool cannot serve it
func ToolRelevance(cap Capability, res *Result) float64 {
	score := cap.BaseConfidence

	if cap.AfricaSpecialist && res.HasAfricanLocation() {
		score *= 1.20
	}
	if res.TimeRange == TimeCurrent && cap.Realtime {
		score *= 1.10
	}
	if res.TimeRange == TimeHistorical && !cap.Historical {
		score *= 0.70
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}
