package types

// DecisionRecord is one pathway's conclusion. Records are value objects:
// built by a decision source, handed to the orchestrator, never mutated.
type DecisionRecord struct {
	Decision   string   `json:"decision"`
	Confidence *float64 `json:"confidence,omitempty"`
	Reasoning  string   `json:"reasoning"`
	Verified   bool     `json:"verified,omitempty"`
}

// ConfidenceOr returns the record's confidence, or def when none was reported.
func (r DecisionRecord) ConfidenceOr(def float64) float64 {
	if r.Confidence == nil {
		return def
	}
	return *r.Confidence
}

// FusedDecision is the orchestrator's combined output. Decision is always
// one of the two input decisions verbatim; fusion selects and weights, it
// never invents a new label.
type FusedDecision struct {
	Decision            string  `json:"decision"`
	Confidence          float64 `json:"confidence"`
	Reasoning           string  `json:"reasoning"`
	SymbolicWeight      float64 `json:"symbolic_weight"`
	ProbabilisticWeight float64 `json:"probabilistic_weight"`
}

// Float returns a pointer to v, for building records with optional confidence.
func Float(v float64) *float64 {
	return &v
}
