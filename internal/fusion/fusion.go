// Package fusion combines the deterministic and probabilistic pathway
// records into a single decision under an explicit reasoning mode.
package fusion

import (
	"errors"
	"fmt"

	"github.com/axiomhive/hybrid/pkg/types"
)

// Mode selects how the two pathway records are combined.
type Mode string

const (
	ModeSymbolic      Mode = "symbolic"      // deterministic record verbatim
	ModeProbabilistic Mode = "probabilistic" // probabilistic record verbatim
	ModeHybrid        Mode = "hybrid"        // rule verdict annotated with statistical confidence
	ModeVoting        Mode = "voting"        // ensemble voting; currently same combination as hybrid
)

var ErrInvalidMode = errors.New("invalid reasoning mode")

// ParseMode maps a mode label to a Mode. Unknown labels are rejected, never
// defaulted.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSymbolic, ModeProbabilistic, ModeHybrid, ModeVoting:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Weights records each pathway's contribution in hybrid modes.
type Weights struct {
	Symbolic      float64
	Probabilistic float64
}

var DefaultWeights = Weights{Symbolic: 0.6, Probabilistic: 0.4}

// When the probabilistic record reports no confidence, hybrid modes fall
// back to this value.
const fallbackConfidence = 0.5

// Orchestrator fuses pathway records under a mode fixed at construction.
type Orchestrator struct {
	mode    Mode
	weights Weights
}

// NewOrchestrator validates the mode and weights up front. Weights outside
// [0,1] are rejected; zero weights fall back to the defaults.
func NewOrchestrator(mode Mode, weights Weights) (*Orchestrator, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if weights == (Weights{}) {
		weights = DefaultWeights
	}
	if weights.Symbolic < 0 || weights.Symbolic > 1 || weights.Probabilistic < 0 || weights.Probabilistic > 1 {
		return nil, fmt.Errorf("fusion weights must be in [0,1]: %+v", weights)
	}
	return &Orchestrator{mode: mode, weights: weights}, nil
}

func (o *Orchestrator) Mode() Mode {
	return o.mode
}

// Orchestrate combines one deterministic and one probabilistic record.
// Pure function of its inputs and the configured mode.
//
// In hybrid and voting modes the deterministic decision always wins: the
// statistical pathway contributes confidence and reasoning, never the
// outcome. The fused decision is always one of the two input decisions
// verbatim.
func (o *Orchestrator) Orchestrate(deterministic, probabilistic types.DecisionRecord) (types.FusedDecision, error) {
	return Fuse(deterministic, probabilistic, o.mode, o.weights)
}

// Fuse is the mode dispatch behind Orchestrate.
func Fuse(deterministic, probabilistic types.DecisionRecord, mode Mode, weights Weights) (types.FusedDecision, error) {
	switch mode {
	case ModeSymbolic:
		return types.FusedDecision{
			Decision:            deterministic.Decision,
			Confidence:          deterministic.ConfidenceOr(0),
			Reasoning:           deterministic.Reasoning,
			SymbolicWeight:      1.0,
			ProbabilisticWeight: 0.0,
		}, nil
	case ModeProbabilistic:
		return types.FusedDecision{
			Decision:            probabilistic.Decision,
			Confidence:          probabilistic.ConfidenceOr(0),
			Reasoning:           probabilistic.Reasoning,
			SymbolicWeight:      0.0,
			ProbabilisticWeight: 1.0,
		}, nil
	case ModeHybrid, ModeVoting:
		return types.FusedDecision{
			Decision:            deterministic.Decision,
			Confidence:          probabilistic.ConfidenceOr(fallbackConfidence),
			Reasoning:           fmt.Sprintf("Symbolic: %s; Probabilistic: %s", deterministic.Reasoning, probabilistic.Reasoning),
			SymbolicWeight:      weights.Symbolic,
			ProbabilisticWeight: weights.Probabilistic,
		}, nil
	default:
		return types.FusedDecision{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}
