// Package grade scores a recorded run's audit quality. The grade reflects
// how defensible the run is to a reviewer, not whether the decision itself
// was right.
package grade

import (
	"encoding/json"
	"strings"

	"github.com/axiomhive/hybrid/internal/ledger"
)

type Result struct {
	Grade   string
	Reasons []string
}

type Input struct {
	// Attested is the result of recomputing the run's attestation hash.
	Attested bool
	Run      ledger.RunRecord
}

type runBody struct {
	ReasoningPath      string  `json:"reasoning_path"`
	Confidence         float64 `json:"confidence"`
	FormalVerification bool    `json:"formal_verification"`
	ComplianceVerified bool    `json:"compliance_verified"`
}

func Evaluate(in Input) Result {
	if !in.Attested {
		return Result{Grade: "F", Reasons: []string{"hash_mismatch"}}
	}

	var body runBody
	_ = json.Unmarshal(in.Run.BodyJSON, &body)

	missing := map[string]bool{}

	if strings.TrimSpace(in.Run.AttestationHash) == "" {
		missing["attestation_hash"] = true
	}
	if !body.FormalVerification {
		missing["formal_verification"] = true
	}
	if !body.ComplianceVerified {
		missing["compliance_verification"] = true
	}
	if strings.TrimSpace(body.ReasoningPath) == "" {
		missing["reasoning_path"] = true
	}
	if body.Confidence < 0.5 {
		missing["confidence"] = true
	}

	// Heuristic grading.
	grade := "A"
	switch {
	case missing["attestation_hash"]:
		grade = "F"
	case missing["formal_verification"]:
		grade = "D"
	case missing["compliance_verification"]:
		grade = "C"
	case missing["reasoning_path"] || missing["confidence"]:
		grade = "B"
	}

	reasons := []string{}
	for k, v := range missing {
		if v {
			reasons = append(reasons, "missing_"+k)
		}
	}

	return Result{Grade: grade, Reasons: reasons}
}
