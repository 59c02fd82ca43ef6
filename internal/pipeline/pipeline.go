// Package pipeline runs a request through both decision pathways, fuses the
// results, attests the fused decision, and records the run in the ledger.
package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/axiomhive/hybrid/internal/attest"
	"github.com/axiomhive/hybrid/internal/fusion"
	"github.com/axiomhive/hybrid/internal/ledger"
	"github.com/axiomhive/hybrid/pkg/types"
)

// DecisionSource is one pathway: it maps a request to a decision record.
type DecisionSource interface {
	Evaluate(input types.RequestInput) (types.DecisionRecord, error)
}

// StaticSource always returns the same record. Used in tests and demos.
type StaticSource struct {
	Record types.DecisionRecord
}

func (s StaticSource) Evaluate(types.RequestInput) (types.DecisionRecord, error) {
	return s.Record, nil
}

// HybridOutput is the caller-facing result of one pipeline run.
type HybridOutput struct {
	RunID                     string  `json:"run_id"`
	Output                    string  `json:"output"`
	ReasoningPath             string  `json:"reasoning_path"`
	Confidence                float64 `json:"confidence"`
	FormalVerification        bool    `json:"formal_verification"`
	AttestationHash           string  `json:"attestation_hash"`
	SymbolicContribution      float64 `json:"symbolic_contribution"`
	ProbabilisticContribution float64 `json:"probabilistic_contribution"`
	ComplianceVerified        bool    `json:"compliance_verified"`
	CreatedAt                 string  `json:"created_at"`
}

type ServiceInput struct {
	Deterministic DecisionSource
	Probabilistic DecisionSource
	Orchestrator  *fusion.Orchestrator
	Attestor      *attest.Engine
	Store         ledger.Store

	// Attestation metadata recorded with every run.
	ComplianceFramework string
	RulesetHash         string
	ModelID             string
}

type Service struct {
	deterministic DecisionSource
	probabilistic DecisionSource
	orchestrator  *fusion.Orchestrator
	attestor      *attest.Engine
	store         ledger.Store

	complianceFramework string
	rulesetHash         string
	modelID             string
}

func NewService(in ServiceInput) (*Service, error) {
	if in.Deterministic == nil || in.Probabilistic == nil {
		return nil, fmt.Errorf("both decision sources are required")
	}
	if in.Orchestrator == nil {
		return nil, fmt.Errorf("missing orchestrator")
	}
	if in.Attestor == nil {
		return nil, fmt.Errorf("missing attestation engine")
	}
	if in.Store == nil {
		return nil, fmt.Errorf("missing ledger store")
	}
	return &Service{
		deterministic:       in.Deterministic,
		probabilistic:       in.Probabilistic,
		orchestrator:        in.Orchestrator,
		attestor:            in.Attestor,
		store:               in.Store,
		complianceFramework: in.ComplianceFramework,
		rulesetHash:         in.RulesetHash,
		modelID:             in.ModelID,
	}, nil
}

func (s *Service) Mode() fusion.Mode {
	return s.orchestrator.Mode()
}

// Process evaluates both pathways, fuses them under the configured mode,
// attests the fused decision at createdAt, and persists the run. Any
// pathway, fusion, attestation, or store failure aborts the call and no
// run record is written. The attestation is generated before the run is
// stored, so an aborted store write can leave an entry in the append-only
// attestation log without a matching run.
func (s *Service) Process(input types.RequestInput, createdAt string) (HybridOutput, error) {
	deterministic, err := s.deterministic.Evaluate(input)
	if err != nil {
		return HybridOutput{}, fmt.Errorf("deterministic pathway: %w", err)
	}
	probabilistic, err := s.probabilistic.Evaluate(input)
	if err != nil {
		return HybridOutput{}, fmt.Errorf("probabilistic pathway: %w", err)
	}

	fused, err := s.orchestrator.Orchestrate(deterministic, probabilistic)
	if err != nil {
		return HybridOutput{}, err
	}

	rec, err := s.attestor.Generate(fusedView(fused), s.metadata(), createdAt)
	if err != nil {
		return HybridOutput{}, fmt.Errorf("attest: %w", err)
	}

	verified := deterministic.Verified
	if s.orchestrator.Mode() == fusion.ModeProbabilistic {
		verified = probabilistic.Verified
	}

	out := HybridOutput{
		RunID:                     uuid.NewString(),
		Output:                    fused.Decision,
		ReasoningPath:             fused.Reasoning,
		Confidence:                fused.Confidence,
		FormalVerification:        verified,
		AttestationHash:           rec.Hash,
		SymbolicContribution:      fused.SymbolicWeight,
		ProbabilisticContribution: fused.ProbabilisticWeight,
		ComplianceVerified:        verified && s.complianceFramework != "",
		CreatedAt:                 createdAt,
	}

	body, err := json.Marshal(out)
	if err != nil {
		return HybridOutput{}, err
	}
	run := ledger.RunRecord{
		RunID:           out.RunID,
		CreatedAt:       createdAt,
		Mode:            string(s.orchestrator.Mode()),
		Decision:        out.Output,
		AttestationHash: out.AttestationHash,
		BodyJSON:        body,
	}
	if err := s.store.PutRun(run); err != nil {
		return HybridOutput{}, fmt.Errorf("record run: %w", err)
	}

	return out, nil
}

// fusedView is the exact payload shape that gets attested. Changing a key
// here changes every hash.
func fusedView(fused types.FusedDecision) map[string]any {
	return map[string]any{
		"decision":             fused.Decision,
		"confidence":           fused.Confidence,
		"reasoning":            fused.Reasoning,
		"symbolic_weight":      fused.SymbolicWeight,
		"probabilistic_weight": fused.ProbabilisticWeight,
	}
}

func (s *Service) metadata() map[string]any {
	return map[string]any{
		"compliance_framework": s.complianceFramework,
		"ruleset_hash":         s.rulesetHash,
		"model_id":             s.modelID,
	}
}
