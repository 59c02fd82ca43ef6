package pipeline

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/axiomhive/hybrid/internal/attest"
	"github.com/axiomhive/hybrid/internal/fusion"
	"github.com/axiomhive/hybrid/internal/ledger"
	"github.com/axiomhive/hybrid/pkg/types"
)

func newTestService(t *testing.T, mode fusion.Mode, det, prob types.DecisionRecord) (*Service, *ledger.InMemoryStore) {
	t.Helper()

	store := ledger.NewInMemoryStore()
	engine, err := attest.NewEngine(attest.EngineInput{Sink: store})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	orch, err := fusion.NewOrchestrator(mode, fusion.Weights{})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	svc, err := NewService(ServiceInput{
		Deterministic:       StaticSource{Record: det},
		Probabilistic:       StaticSource{Record: prob},
		Orchestrator:        orch,
		Attestor:            engine,
		Store:               store,
		ComplianceFramework: "SOX",
		RulesetHash:         "sha256:abc",
		ModelID:             "linear-v1",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func TestProcessHybrid(t *testing.T) {
	det := types.DecisionRecord{Decision: "APPROVED", Confidence: types.Float(1.0), Reasoning: "rule R3 matched", Verified: true}
	prob := types.DecisionRecord{Decision: "REJECTED", Confidence: types.Float(0.3), Reasoning: "model linear-v1 score", Verified: false}
	svc, store := newTestService(t, fusion.ModeHybrid, det, prob)

	out, err := svc.Process(types.RequestInput{RequestID: "req-1", Action: "transfer"}, "2024-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if out.Output != "APPROVED" {
		t.Fatalf("deterministic decision must win in hybrid mode, got %s", out.Output)
	}
	if out.Confidence != 0.3 {
		t.Fatalf("expected probabilistic confidence 0.3, got %v", out.Confidence)
	}
	if out.SymbolicContribution != 0.6 || out.ProbabilisticContribution != 0.4 {
		t.Fatalf("unexpected contributions: %v/%v", out.SymbolicContribution, out.ProbabilisticContribution)
	}
	if !out.FormalVerification {
		t.Fatalf("deterministic pathway was verified")
	}
	if !out.ComplianceVerified {
		t.Fatalf("compliance framework is configured and the decision is verified")
	}
	if out.RunID == "" || out.AttestationHash == "" {
		t.Fatalf("missing run id or attestation hash: %+v", out)
	}
	if !strings.Contains(out.ReasoningPath, "Symbolic:") || !strings.Contains(out.ReasoningPath, "Probabilistic:") {
		t.Fatalf("reasoning path must cite both pathways: %q", out.ReasoningPath)
	}
	if out.CreatedAt != "2024-01-01T00:00:00Z" {
		t.Fatalf("unexpected created_at: %s", out.CreatedAt)
	}

	atts, err := store.ListAttestations()
	if err != nil {
		t.Fatalf("list attestations: %v", err)
	}
	if len(atts) != 1 || atts[0].Hash != out.AttestationHash {
		t.Fatalf("attestation not recorded in the ledger: %+v", atts)
	}
}

func TestProcessPersistsRunAndAttestation(t *testing.T) {
	det := types.DecisionRecord{Decision: "APPROVED", Confidence: types.Float(1.0), Reasoning: "ok", Verified: true}
	prob := types.DecisionRecord{Decision: "APPROVED", Confidence: types.Float(0.9), Reasoning: "ok", Verified: false}
	svc, store := newTestService(t, fusion.ModeHybrid, det, prob)

	out, err := svc.Process(types.RequestInput{RequestID: "req-1"}, "2024-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	run, ok := store.GetRun(out.RunID)
	if !ok {
		t.Fatalf("run %s not persisted", out.RunID)
	}
	if run.Decision != "APPROVED" || run.Mode != "hybrid" || run.AttestationHash != out.AttestationHash {
		t.Fatalf("unexpected run record: %+v", run)
	}

	var body HybridOutput
	if err := json.Unmarshal(run.BodyJSON, &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body != out {
		t.Fatalf("persisted body diverges from returned output: %+v vs %+v", body, out)
	}

	atts, err := store.ListAttestations()
	if err != nil {
		t.Fatalf("list attestations: %v", err)
	}
	if len(atts) != 1 || atts[0].Hash != out.AttestationHash {
		t.Fatalf("attestation not mirrored to the ledger: %+v", atts)
	}
}

func TestProcessDeterministicHashes(t *testing.T) {
	det := types.DecisionRecord{Decision: "APPROVED", Confidence: types.Float(1.0), Reasoning: "ok", Verified: true}
	prob := types.DecisionRecord{Decision: "REJECTED", Confidence: types.Float(0.3), Reasoning: "risk", Verified: false}
	svc, _ := newTestService(t, fusion.ModeHybrid, det, prob)

	first, err := svc.Process(types.RequestInput{}, "2024-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	second, err := svc.Process(types.RequestInput{}, "2024-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if first.AttestationHash != second.AttestationHash {
		t.Fatalf("same fused payload and timestamp must hash identically: %s vs %s", first.AttestationHash, second.AttestationHash)
	}
	if first.RunID == second.RunID {
		t.Fatalf("runs must get distinct ids")
	}

	third, err := svc.Process(types.RequestInput{}, "2024-01-01T00:00:01Z")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if third.AttestationHash == first.AttestationHash {
		t.Fatalf("different timestamps must hash differently")
	}
}

func TestProcessProbabilisticModeUnverified(t *testing.T) {
	det := types.DecisionRecord{Decision: "APPROVED", Confidence: types.Float(1.0), Reasoning: "ok", Verified: true}
	prob := types.DecisionRecord{Decision: "REJECTED", Confidence: types.Float(0.96), Reasoning: "risk", Verified: false}
	svc, _ := newTestService(t, fusion.ModeProbabilistic, det, prob)

	out, err := svc.Process(types.RequestInput{}, "2024-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.Output != "REJECTED" {
		t.Fatalf("probabilistic mode must return the statistical decision, got %s", out.Output)
	}
	if out.FormalVerification || out.ComplianceVerified {
		t.Fatalf("statistical decisions are never formally verified: %+v", out)
	}
}

type errorSource struct{ err error }

func (s errorSource) Evaluate(types.RequestInput) (types.DecisionRecord, error) {
	return types.DecisionRecord{}, s.err
}

func TestProcessPathwayErrorAborts(t *testing.T) {
	store := ledger.NewInMemoryStore()
	engine, err := attest.NewEngine(attest.EngineInput{Sink: store})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	orch, err := fusion.NewOrchestrator(fusion.ModeHybrid, fusion.Weights{})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}

	wantErr := errors.New("ruleset unavailable")
	svc, err := NewService(ServiceInput{
		Deterministic: errorSource{err: wantErr},
		Probabilistic: StaticSource{Record: types.DecisionRecord{Decision: "APPROVED"}},
		Orchestrator:  orch,
		Attestor:      engine,
		Store:         store,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Process(types.RequestInput{}, "2024-01-01T00:00:00Z"); !errors.Is(err, wantErr) {
		t.Fatalf("expected pathway error, got %v", err)
	}
	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("failed run must not be recorded, got %d runs", len(runs))
	}
}

type failingRunStore struct {
	*ledger.InMemoryStore
	putErr error
}

func (s failingRunStore) PutRun(ledger.RunRecord) error { return s.putErr }

func TestProcessStoreErrorKeepsAttestation(t *testing.T) {
	store := ledger.NewInMemoryStore()
	engine, err := attest.NewEngine(attest.EngineInput{Sink: store})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	orch, err := fusion.NewOrchestrator(fusion.ModeHybrid, fusion.Weights{})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}

	wantErr := errors.New("ledger unavailable")
	svc, err := NewService(ServiceInput{
		Deterministic: StaticSource{Record: types.DecisionRecord{Decision: "APPROVED", Confidence: types.Float(1.0), Verified: true}},
		Probabilistic: StaticSource{Record: types.DecisionRecord{Decision: "APPROVED", Confidence: types.Float(0.9)}},
		Orchestrator:  orch,
		Attestor:      engine,
		Store:         failingRunStore{InMemoryStore: store, putErr: wantErr},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Process(types.RequestInput{}, "2024-01-01T00:00:00Z"); !errors.Is(err, wantErr) {
		t.Fatalf("expected store error, got %v", err)
	}

	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("aborted run must not be recorded, got %d runs", len(runs))
	}

	// The attestation is generated before the run record is written, so the
	// append-only log keeps the entry for the aborted call.
	atts, err := store.ListAttestations()
	if err != nil {
		t.Fatalf("list attestations: %v", err)
	}
	if len(atts) != 1 {
		t.Fatalf("expected the attestation to survive the aborted run, got %d entries", len(atts))
	}
}

func TestNewServiceValidation(t *testing.T) {
	orch, err := fusion.NewOrchestrator(fusion.ModeHybrid, fusion.Weights{})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	engine, err := attest.NewEngine(attest.EngineInput{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	_, err = NewService(ServiceInput{
		Probabilistic: StaticSource{},
		Orchestrator:  orch,
		Attestor:      engine,
		Store:         ledger.NewInMemoryStore(),
	})
	if err == nil {
		t.Fatalf("expected error for missing deterministic source")
	}

	_, err = NewService(ServiceInput{
		Deterministic: StaticSource{},
		Probabilistic: StaticSource{},
		Orchestrator:  orch,
		Attestor:      engine,
	})
	if err == nil {
		t.Fatalf("expected error for missing store")
	}
}
