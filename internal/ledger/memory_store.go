package ledger

import (
	"sync"

	"github.com/axiomhive/hybrid/pkg/types"
)

type InMemoryStore struct {
	mu sync.Mutex

	attestations []types.AttestationRecord
	runs         map[string]RunRecord
	runOrder     []string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{runs: make(map[string]RunRecord)}
}

func (s *InMemoryStore) AppendAttestation(rec types.AttestationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attestations = append(s.attestations, rec)
	return nil
}

// ListAttestations returns a copy of the log in insertion order.
func (s *InMemoryStore) ListAttestations() ([]types.AttestationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AttestationRecord, len(s.attestations))
	copy(out, s.attestations)
	return out, nil
}

func (s *InMemoryStore) PutRun(run RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.RunID]; !ok {
		s.runOrder = append(s.runOrder, run.RunID)
	}
	s.runs[run.RunID] = run
	return nil
}

func (s *InMemoryStore) GetRun(runID string) (RunRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	return run, ok
}

func (s *InMemoryStore) ListRuns(limit int) ([]RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []RunRecord{}
	for _, id := range s.runOrder {
		out = append(out, s.runs[id])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
