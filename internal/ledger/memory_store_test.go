package ledger

import (
	"testing"

	"github.com/axiomhive/hybrid/pkg/types"
)

func TestInMemoryStoreAttestationsOrdered(t *testing.T) {
	store := NewInMemoryStore()
	for _, h := range []string{"aaa", "bbb", "ccc"} {
		if err := store.AppendAttestation(types.AttestationRecord{Hash: h, Timestamp: "2024-01-01T00:00:00Z", Strategy: types.StrategySHA256}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recs, err := store.ListAttestations()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 attestations, got %d", len(recs))
	}
	for i, want := range []string{"aaa", "bbb", "ccc"} {
		if recs[i].Hash != want {
			t.Fatalf("attestation %d: expected %s, got %s", i, want, recs[i].Hash)
		}
	}

	// Mutating the returned slice must not reach the store.
	recs[0].Hash = "mutated"
	again, err := store.ListAttestations()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if again[0].Hash != "aaa" {
		t.Fatalf("list must return a copy, got %s", again[0].Hash)
	}
}

func TestInMemoryStoreRuns(t *testing.T) {
	store := NewInMemoryStore()

	runs := []RunRecord{
		{RunID: "r1", CreatedAt: "2024-01-01T00:00:00Z", Mode: "hybrid", Decision: "APPROVED", AttestationHash: "h1", BodyJSON: []byte(`{"a":1}`)},
		{RunID: "r2", CreatedAt: "2024-01-01T00:00:01Z", Mode: "voting", Decision: "REJECTED", AttestationHash: "h2", BodyJSON: []byte(`{"a":2}`)},
		{RunID: "r3", CreatedAt: "2024-01-01T00:00:02Z", Mode: "hybrid", Decision: "APPROVED", AttestationHash: "h3", BodyJSON: []byte(`{"a":3}`)},
	}
	for _, r := range runs {
		if err := store.PutRun(r); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	got, ok := store.GetRun("r2")
	if !ok {
		t.Fatalf("expected r2 to exist")
	}
	if got.Decision != "REJECTED" || got.AttestationHash != "h2" {
		t.Fatalf("unexpected run: %+v", got)
	}

	if _, ok := store.GetRun("missing"); ok {
		t.Fatalf("expected miss for unknown run id")
	}

	listed, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(listed))
	}
	if listed[0].RunID != "r1" || listed[2].RunID != "r3" {
		t.Fatalf("runs out of insertion order: %+v", listed)
	}

	limited, err := store.ListRuns(2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit to apply, got %d runs", len(limited))
	}
}

func TestInMemoryStorePutRunOverwrite(t *testing.T) {
	store := NewInMemoryStore()
	if err := store.PutRun(RunRecord{RunID: "r1", Decision: "APPROVED"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.PutRun(RunRecord{RunID: "r1", Decision: "REJECTED"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	listed, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("overwrite must not duplicate, got %d runs", len(listed))
	}
	if listed[0].Decision != "REJECTED" {
		t.Fatalf("expected latest write to win, got %s", listed[0].Decision)
	}
}
