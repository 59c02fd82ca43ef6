// Package ledger persists pipeline runs and the attestations generated for
// them. The log is process-local; no cross-process consistency is provided.
package ledger

import "github.com/axiomhive/hybrid/pkg/types"

type Store interface {
	AppendAttestation(rec types.AttestationRecord) error
	ListAttestations() ([]types.AttestationRecord, error)

	PutRun(run RunRecord) error
	GetRun(runID string) (RunRecord, bool)
	ListRuns(limit int) ([]RunRecord, error)
}

// RunRecord is one pipeline invocation: the fused decision body plus the
// hash that attests it.
type RunRecord struct {
	RunID           string
	CreatedAt       string
	Mode            string
	Decision        string
	AttestationHash string
	BodyJSON        []byte
}
