package types

// Attestation strategy labels.
const (
	StrategySHA256  = "sha256"
	StrategyEd25519 = "ed25519"
)

// AttestationRecord is one audit-trail entry. Hash is a pure function of
// (payload, metadata, timestamp): the same inputs always produce the same
// 64-character lowercase hex digest.
type AttestationRecord struct {
	Hash      string `json:"hash"`
	Timestamp string `json:"timestamp"`
	Strategy  string `json:"strategy"`
	KeyID     string `json:"key_id,omitempty"`
	Sig       string `json:"sig,omitempty"`
}
