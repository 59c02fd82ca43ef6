// Package attest produces and verifies content-addressed fingerprints of
// decision payloads and keeps an append-only audit trail of every
// fingerprint generated.
package attest

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/axiomhive/hybrid/internal/crypto"
	"github.com/axiomhive/hybrid/pkg/types"
)

// Signer signs attestation digests when the ed25519 strategy is configured.
type Signer interface {
	KeyID() string
	SignEd25519(digest []byte) ([]byte, error)
}

// Sink receives a copy of every generated attestation, typically for
// persistence. The engine still owns its own in-memory trail.
type Sink interface {
	AppendAttestation(rec types.AttestationRecord) error
}

type EngineInput struct {
	Strategy string // defaults to sha256
	Signer   Signer // required for the ed25519 strategy
	Sink     Sink   // optional
}

// Engine is stateless per call except for the monotonically growing trail.
// The trail is the only shared mutable state; a single mutex guarantees
// concurrent generates never lose entries and AuditTrail never observes a
// partial append.
type Engine struct {
	strategy string
	signer   Signer
	sink     Sink

	mu    sync.Mutex
	trail []types.AttestationRecord
}

func NewEngine(in EngineInput) (*Engine, error) {
	if in.Strategy == "" {
		in.Strategy = types.StrategySHA256
	}
	switch in.Strategy {
	case types.StrategySHA256:
	case types.StrategyEd25519:
		if in.Signer == nil {
			return nil, fmt.Errorf("strategy %s requires a signer", in.Strategy)
		}
	default:
		return nil, fmt.Errorf("unsupported attestation strategy: %s", in.Strategy)
	}
	return &Engine{strategy: in.Strategy, signer: in.Signer, sink: in.Sink}, nil
}

func (e *Engine) Strategy() string {
	return e.strategy
}

// Generate fingerprints output+metadata under the supplied timestamp and
// appends the resulting record to the audit trail. The timestamp is an
// explicit input rather than sampled here, so the same (output, metadata,
// generatedAt) triple always reproduces the same hash and verification is
// a meaningful equality check.
func (e *Engine) Generate(output any, metadata map[string]any, generatedAt string) (types.AttestationRecord, error) {
	canonical, err := canonicalPayload(output, metadata, generatedAt)
	if err != nil {
		return types.AttestationRecord{}, err
	}

	rec := types.AttestationRecord{
		Hash:      crypto.DigestHex(canonical),
		Timestamp: generatedAt,
		Strategy:  e.strategy,
	}

	if e.strategy == types.StrategyEd25519 {
		sig, err := e.signer.SignEd25519(crypto.DigestBytes(canonical))
		if err != nil {
			return types.AttestationRecord{}, err
		}
		rec.KeyID = e.signer.KeyID()
		rec.Sig = base64.StdEncoding.EncodeToString(sig)
	}

	if e.sink != nil {
		if err := e.sink.AppendAttestation(rec); err != nil {
			return types.AttestationRecord{}, fmt.Errorf("append attestation: %w", err)
		}
	}

	e.mu.Lock()
	e.trail = append(e.trail, rec)
	e.mu.Unlock()

	return rec, nil
}

// Verify recomputes the digest for output+metadata at generatedAt and
// reports whether it equals hash. A mismatch is an ordinary false return;
// errors are reserved for payloads that cannot be canonicalized.
func (e *Engine) Verify(output any, hash string, metadata map[string]any, generatedAt string) (bool, error) {
	canonical, err := canonicalPayload(output, metadata, generatedAt)
	if err != nil {
		return false, err
	}
	return crypto.DigestHex(canonical) == hash, nil
}

// VerifySignature checks an ed25519-strategy record's signature against the
// engine's hash.
func VerifySignature(rec types.AttestationRecord, publicKey ed25519.PublicKey) (bool, error) {
	if rec.Sig == "" {
		return false, nil
	}
	sig, err := base64.StdEncoding.DecodeString(rec.Sig)
	if err != nil {
		return false, err
	}
	digest, err := hex.DecodeString(rec.Hash)
	if err != nil {
		return false, err
	}
	return crypto.VerifyEd25519(publicKey, digest, sig)
}

// AuditTrail returns the full trail in insertion order. The returned slice
// is a copy; callers cannot mutate the engine's log through it.
func (e *Engine) AuditTrail() []types.AttestationRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]types.AttestationRecord, len(e.trail))
	copy(out, e.trail)
	return out
}

// canonicalPayload fixes the canonical shape hashed by both Generate and
// Verify: {"metadata":...,"output":...,"timestamp":...} with sorted keys. A
// nil metadata map encodes as an empty object so presence and absence hash
// identically.
func canonicalPayload(output any, metadata map[string]any, generatedAt string) ([]byte, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	canonical, err := crypto.Canonicalize(map[string]any{
		"output":    output,
		"metadata":  metadata,
		"timestamp": generatedAt,
	})
	if err != nil {
		return nil, err
	}
	return canonical, nil
}
