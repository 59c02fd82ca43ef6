package attest

import (
	"crypto/ed25519"

	"github.com/axiomhive/hybrid/internal/crypto"
)

// KeySigner signs digests with a fixed Ed25519 key.
type KeySigner struct {
	keyID string
	priv  ed25519.PrivateKey
	pub   ed25519.PublicKey
}

func NewKeySigner(keyID string, priv ed25519.PrivateKey) *KeySigner {
	return &KeySigner{keyID: keyID, priv: priv, pub: priv.Public().(ed25519.PublicKey)}
}

// LoadKeySigner reads the signing key from an operator-provided key file.
func LoadKeySigner(keyID, path string) (*KeySigner, error) {
	priv, _, err := crypto.LoadEd25519PrivateKey(path)
	if err != nil {
		return nil, err
	}
	return NewKeySigner(keyID, priv), nil
}

func (s *KeySigner) KeyID() string {
	return s.keyID
}

func (s *KeySigner) PublicKey() ed25519.PublicKey {
	return s.pub
}

func (s *KeySigner) SignEd25519(digest []byte) ([]byte, error) {
	return crypto.SignEd25519(s.priv, digest)
}
