package crypto

import "errors"

var (
	ErrFloatNotFinite   = errors.New("float value is not finite")
	ErrInvalidNumber    = errors.New("invalid json number")
	ErrNonStringMapKey  = errors.New("map keys must be strings")
	ErrKeyCollision     = errors.New("normalized map key collision")
	ErrCycleDetected    = errors.New("cyclic structure cannot be canonicalized")
	ErrInvalidSeedSize  = errors.New("invalid ed25519 seed size")
	ErrInvalidDigestLen = errors.New("invalid digest length")
)
