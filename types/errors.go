package types

import "errors"

// Failure taxonomy shared by every component of the engine. Concrete errors
// wrap exactly one of these sentinels so callers can classify any failure
// with errors.Is. All of them are terminal for the current operation: the
// operation aborts atomically and is never retried internally.
var (
	// ErrValidation covers malformed sizes and shapes, out-of-range
	// amounts and unknown schema versions.
	ErrValidation = errors.New("validation error")
	// ErrCryptography covers undecodable or out-of-subgroup curve points.
	ErrCryptography = errors.New("cryptography error")
	// ErrProofVerificationFailed means a well-formed proof whose statement
	// is false. Explicitly distinct from malformed input.
	ErrProofVerificationFailed = errors.New("proof verification failed")
	// ErrStateConflict covers an already spent nullifier, a full tree and
	// a root outside the history window.
	ErrStateConflict = errors.New("state conflict")
	// ErrConfig covers a missing or unlocked verification key and schema
	// version mismatches.
	ErrConfig = errors.New("configuration error")
)
