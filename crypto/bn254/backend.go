package bn254

import (
	"fmt"
	"math/big"
)

// PairingPairs is the fixed arity of the pairing check: the Groth16 equation
// is a product of exactly four pairings.
const PairingPairs = 4

// Backend is the group-arithmetic interface the verifier is written against.
// Two implementations exist: a native one on top of gnark-crypto's
// assembly-accelerated routines and a generic one with textbook affine
// formulas over math/big. Both must agree bit-for-bit on every primitive;
// the cross-backend tests enforce it. The backend is chosen at construction,
// never by runtime type inspection.
type Backend interface {
	// AddG1 returns p + q.
	AddG1(p, q *G1) *G1
	// ScalarMulG1 returns k * p. The scalar is taken modulo the group
	// order.
	ScalarMulG1(p *G1, k *big.Int) *G1
	// NegG1 returns -p. The identity maps to the identity, and a point
	// with y == 0 keeps y == 0 (never the non-canonical p).
	NegG1(p *G1) *G1
	// PairingCheck returns true iff the product of the four pairings
	// e(g1[i], g2[i]) is the identity of the target group.
	PairingCheck(g1 [PairingPairs]*G1, g2 [PairingPairs]*G2) (bool, error)
}

// BackendType selects a Backend implementation.
type BackendType string

const (
	// BackendNative uses gnark-crypto's accelerated arithmetic.
	BackendNative BackendType = "native"
	// BackendGeneric uses portable affine formulas over math/big.
	BackendGeneric BackendType = "generic"
)

// NewBackend returns the Backend implementation for the given type.
func NewBackend(t BackendType) (Backend, error) {
	switch t {
	case BackendNative:
		return &nativeBackend{}, nil
	case BackendGeneric:
		return &genericBackend{}, nil
	default:
		return nil, fmt.Errorf("unknown curve backend %q", t)
	}
}
