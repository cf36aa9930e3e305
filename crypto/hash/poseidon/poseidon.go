// Package poseidon fixes the Poseidon instances the pool hashes with. The
// same parameter tables (iden3 reference constants) are used for tree nodes,
// note commitments and nullifier hashes; any off-ledger mirror must hash with
// these exact instances or its roots diverge from the pool's.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

// Hash2 hashes two field elements. Used for tree nodes and the nullifier
// inner hash.
func Hash2(a, b *big.Int) (*big.Int, error) {
	return poseidon.Hash([]*big.Int{a, b})
}

// Hash4 hashes four field elements. Used for note commitments.
func Hash4(a, b, c, d *big.Int) (*big.Int, error) {
	return poseidon.Hash([]*big.Int{a, b, c, d})
}

// Commitment computes the hidden note commitment
// Poseidon(secret, nullifierPreimage, amount, assetID).
func Commitment(secret, nullifierPreimage, amount, assetID *big.Int) (*big.Int, error) {
	cm, err := Hash4(secret, nullifierPreimage, amount, assetID)
	if err != nil {
		return nil, fmt.Errorf("commitment hash: %w", err)
	}
	return cm, nil
}

// NullifierHash computes Poseidon(Poseidon(nullifierPreimage, secret), leafIndex).
// Binding the leaf index prevents reuse of the same secret pair against a
// different tree position.
func NullifierHash(nullifierPreimage, secret *big.Int, leafIndex uint64) (*big.Int, error) {
	inner, err := Hash2(nullifierPreimage, secret)
	if err != nil {
		return nil, fmt.Errorf("nullifier inner hash: %w", err)
	}
	nh, err := Hash2(inner, new(big.Int).SetUint64(leafIndex))
	if err != nil {
		return nil, fmt.Errorf("nullifier outer hash: %w", err)
	}
	return nh, nil
}
