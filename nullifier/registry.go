// Package nullifier keeps the write-once record of spent notes. A record's
// existence at the deterministic key derived from (pool, nullifier hash) is
// the whole statement: there is no payload to update and no delete. The
// create-if-absent check runs inside the caller's write transaction, so a
// join-split marking two nullifiers either lands both records or neither.
package nullifier

import (
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"go.vocdoni.io/dvote/db"

	vcrypto "github.com/veilpool/veilpool/crypto"
	"github.com/veilpool/veilpool/types"
)

// nullifierDomainSeparator namespaces record keys against every other use of
// Keccak256 in the engine.
const nullifierDomainSeparator = "veilpool:nullifier"

var spentMarker = []byte{0x01}

// Registry marks nullifier hashes as spent.
type Registry struct{}

// New returns a Registry.
func New() *Registry {
	return &Registry{}
}

// Key returns the deterministic record address for (poolID, nullifierHash).
func (r *Registry) Key(poolID []byte, nullifierHash *big.Int) []byte {
	return ethcrypto.Keccak256(
		[]byte(nullifierDomainSeparator),
		poolID,
		vcrypto.BigToFixedBytes(nullifierHash),
	)
}

// MarkSpent creates the spent record for nullifierHash, failing with a state
// conflict if it already exists. The write is visible to later reads within
// the same transaction, so marking the same hash twice in one operation also
// fails.
func (r *Registry) MarkSpent(wtx db.WriteTx, poolID []byte, nullifierHash *big.Int) error {
	if nullifierHash == nil {
		return fmt.Errorf("%w: nil nullifier hash", types.ErrValidation)
	}
	key := r.Key(poolID, nullifierHash)
	if _, err := wtx.Get(key); err == nil {
		return fmt.Errorf("%w: nullifier already spent", types.ErrStateConflict)
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return fmt.Errorf("read nullifier record: %w", err)
	}
	return wtx.Set(key, spentMarker)
}

// IsSpent reports whether the record for nullifierHash exists.
func (r *Registry) IsSpent(reader db.Reader, poolID []byte, nullifierHash *big.Int) (bool, error) {
	_, err := reader.Get(r.Key(poolID, nullifierHash))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("read nullifier record: %w", err)
}
