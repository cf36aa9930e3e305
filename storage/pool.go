package storage

import (
	"fmt"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// Pool retrieves the pool record from the storage. It returns ErrNotFound if
// the pool does not exist.
func (s *Storage) Pool(poolID []byte) (*Pool, error) {
	p := &Pool{}
	if err := s.getArtifact(poolPrefix, poolID, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetPool stores a pool record within the caller's transaction, so pool
// creation commits together with the tree initialization. A pool is created
// exactly once; overwriting an existing record is rejected.
func (s *Storage) SetPool(wtx db.WriteTx, p *Pool) error {
	if p == nil {
		return fmt.Errorf("nil pool record")
	}
	if _, err := s.Pool(p.ID); err == nil {
		return fmt.Errorf("pool %x already exists", p.ID)
	}
	val, err := encodeArtifact(p)
	if err != nil {
		return err
	}
	pTx := prefixeddb.NewPrefixedWriteTx(wtx, poolPrefix)
	return pTx.Set(p.ID, val)
}

// ListPools returns the IDs of all stored pools.
func (s *Storage) ListPools() ([][]byte, error) {
	return s.listArtifactKeys(poolPrefix)
}
