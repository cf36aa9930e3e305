package storage

import (
	"errors"
	"fmt"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// StoreReceipt writes a receipt within the caller's transaction, so it only
// becomes visible if the whole operation commits. The receipt ID is the
// truncated sha256 of the encoded receipt with a zeroed ID field.
func (s *Storage) StoreReceipt(wtx db.WriteTx, r *Receipt) error {
	if r == nil {
		return fmt.Errorf("nil receipt")
	}
	r.ID = nil
	data, err := encodeArtifact(r)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}
	r.ID = hashKey(data)
	data, err = encodeArtifact(r)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}
	rTx := prefixeddb.NewPrefixedWriteTx(wtx, receiptPrefix)
	return rTx.Set(r.ID, data)
}

// Receipt retrieves a receipt by ID. Returns ErrNotFound if it does not
// exist.
func (s *Storage) Receipt(id []byte) (*Receipt, error) {
	pr := prefixeddb.NewPrefixedReader(s.db, receiptPrefix)
	data, err := pr.Get(id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r := &Receipt{}
	if err := decodeArtifact(data, r); err != nil {
		return nil, err
	}
	return r, nil
}
