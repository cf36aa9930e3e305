package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// Pending commitment queue, one FIFO per pool. Keys are the pool ID followed
// by a big-endian sequence number so iteration order is insertion order.

// PushPending queues a commitment for later batch insertion, within the
// caller's transaction.
func (s *Storage) PushPending(wtx db.WriteTx, poolID []byte, commitment []byte) (uint64, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	seqTx := prefixeddb.NewPrefixedWriteTx(wtx, pendingSeqPrefix)
	seq := uint64(0)
	if data, err := seqTx.Get(poolID); err == nil {
		seq = binary.BigEndian.Uint64(data)
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return 0, fmt.Errorf("read pending sequence: %w", err)
	}

	entry, err := encodeArtifact(&PendingCommitment{Sequence: seq, Commitment: commitment})
	if err != nil {
		return 0, err
	}
	qTx := prefixeddb.NewPrefixedWriteTx(wtx, pendingPrefix)
	if err := qTx.Set(pendingKey(poolID, seq), entry); err != nil {
		return 0, err
	}

	next := make([]byte, 8)
	binary.BigEndian.PutUint64(next, seq+1)
	if err := seqTx.Set(poolID, next); err != nil {
		return 0, err
	}
	return seq, nil
}

// ListPending returns up to max queued commitments in FIFO order.
func (s *Storage) ListPending(poolID []byte, max int) ([]*PendingCommitment, error) {
	pr := prefixeddb.NewPrefixedReader(s.db, pendingPrefix)
	var out []*PendingCommitment
	if err := pr.Iterate(poolID, func(_, v []byte) bool {
		pc := &PendingCommitment{}
		if err := decodeArtifact(v, pc); err != nil {
			return false
		}
		out = append(out, pc)
		return len(out) < max
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// DeletePending removes processed queue entries, within the caller's
// transaction.
func (s *Storage) DeletePending(wtx db.WriteTx, poolID []byte, entries []*PendingCommitment) error {
	qTx := prefixeddb.NewPrefixedWriteTx(wtx, pendingPrefix)
	for _, pc := range entries {
		if err := qTx.Delete(pendingKey(poolID, pc.Sequence)); err != nil {
			return err
		}
	}
	return nil
}

func pendingKey(poolID []byte, seq uint64) []byte {
	key := make([]byte, 0, len(poolID)+8)
	key = append(key, poolID...)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return append(key, buf...)
}
