// Package tree implements the pool's append-only commitment tree: O(depth)
// insertion through a left-sibling cache, a derived empty-subtree table and a
// bounded ring of recent roots. Leaves themselves are never stored; the
// off-ledger client mirror keeps them and rebuilds authentication paths.
//
// All reads and writes go through the caller's database handle so a whole
// pool operation (tree update, nullifier records, receipt) commits or aborts
// as one transaction.
package tree

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/vocdoni/arbo"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/veilpool/veilpool/crypto/bn254"
	"github.com/veilpool/veilpool/crypto/hash/poseidon"
	"github.com/veilpool/veilpool/types"
)

var (
	keyNextIndex = []byte("ni")
	keyRoot      = []byte("root")
	keyHistSeq   = []byte("hseq")

	subtreePrefix = []byte("fs/")
	historyPrefix = []byte("rh/")
)

// treePrefix namespaces tree state under the pool's keyspace.
var treePrefix = []byte("t/")

// Tree is a handle on one pool's commitment tree. It holds only derived,
// immutable data (depth, window, zeros table, key prefix); all mutable state
// lives in the database.
type Tree struct {
	prefix []byte
	depth  int
	window int
	zeros  []*big.Int
}

// New returns a handle on the commitment tree of the given pool. The depth
// and root-history window are fixed at pool creation and must match on every
// subsequent call.
func New(poolID []byte, depth, window int) (*Tree, error) {
	if depth < 1 || depth > types.MaxTreeDepth {
		return nil, fmt.Errorf("%w: tree depth %d out of range [1, %d]",
			types.ErrValidation, depth, types.MaxTreeDepth)
	}
	if window < 1 {
		return nil, fmt.Errorf("%w: root history window must be positive", types.ErrValidation)
	}
	zeros, err := poseidon.Zeros(depth)
	if err != nil {
		return nil, err
	}
	return &Tree{
		prefix: append(append([]byte{}, treePrefix...), poolID...),
		depth:  depth,
		window: window,
		zeros:  zeros,
	}, nil
}

// Depth returns the number of levels of the tree.
func (t *Tree) Depth() int { return t.depth }

// Window returns the root-history window size.
func (t *Tree) Window() int { return t.window }

// MaxLeaves returns the leaf capacity, 2^depth.
func (t *Tree) MaxLeaves() uint64 { return 1 << uint(t.depth) }

// Init writes the empty-tree state: nextIndex 0 and the all-zeros root.
func (t *Tree) Init(wtx db.WriteTx) error {
	ptx := prefixeddb.NewPrefixedWriteTx(wtx, t.prefix)
	if err := ptx.Set(keyNextIndex, encodeUint64(0)); err != nil {
		return err
	}
	if err := ptx.Set(keyHistSeq, encodeUint64(0)); err != nil {
		return err
	}
	return ptx.Set(keyRoot, arbo.BigIntToBytes(32, t.zeros[t.depth]))
}

// Insert appends a leaf and returns its index. It fails with a state
// conflict once nextIndex reaches 2^depth. The previous root is pushed into
// the history ring before the new root is written.
func (t *Tree) Insert(wtx db.WriteTx, leaf *big.Int) (uint64, error) {
	if leaf == nil || leaf.Sign() < 0 || leaf.Cmp(bn254.ScalarModulus()) >= 0 {
		return 0, fmt.Errorf("%w: leaf is not a canonical field element", types.ErrValidation)
	}
	ptx := prefixeddb.NewPrefixedWriteTx(wtx, t.prefix)

	index, err := readUint64(ptx, keyNextIndex)
	if err != nil {
		return 0, fmt.Errorf("read next index: %w", err)
	}
	if index >= t.MaxLeaves() {
		return 0, fmt.Errorf("%w: tree is full (%d leaves)", types.ErrStateConflict, t.MaxLeaves())
	}

	current := new(big.Int).Set(leaf)
	idx := index
	for level := 0; level < t.depth; level++ {
		if idx&1 == 0 {
			// left child: cache it and pair with the empty right
			// sibling of this level
			if err := ptx.Set(subtreeKey(level), arbo.BigIntToBytes(32, current)); err != nil {
				return 0, err
			}
			if current, err = poseidon.Hash2(current, t.zeros[level]); err != nil {
				return 0, err
			}
		} else {
			// right child: combine with the cached left sibling
			left, err := readBigInt(ptx, subtreeKey(level))
			if err != nil {
				return 0, fmt.Errorf("read filled subtree %d: %w", level, err)
			}
			if current, err = poseidon.Hash2(left, current); err != nil {
				return 0, err
			}
		}
		idx >>= 1
	}

	// rotate the previous root into the history ring
	prevRoot, err := readBigInt(ptx, keyRoot)
	if err != nil {
		return 0, fmt.Errorf("read current root: %w", err)
	}
	seq, err := readUint64(ptx, keyHistSeq)
	if err != nil {
		return 0, fmt.Errorf("read history sequence: %w", err)
	}
	if err := ptx.Set(historyKey(seq%uint64(t.window)), arbo.BigIntToBytes(32, prevRoot)); err != nil {
		return 0, err
	}
	if err := ptx.Set(keyHistSeq, encodeUint64(seq+1)); err != nil {
		return 0, err
	}

	if err := ptx.Set(keyRoot, arbo.BigIntToBytes(32, current)); err != nil {
		return 0, err
	}
	if err := ptx.Set(keyNextIndex, encodeUint64(index+1)); err != nil {
		return 0, err
	}
	return index, nil
}

// Root returns the current root.
func (t *Tree) Root(r db.Reader) (*big.Int, error) {
	return readBigInt(prefixeddb.NewPrefixedReader(r, t.prefix), keyRoot)
}

// NextIndex returns the index the next inserted leaf will take.
func (t *Tree) NextIndex(r db.Reader) (uint64, error) {
	return readUint64(prefixeddb.NewPrefixedReader(r, t.prefix), keyNextIndex)
}

// IsKnownRoot reports whether root is the current root or one of the last
// `window` recorded roots. This bounds how stale a submitted proof's
// referenced root may be.
func (t *Tree) IsKnownRoot(r db.Reader, root *big.Int) (bool, error) {
	if root == nil || root.Sign() == 0 {
		return false, nil
	}
	pr := prefixeddb.NewPrefixedReader(r, t.prefix)
	current, err := readBigInt(pr, keyRoot)
	if err != nil {
		return false, err
	}
	if current.Cmp(root) == 0 {
		return true, nil
	}
	seq, err := readUint64(pr, keyHistSeq)
	if err != nil {
		return false, err
	}
	entries := seq
	if entries > uint64(t.window) {
		entries = uint64(t.window)
	}
	for i := uint64(0); i < entries; i++ {
		slot := (seq - 1 - i) % uint64(t.window)
		h, err := readBigInt(pr, historyKey(slot))
		if err != nil {
			return false, err
		}
		if h.Cmp(root) == 0 {
			return true, nil
		}
	}
	return false, nil
}

func subtreeKey(level int) []byte {
	return append(append([]byte{}, subtreePrefix...), byte(level))
}

func historyKey(slot uint64) []byte {
	return append(append([]byte{}, historyPrefix...), encodeUint64(slot)...)
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

type getter interface {
	Get(key []byte) ([]byte, error)
}

func readUint64(r getter, key []byte) (uint64, error) {
	data, err := r.Get(key)
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid uint64 encoding of %d bytes", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

func readBigInt(r getter, key []byte) (*big.Int, error) {
	data, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	return arbo.BytesToBigInt(data), nil
}
