package zktest

import (
	"fmt"
	"math/big"

	"github.com/veilpool/veilpool/crypto/hash/poseidon"
)

// Mirror is an in-memory replica of a pool's commitment tree that keeps all
// leaves, the way the off-ledger client does. Tests use it to predict roots
// and build authentication paths without touching the engine's persistent
// tree. It must hash with the same Poseidon instances and zeros table or its
// roots diverge.
type Mirror struct {
	depth  int
	zeros  []*big.Int
	leaves []*big.Int
}

// NewMirror creates an empty mirror of the given depth.
func NewMirror(depth int) (*Mirror, error) {
	zeros, err := poseidon.Zeros(depth)
	if err != nil {
		return nil, err
	}
	return &Mirror{depth: depth, zeros: zeros}, nil
}

// Append adds a leaf at the next index.
func (m *Mirror) Append(leaf *big.Int) error {
	if uint64(len(m.leaves)) >= 1<<uint(m.depth) {
		return fmt.Errorf("mirror tree is full")
	}
	m.leaves = append(m.leaves, new(big.Int).Set(leaf))
	return nil
}

// NextIndex returns the index the next appended leaf will take.
func (m *Mirror) NextIndex() uint64 {
	return uint64(len(m.leaves))
}

// Root recomputes the full Poseidon-Merkle root over all leaves padded with
// the zeros table.
func (m *Mirror) Root() (*big.Int, error) {
	level := make([]*big.Int, 1<<uint(m.depth))
	for i := range level {
		if i < len(m.leaves) {
			level[i] = m.leaves[i]
		} else {
			level[i] = m.zeros[0]
		}
	}
	for d := 0; d < m.depth; d++ {
		next := make([]*big.Int, len(level)/2)
		for i := range next {
			h, err := poseidon.Hash2(level[2*i], level[2*i+1])
			if err != nil {
				return nil, err
			}
			next[i] = h
		}
		level = next
	}
	return level[0], nil
}

// Path returns the authentication path (sibling per level, leaf level first)
// for the leaf at index.
func (m *Mirror) Path(index uint64) ([]*big.Int, error) {
	if index >= uint64(len(m.leaves)) {
		return nil, fmt.Errorf("leaf %d not in mirror", index)
	}
	level := make([]*big.Int, 1<<uint(m.depth))
	for i := range level {
		if i < len(m.leaves) {
			level[i] = m.leaves[i]
		} else {
			level[i] = m.zeros[0]
		}
	}
	path := make([]*big.Int, m.depth)
	idx := index
	for d := 0; d < m.depth; d++ {
		path[d] = level[idx^1]
		next := make([]*big.Int, len(level)/2)
		for i := range next {
			h, err := poseidon.Hash2(level[2*i], level[2*i+1])
			if err != nil {
				return nil, err
			}
			next[i] = h
		}
		level = next
		idx >>= 1
	}
	return path, nil
}
