package poseidon

import (
	"fmt"
	"math/big"
)

// Zeros returns the empty-subtree hash table for a tree of the given depth:
// zeros[0] = 0 and zeros[i] = Poseidon(zeros[i-1], zeros[i-1]). The slice has
// depth+1 entries, zeros[depth] being the root of a fully empty tree.
//
// The table is derived, never configured: the circuit toolchain and the
// client mirror compute the same values from the same rule.
func Zeros(depth int) ([]*big.Int, error) {
	if depth < 1 {
		return nil, fmt.Errorf("invalid tree depth %d", depth)
	}
	zeros := make([]*big.Int, depth+1)
	zeros[0] = big.NewInt(0)
	for i := 1; i <= depth; i++ {
		h, err := Hash2(zeros[i-1], zeros[i-1])
		if err != nil {
			return nil, fmt.Errorf("zeros table level %d: %w", i, err)
		}
		zeros[i] = h
	}
	return zeros, nil
}
