package poseidon

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestCommitmentDeterministic(t *testing.T) {
	c := qt.New(t)
	cm1, err := Commitment(big.NewInt(12345), big.NewInt(67890), big.NewInt(1000000000), big.NewInt(0))
	c.Assert(err, qt.IsNil)
	cm2, err := Commitment(big.NewInt(12345), big.NewInt(67890), big.NewInt(1000000000), big.NewInt(0))
	c.Assert(err, qt.IsNil)
	c.Assert(cm1.Cmp(cm2), qt.Equals, 0)

	// any input change moves the commitment
	cm3, err := Commitment(big.NewInt(12345), big.NewInt(67890), big.NewInt(1000000001), big.NewInt(0))
	c.Assert(err, qt.IsNil)
	c.Assert(cm1.Cmp(cm3), qt.Not(qt.Equals), 0)
}

func TestNullifierHashBindsLeafIndex(t *testing.T) {
	c := qt.New(t)
	nh0, err := NullifierHash(big.NewInt(67890), big.NewInt(12345), 0)
	c.Assert(err, qt.IsNil)
	nh1, err := NullifierHash(big.NewInt(67890), big.NewInt(12345), 1)
	c.Assert(err, qt.IsNil)
	c.Assert(nh0.Cmp(nh1), qt.Not(qt.Equals), 0)

	// matches the two-step construction
	inner, err := Hash2(big.NewInt(67890), big.NewInt(12345))
	c.Assert(err, qt.IsNil)
	outer, err := Hash2(inner, big.NewInt(0))
	c.Assert(err, qt.IsNil)
	c.Assert(nh0.Cmp(outer), qt.Equals, 0)
}

func TestZerosTable(t *testing.T) {
	c := qt.New(t)
	zeros, err := Zeros(8)
	c.Assert(err, qt.IsNil)
	c.Assert(zeros, qt.HasLen, 9)
	c.Assert(zeros[0].Sign(), qt.Equals, 0)
	for i := 1; i <= 8; i++ {
		h, err := Hash2(zeros[i-1], zeros[i-1])
		c.Assert(err, qt.IsNil)
		c.Assert(zeros[i].Cmp(h), qt.Equals, 0)
	}

	_, err = Zeros(0)
	c.Assert(err, qt.IsNotNil)
}
