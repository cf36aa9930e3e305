package bn254

import (
	"crypto/rand"
	"errors"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/veilpool/veilpool/types"
)

func randomScalar(t testing.TB) *big.Int {
	k, err := rand.Int(rand.Reader, ScalarModulus())
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func randomPoint(t testing.TB) *G1 {
	b, _ := NewBackend(BackendNative)
	return b.ScalarMulG1(G1Generator(), randomScalar(t))
}

func TestBackendsAgree(t *testing.T) {
	c := qt.New(t)
	native, err := NewBackend(BackendNative)
	c.Assert(err, qt.IsNil)
	generic, err := NewBackend(BackendGeneric)
	c.Assert(err, qt.IsNil)

	for i := 0; i < 16; i++ {
		p := randomPoint(t)
		q := randomPoint(t)
		k := randomScalar(t)

		c.Assert(generic.AddG1(p, q).Bytes(), qt.DeepEquals, native.AddG1(p, q).Bytes())
		c.Assert(generic.AddG1(p, p).Bytes(), qt.DeepEquals, native.AddG1(p, p).Bytes())
		c.Assert(generic.ScalarMulG1(p, k).Bytes(), qt.DeepEquals, native.ScalarMulG1(p, k).Bytes())
		c.Assert(generic.NegG1(p).Bytes(), qt.DeepEquals, native.NegG1(p).Bytes())
	}
}

func TestNegateProperties(t *testing.T) {
	c := qt.New(t)
	for _, bt := range []BackendType{BackendNative, BackendGeneric} {
		b, err := NewBackend(bt)
		c.Assert(err, qt.IsNil)

		// negate(identity) = identity
		id := &G1{}
		c.Assert(b.NegG1(id).IsIdentity(), qt.IsTrue)

		// add(P, negate(P)) = identity
		p := randomPoint(t)
		c.Assert(b.AddG1(p, b.NegG1(p)).IsIdentity(), qt.IsTrue)
	}
}

func TestScalarMulEdges(t *testing.T) {
	c := qt.New(t)
	for _, bt := range []BackendType{BackendNative, BackendGeneric} {
		b, err := NewBackend(bt)
		c.Assert(err, qt.IsNil)

		g := G1Generator()
		c.Assert(b.ScalarMulG1(g, big.NewInt(0)).IsIdentity(), qt.IsTrue)
		c.Assert(b.ScalarMulG1(g, big.NewInt(1)).Equal(g), qt.IsTrue)
		// order * G = identity
		c.Assert(b.ScalarMulG1(g, ScalarModulus()).IsIdentity(), qt.IsTrue)
	}
}

func TestG1EncodingRoundTrip(t *testing.T) {
	c := qt.New(t)
	p := randomPoint(t)
	buf := p.Bytes()
	c.Assert(buf, qt.HasLen, G1Size)

	var q G1
	c.Assert(q.SetBytes(buf), qt.IsNil)
	c.Assert(q.Equal(p), qt.IsTrue)

	// identity round-trips as all zeros
	var id G1
	c.Assert(id.SetBytes(make([]byte, G1Size)), qt.IsNil)
	c.Assert(id.IsIdentity(), qt.IsTrue)
	c.Assert(id.Bytes(), qt.DeepEquals, make([]byte, G1Size))
}

func TestG2EncodingRoundTrip(t *testing.T) {
	c := qt.New(t)
	g := G2Generator()
	buf := g.Bytes()
	c.Assert(buf, qt.HasLen, G2Size)

	var q G2
	c.Assert(q.SetBytes(buf), qt.IsNil)
	c.Assert(q.Equal(g), qt.IsTrue)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	c := qt.New(t)

	// wrong length
	var p G1
	err := p.SetBytes([]byte{0x01})
	c.Assert(errors.Is(err, types.ErrCryptography), qt.IsTrue)

	// not on curve: x=1, y=1
	buf := make([]byte, G1Size)
	buf[31] = 1
	buf[63] = 1
	err = p.SetBytes(buf)
	c.Assert(errors.Is(err, types.ErrCryptography), qt.IsTrue)

	// coordinate above the base field modulus
	mod := BaseModulus().Bytes()
	buf = make([]byte, G1Size)
	copy(buf[:32], mod)
	err = p.SetBytes(buf)
	c.Assert(errors.Is(err, types.ErrCryptography), qt.IsTrue)

	var g2 G2
	err = g2.SetBytes(make([]byte, 10))
	c.Assert(errors.Is(err, types.ErrCryptography), qt.IsTrue)
}

func TestPairingCheckGenerator(t *testing.T) {
	c := qt.New(t)
	b, err := NewBackend(BackendNative)
	c.Assert(err, qt.IsNil)

	g1 := G1Generator()
	g2 := G2Generator()
	neg := b.NegG1(g1)
	id1 := &G1{}

	// e(-G1,G2) * e(G1,G2) * e(0,G2) * e(0,G2) = 1
	ok, err := b.PairingCheck(
		[PairingPairs]*G1{neg, g1, id1, id1},
		[PairingPairs]*G2{g2, g2, g2, g2},
	)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	// e(G1,G2)^2 != 1
	ok, err = b.PairingCheck(
		[PairingPairs]*G1{g1, g1, id1, id1},
		[PairingPairs]*G2{g2, g2, g2, g2},
	)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}
