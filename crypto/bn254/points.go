// Package bn254 implements the curve arithmetic the proof verifier is built
// on: G1/G2 point decoding with strict subgroup checks, point addition,
// scalar multiplication, negation and the 4-pair product pairing check.
//
// Byte encodings are a hard wire contract shared with the circuit toolchain
// and the client library:
//   - G1: 64 bytes, x||y, big-endian field elements.
//   - G2: 128 bytes, x_imag||x_real||y_imag||y_real (imaginary first).
//
// The identity of either group encodes as all-zero bytes.
package bn254

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/veilpool/veilpool/types"
)

const (
	// G1Size is the byte length of an encoded G1 point.
	G1Size = 64
	// G2Size is the byte length of an encoded G2 point.
	G2Size = 128
)

// G1 is an affine G1 group element.
type G1 struct {
	inner bn254.G1Affine
}

// G2 is an affine G2 group element.
type G2 struct {
	inner bn254.G2Affine
}

// ScalarModulus returns the order of the groups (the scalar field modulus).
func ScalarModulus() *big.Int {
	return fr.Modulus()
}

// BaseModulus returns the coordinate field modulus.
func BaseModulus() *big.Int {
	return fp.Modulus()
}

// IsIdentity reports whether g is the point at infinity.
func (g *G1) IsIdentity() bool {
	return g.inner.IsInfinity()
}

// Equal reports whether g and other are the same point.
func (g *G1) Equal(other *G1) bool {
	return g.inner.Equal(&other.inner)
}

// Bytes returns the 64-byte x||y big-endian encoding of g. The identity
// encodes as 64 zero bytes.
func (g *G1) Bytes() []byte {
	buf := make([]byte, G1Size)
	if g.IsIdentity() {
		return buf
	}
	x := g.inner.X.Bytes()
	y := g.inner.Y.Bytes()
	copy(buf[:32], x[:])
	copy(buf[32:], y[:])
	return buf
}

// SetBytes decodes a 64-byte G1 encoding, rejecting coordinates outside the
// base field and points not on the curve.
func (g *G1) SetBytes(buf []byte) error {
	if len(buf) != G1Size {
		return fmt.Errorf("%w: G1 point must be %d bytes, got %d",
			types.ErrCryptography, G1Size, len(buf))
	}
	if allZero(buf) {
		g.inner.X.SetZero()
		g.inner.Y.SetZero()
		return nil
	}
	if err := g.inner.X.SetBytesCanonical(buf[:32]); err != nil {
		return fmt.Errorf("%w: G1 x coordinate: %v", types.ErrCryptography, err)
	}
	if err := g.inner.Y.SetBytesCanonical(buf[32:]); err != nil {
		return fmt.Errorf("%w: G1 y coordinate: %v", types.ErrCryptography, err)
	}
	if !g.inner.IsOnCurve() {
		return fmt.Errorf("%w: G1 point not on curve", types.ErrCryptography)
	}
	return nil
}

// IsIdentity reports whether g is the point at infinity.
func (g *G2) IsIdentity() bool {
	return g.inner.IsInfinity()
}

// Equal reports whether g and other are the same point.
func (g *G2) Equal(other *G2) bool {
	return g.inner.Equal(&other.inner)
}

// Bytes returns the 128-byte x_imag||x_real||y_imag||y_real encoding of g.
// The identity encodes as 128 zero bytes.
func (g *G2) Bytes() []byte {
	buf := make([]byte, G2Size)
	if g.IsIdentity() {
		return buf
	}
	xi := g.inner.X.A1.Bytes()
	xr := g.inner.X.A0.Bytes()
	yi := g.inner.Y.A1.Bytes()
	yr := g.inner.Y.A0.Bytes()
	copy(buf[0:32], xi[:])
	copy(buf[32:64], xr[:])
	copy(buf[64:96], yi[:])
	copy(buf[96:128], yr[:])
	return buf
}

// SetBytes decodes a 128-byte G2 encoding. Besides the curve equation it
// checks subgroup membership: G2 has points outside the prime-order subgroup
// and accepting one would let a malformed proof element pass undetected.
func (g *G2) SetBytes(buf []byte) error {
	if len(buf) != G2Size {
		return fmt.Errorf("%w: G2 point must be %d bytes, got %d",
			types.ErrCryptography, G2Size, len(buf))
	}
	if allZero(buf) {
		g.inner.X.SetZero()
		g.inner.Y.SetZero()
		return nil
	}
	if err := g.inner.X.A1.SetBytesCanonical(buf[0:32]); err != nil {
		return fmt.Errorf("%w: G2 x imaginary coordinate: %v", types.ErrCryptography, err)
	}
	if err := g.inner.X.A0.SetBytesCanonical(buf[32:64]); err != nil {
		return fmt.Errorf("%w: G2 x real coordinate: %v", types.ErrCryptography, err)
	}
	if err := g.inner.Y.A1.SetBytesCanonical(buf[64:96]); err != nil {
		return fmt.Errorf("%w: G2 y imaginary coordinate: %v", types.ErrCryptography, err)
	}
	if err := g.inner.Y.A0.SetBytesCanonical(buf[96:128]); err != nil {
		return fmt.Errorf("%w: G2 y real coordinate: %v", types.ErrCryptography, err)
	}
	if !g.inner.IsOnCurve() {
		return fmt.Errorf("%w: G2 point not on curve", types.ErrCryptography)
	}
	if !g.inner.IsInSubGroup() {
		return fmt.Errorf("%w: G2 point not in prime-order subgroup", types.ErrCryptography)
	}
	return nil
}

// G1Generator returns the canonical G1 generator.
func G1Generator() *G1 {
	_, _, g1, _ := bn254.Generators()
	return &G1{inner: g1}
}

// G2Generator returns the canonical G2 generator.
func G2Generator() *G2 {
	_, _, _, g2 := bn254.Generators()
	return &G2{inner: g2}
}

// FromAffineG1 wraps a gnark-crypto affine point.
func FromAffineG1(p *bn254.G1Affine) *G1 {
	return &G1{inner: *p}
}

// FromAffineG2 wraps a gnark-crypto affine point.
func FromAffineG2(p *bn254.G2Affine) *G2 {
	return &G2{inner: *p}
}

// Affine returns the underlying gnark-crypto point.
func (g *G1) Affine() *bn254.G1Affine { return &g.inner }

// Affine returns the underlying gnark-crypto point.
func (g *G2) Affine() *bn254.G2Affine { return &g.inner }

func allZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
