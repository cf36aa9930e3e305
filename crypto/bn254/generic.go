package bn254

import (
	"math/big"
)

// genericBackend implements the G1 group law with textbook affine
// short-Weierstrass formulas over math/big. It exists for portability and as
// an independent implementation to cross-test the native backend against.
// The pairing has a single implementation (gnark-crypto); reimplementing the
// Miller loop buys no extra assurance since both backends would share the
// tower-field code anyway, so PairingCheck delegates.
type genericBackend struct{}

func (genericBackend) AddG1(p, q *G1) *G1 {
	if p.IsIdentity() {
		r := *q
		return &r
	}
	if q.IsIdentity() {
		r := *p
		return &r
	}
	mod := BaseModulus()
	x1, y1 := coords(p)
	x2, y2 := coords(q)

	if x1.Cmp(x2) == 0 {
		// P + (-P) = identity
		sum := new(big.Int).Add(y1, y2)
		sum.Mod(sum, mod)
		if sum.Sign() == 0 {
			return &G1{}
		}
		return affineDouble(x1, y1, mod)
	}

	// lambda = (y2 - y1) / (x2 - x1)
	num := new(big.Int).Sub(y2, y1)
	den := new(big.Int).Sub(x2, x1)
	den.ModInverse(den, mod)
	lambda := num.Mul(num, den)
	lambda.Mod(lambda, mod)
	return affineApply(lambda, x1, y1, x2, mod)
}

func (b genericBackend) ScalarMulG1(p *G1, k *big.Int) *G1 {
	k = new(big.Int).Mod(k, ScalarModulus())
	if k.Sign() == 0 || p.IsIdentity() {
		return &G1{}
	}
	acc := &G1{}
	for i := k.BitLen() - 1; i >= 0; i-- {
		acc = b.AddG1(acc, acc)
		if k.Bit(i) == 1 {
			acc = b.AddG1(acc, p)
		}
	}
	return acc
}

func (genericBackend) NegG1(p *G1) *G1 {
	if p.IsIdentity() {
		return &G1{}
	}
	_, y := coords(p)
	var r G1
	r.inner.X.Set(&p.inner.X)
	if y.Sign() == 0 {
		// y = 0 stays 0; p - 0 = p would be a non-canonical encoding
		r.inner.Y.SetZero()
		return &r
	}
	ny := new(big.Int).Sub(BaseModulus(), y)
	r.inner.Y.SetBigInt(ny)
	return &r
}

func (genericBackend) PairingCheck(g1 [PairingPairs]*G1, g2 [PairingPairs]*G2) (bool, error) {
	return nativeBackend{}.PairingCheck(g1, g2)
}

// affineDouble computes 2*(x1,y1) with lambda = 3*x1^2 / 2*y1.
func affineDouble(x1, y1, mod *big.Int) *G1 {
	if y1.Sign() == 0 {
		return &G1{}
	}
	num := new(big.Int).Mul(x1, x1)
	num.Mul(num, big.NewInt(3))
	den := new(big.Int).Lsh(y1, 1)
	den.ModInverse(den, mod)
	lambda := num.Mul(num, den)
	lambda.Mod(lambda, mod)
	return affineApply(lambda, x1, y1, x1, mod)
}

// affineApply finishes a chord-or-tangent step:
// x3 = lambda^2 - x1 - x2, y3 = lambda*(x1 - x3) - y1.
func affineApply(lambda, x1, y1, x2, mod *big.Int) *G1 {
	x3 := new(big.Int).Mul(lambda, lambda)
	x3.Sub(x3, x1)
	x3.Sub(x3, x2)
	x3.Mod(x3, mod)

	y3 := new(big.Int).Sub(x1, x3)
	y3.Mul(y3, lambda)
	y3.Sub(y3, y1)
	y3.Mod(y3, mod)

	var r G1
	r.inner.X.SetBigInt(x3)
	r.inner.Y.SetBigInt(y3)
	return &r
}

func coords(p *G1) (x, y *big.Int) {
	return p.inner.X.BigInt(new(big.Int)), p.inner.Y.BigInt(new(big.Int))
}
