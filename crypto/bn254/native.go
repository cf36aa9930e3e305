package bn254

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/veilpool/veilpool/types"
)

// nativeBackend delegates to gnark-crypto, which carries per-architecture
// assembly for field multiplication and the pairing.
type nativeBackend struct{}

func (nativeBackend) AddG1(p, q *G1) *G1 {
	var r G1
	r.inner.Add(&p.inner, &q.inner)
	return &r
}

func (nativeBackend) ScalarMulG1(p *G1, k *big.Int) *G1 {
	var r G1
	r.inner.ScalarMultiplication(&p.inner, k)
	return &r
}

func (nativeBackend) NegG1(p *G1) *G1 {
	var r G1
	r.inner.Neg(&p.inner)
	return &r
}

func (nativeBackend) PairingCheck(g1 [PairingPairs]*G1, g2 [PairingPairs]*G2) (bool, error) {
	a := make([]bn254.G1Affine, PairingPairs)
	b := make([]bn254.G2Affine, PairingPairs)
	for i := 0; i < PairingPairs; i++ {
		a[i] = g1[i].inner
		b[i] = g2[i].inner
	}
	ok, err := bn254.PairingCheck(a, b)
	if err != nil {
		return false, fmt.Errorf("%w: pairing check: %v", types.ErrCryptography, err)
	}
	return ok, nil
}
