package verifier

import (
	"fmt"
	"math/big"

	"github.com/veilpool/veilpool/crypto/bn254"
	"github.com/veilpool/veilpool/types"
)

// Verify checks a 256-byte proof against the public inputs under vk.
// It returns nil iff the statement holds. The failure taxonomy is strict:
// a malformed proof or input is ErrCryptography/ErrValidation, an unlocked
// key is ErrConfig and a well-formed proof of a false statement is
// ErrProofVerificationFailed.
func Verify(backend bn254.Backend, vk *VerificationKey, publicInputs []*big.Int, proofData []byte) error {
	if vk == nil {
		return fmt.Errorf("%w: missing verification key", types.ErrConfig)
	}
	if !vk.Locked {
		return fmt.Errorf("%w: verification key is not locked", types.ErrConfig)
	}
	if len(vk.IC) < 1 {
		return fmt.Errorf("%w: verification key has empty IC", types.ErrConfig)
	}
	if len(publicInputs) != vk.NumPublicInputs() {
		return fmt.Errorf("%w: expected %d public inputs, got %d",
			types.ErrValidation, vk.NumPublicInputs(), len(publicInputs))
	}
	order := bn254.ScalarModulus()
	for i, in := range publicInputs {
		if in == nil || in.Sign() < 0 || in.Cmp(order) >= 0 {
			return fmt.Errorf("%w: public input %d is not a canonical field element",
				types.ErrValidation, i)
		}
	}

	proof, err := ParseProof(proofData)
	if err != nil {
		return err
	}

	// vk_x = IC[0] + sum_i inputs[i] * IC[i+1]
	vkx := vk.IC[0]
	for i, in := range publicInputs {
		vkx = backend.AddG1(vkx, backend.ScalarMulG1(vk.IC[i+1], in))
	}

	// e(-A, B) * e(alpha, beta) * e(vk_x, gamma) * e(C, delta) == 1
	ok, err := backend.PairingCheck(
		[bn254.PairingPairs]*bn254.G1{backend.NegG1(proof.A), vk.AlphaG1, vkx, proof.C},
		[bn254.PairingPairs]*bn254.G2{proof.B, vk.BetaG2, vk.GammaG2, vk.DeltaG2},
	)
	if err != nil {
		return err
	}
	if !ok {
		return types.ErrProofVerificationFailed
	}
	return nil
}
