// Package verifier checks Groth16 proofs over BN254 against locked
// verification keys. It is written against the curve Backend interface so
// both the native and the generic arithmetic implementations verify
// identically.
package verifier

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/veilpool/veilpool/crypto/bn254"
	"github.com/veilpool/veilpool/types"
)

// VerificationKey holds the per-circuit public parameters. IC is the
// linear-combination basis for the public inputs: it has exactly one more
// element than the statement has inputs. A key verifies nothing until it is
// locked; provisioning tooling initializes it, appends IC in chunks and then
// locks it.
type VerificationKey struct {
	AlphaG1 *bn254.G1
	BetaG2  *bn254.G2
	GammaG2 *bn254.G2
	DeltaG2 *bn254.G2
	IC      []*bn254.G1
	Locked  bool
}

// NumPublicInputs returns the statement length the key expects.
func (vk *VerificationKey) NumPublicInputs() int {
	return len(vk.IC) - 1
}

// serializedVK is the CBOR storage form, all points in wire encoding.
type serializedVK struct {
	AlphaG1 types.HexBytes   `cbor:"alpha"`
	BetaG2  types.HexBytes   `cbor:"beta"`
	GammaG2 types.HexBytes   `cbor:"gamma"`
	DeltaG2 types.HexBytes   `cbor:"delta"`
	IC      []types.HexBytes `cbor:"ic"`
	Locked  bool             `cbor:"locked"`
}

// Marshal encodes the key for storage.
func (vk *VerificationKey) Marshal() ([]byte, error) {
	s := serializedVK{
		AlphaG1: vk.AlphaG1.Bytes(),
		BetaG2:  vk.BetaG2.Bytes(),
		GammaG2: vk.GammaG2.Bytes(),
		DeltaG2: vk.DeltaG2.Bytes(),
		Locked:  vk.Locked,
	}
	for _, ic := range vk.IC {
		s.IC = append(s.IC, ic.Bytes())
	}
	encOpts := cbor.CoreDetEncOptions()
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("encode verification key: %w", err)
	}
	return em.Marshal(s)
}

// Unmarshal decodes a stored key, re-validating every point.
func (vk *VerificationKey) Unmarshal(data []byte) error {
	var s serializedVK
	if err := cbor.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: decode verification key: %v", types.ErrValidation, err)
	}
	vk.AlphaG1 = new(bn254.G1)
	if err := vk.AlphaG1.SetBytes(s.AlphaG1); err != nil {
		return fmt.Errorf("alpha: %w", err)
	}
	vk.BetaG2 = new(bn254.G2)
	if err := vk.BetaG2.SetBytes(s.BetaG2); err != nil {
		return fmt.Errorf("beta: %w", err)
	}
	vk.GammaG2 = new(bn254.G2)
	if err := vk.GammaG2.SetBytes(s.GammaG2); err != nil {
		return fmt.Errorf("gamma: %w", err)
	}
	vk.DeltaG2 = new(bn254.G2)
	if err := vk.DeltaG2.SetBytes(s.DeltaG2); err != nil {
		return fmt.Errorf("delta: %w", err)
	}
	vk.IC = make([]*bn254.G1, len(s.IC))
	for i, raw := range s.IC {
		vk.IC[i] = new(bn254.G1)
		if err := vk.IC[i].SetBytes(raw); err != nil {
			return fmt.Errorf("ic[%d]: %w", i, err)
		}
	}
	vk.Locked = s.Locked
	return nil
}
