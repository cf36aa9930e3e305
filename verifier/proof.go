package verifier

import (
	"fmt"

	"github.com/veilpool/veilpool/crypto/bn254"
	"github.com/veilpool/veilpool/types"
)

// Proof is a decoded Groth16 proof.
type Proof struct {
	A *bn254.G1
	B *bn254.G2
	C *bn254.G1
}

// ParseProof decodes the fixed 256-byte wire form A(64) || B(128) || C(64).
// A wrong length is a validation error; undecodable points are cryptography
// errors.
func ParseProof(data []byte) (*Proof, error) {
	if len(data) != types.ProofSize {
		return nil, fmt.Errorf("%w: proof must be %d bytes, got %d",
			types.ErrValidation, types.ProofSize, len(data))
	}
	p := &Proof{
		A: new(bn254.G1),
		B: new(bn254.G2),
		C: new(bn254.G1),
	}
	if err := p.A.SetBytes(data[0:64]); err != nil {
		return nil, fmt.Errorf("proof A: %w", err)
	}
	if err := p.B.SetBytes(data[64:192]); err != nil {
		return nil, fmt.Errorf("proof B: %w", err)
	}
	if err := p.C.SetBytes(data[192:256]); err != nil {
		return nil, fmt.Errorf("proof C: %w", err)
	}
	return p, nil
}

// Bytes encodes the proof back to its 256-byte wire form.
func (p *Proof) Bytes() []byte {
	buf := make([]byte, 0, types.ProofSize)
	buf = append(buf, p.A.Bytes()...)
	buf = append(buf, p.B.Bytes()...)
	buf = append(buf, p.C.Bytes()...)
	return buf
}
