// Package zktest produces real Groth16 material for tests: it compiles a
// small fixture circuit with gnark, runs the trusted setup and proves
// statements over arbitrary public-input vectors, then converts the gnark
// objects into the engine's wire encodings. The fixture circuit constrains
// the sum of the public inputs to a private witness, so it is satisfiable
// for any statement while keeping every public input bound by a constraint.
package zktest

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/veilpool/veilpool/crypto/bn254"
	"github.com/veilpool/veilpool/verifier"
)

type fixtureCircuit struct {
	Inputs []frontend.Variable `gnark:",public"`
	Sum    frontend.Variable
}

func (c *fixtureCircuit) Define(api frontend.API) error {
	sum := frontend.Variable(0)
	for _, in := range c.Inputs {
		sum = api.Add(sum, in)
	}
	api.AssertIsEqual(sum, c.Sum)
	return nil
}

// Fixture is a compiled circuit with its proving and verification keys.
type Fixture struct {
	numInputs int
	cs        constraint.ConstraintSystem
	pk        groth16.ProvingKey
	vk        groth16.VerifyingKey
}

// NewFixture compiles and sets up a fixture circuit with the given number of
// public inputs. Setup is not deterministic; keys from two fixtures do not
// verify each other's proofs.
func NewFixture(numInputs int) (*Fixture, error) {
	circuit := &fixtureCircuit{Inputs: make([]frontend.Variable, numInputs)}
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return nil, fmt.Errorf("compile fixture circuit: %w", err)
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("fixture setup: %w", err)
	}
	return &Fixture{numInputs: numInputs, cs: cs, pk: pk, vk: vk}, nil
}

// NumInputs returns the public-input count of the fixture statement.
func (f *Fixture) NumInputs() int { return f.numInputs }

// VerificationKey converts the gnark verifying key into the engine's locked
// VerificationKey form.
func (f *Fixture) VerificationKey() (*verifier.VerificationKey, error) {
	return VKFromGnark(f.vk)
}

// Prove generates a proof for the given public inputs and returns its
// 256-byte wire encoding.
func (f *Fixture) Prove(publicInputs []*big.Int) ([]byte, error) {
	if len(publicInputs) != f.numInputs {
		return nil, fmt.Errorf("fixture expects %d inputs, got %d", f.numInputs, len(publicInputs))
	}
	sum := new(big.Int)
	assignment := &fixtureCircuit{Inputs: make([]frontend.Variable, f.numInputs)}
	for i, in := range publicInputs {
		assignment.Inputs[i] = in
		sum.Add(sum, in)
	}
	assignment.Sum = sum.Mod(sum, ecc.BN254.ScalarField())

	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("fixture witness: %w", err)
	}
	proof, err := groth16.Prove(f.cs, f.pk, witness)
	if err != nil {
		return nil, fmt.Errorf("fixture prove: %w", err)
	}
	return ProofToWire(proof)
}

// VKFromGnark converts a gnark BN254 verifying key into the engine's
// representation, already locked.
func VKFromGnark(vk groth16.VerifyingKey) (*verifier.VerificationKey, error) {
	native, ok := vk.(*groth16bn254.VerifyingKey)
	if !ok {
		return nil, fmt.Errorf("unexpected verifying key type %T", vk)
	}
	out := &verifier.VerificationKey{
		AlphaG1: bn254.FromAffineG1(&native.G1.Alpha),
		BetaG2:  bn254.FromAffineG2(&native.G2.Beta),
		GammaG2: bn254.FromAffineG2(&native.G2.Gamma),
		DeltaG2: bn254.FromAffineG2(&native.G2.Delta),
		Locked:  true,
	}
	for i := range native.G1.K {
		out.IC = append(out.IC, bn254.FromAffineG1(&native.G1.K[i]))
	}
	return out, nil
}

// ProofToWire encodes a gnark BN254 proof as A(64) || B(128) || C(64).
func ProofToWire(proof groth16.Proof) ([]byte, error) {
	native, ok := proof.(*groth16bn254.Proof)
	if !ok {
		return nil, fmt.Errorf("unexpected proof type %T", proof)
	}
	p := &verifier.Proof{
		A: bn254.FromAffineG1(&native.Ar),
		B: bn254.FromAffineG2(&native.Bs),
		C: bn254.FromAffineG1(&native.Krs),
	}
	return p.Bytes(), nil
}
