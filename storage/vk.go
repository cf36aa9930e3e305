package storage

import (
	"fmt"

	"github.com/veilpool/veilpool/crypto/bn254"
	"github.com/veilpool/veilpool/types"
	"github.com/veilpool/veilpool/verifier"
)

// Verification-key provisioning. A key record is initialized with its group
// elements, extended with IC chunks (the IC array of a large statement does
// not fit a single upload) and finally locked. Once locked the record is
// immutable and the engine will start using it; until then the engine
// refuses it with a configuration error.

// InitVerificationKey creates the key record for a proof type. It fails if a
// record already exists, locked or not.
func (s *Storage) InitVerificationKey(pt types.ProofType, vk *verifier.VerificationKey) error {
	if vk == nil {
		return fmt.Errorf("%w: nil verification key", types.ErrValidation)
	}
	if vk.Locked {
		return fmt.Errorf("%w: a key must be initialized unlocked", types.ErrValidation)
	}
	if _, err := s.rawVerificationKey(pt); err == nil {
		return fmt.Errorf("%w: verification key for %q already exists", types.ErrConfig, pt)
	}
	data, err := vk.Marshal()
	if err != nil {
		return err
	}
	return s.setArtifact(vkPrefix, []byte(pt), data)
}

// AppendICChunk appends encoded G1 points to the key's IC array. Rejected
// once the key is locked.
func (s *Storage) AppendICChunk(pt types.ProofType, points [][]byte) error {
	vk, err := s.rawVerificationKey(pt)
	if err != nil {
		return err
	}
	if vk.Locked {
		return fmt.Errorf("%w: verification key for %q is locked", types.ErrConfig, pt)
	}
	for i, raw := range points {
		p := new(bn254.G1)
		if err := p.SetBytes(raw); err != nil {
			return fmt.Errorf("ic chunk point %d: %w", i, err)
		}
		vk.IC = append(vk.IC, p)
	}
	data, err := vk.Marshal()
	if err != nil {
		return err
	}
	return s.setArtifact(vkPrefix, []byte(pt), data)
}

// LockVerificationKey makes the key immutable and usable by the engine.
func (s *Storage) LockVerificationKey(pt types.ProofType) error {
	vk, err := s.rawVerificationKey(pt)
	if err != nil {
		return err
	}
	if vk.Locked {
		return fmt.Errorf("%w: verification key for %q is already locked", types.ErrConfig, pt)
	}
	if len(vk.IC) < 1 {
		return fmt.Errorf("%w: cannot lock a key with an empty IC", types.ErrConfig)
	}
	vk.Locked = true
	data, err := vk.Marshal()
	if err != nil {
		return err
	}
	return s.setArtifact(vkPrefix, []byte(pt), data)
}

// VerificationKey loads the key for a proof type. The engine calls this on
// every proof check; the verifier itself rejects unlocked keys.
func (s *Storage) VerificationKey(pt types.ProofType) (*verifier.VerificationKey, error) {
	vk, err := s.rawVerificationKey(pt)
	if err != nil {
		return nil, err
	}
	return vk, nil
}

// SetVerificationKey stores an already complete, locked key in one step.
// Used by tests and by provisioning tooling that fits the whole key in one
// upload.
func (s *Storage) SetVerificationKey(pt types.ProofType, vk *verifier.VerificationKey) error {
	data, err := vk.Marshal()
	if err != nil {
		return err
	}
	return s.setArtifact(vkPrefix, []byte(pt), data)
}

func (s *Storage) rawVerificationKey(pt types.ProofType) (*verifier.VerificationKey, error) {
	var data []byte
	if err := s.getArtifact(vkPrefix, []byte(pt), &data); err != nil {
		return nil, err
	}
	vk := &verifier.VerificationKey{}
	if err := vk.Unmarshal(data); err != nil {
		return nil, err
	}
	return vk, nil
}
