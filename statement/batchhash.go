package statement

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	vcrypto "github.com/veilpool/veilpool/crypto"
	"github.com/veilpool/veilpool/types"
)

// CommitmentsHash computes the content hash binding a batch-insertion proof
// to the pending buffer: SHA-256 over all maxBatch 32-byte commitment slots
// (the first batchSize active, the rest required zero), with the big-endian
// digest shifted right by 3 bits to land below the scalar field modulus.
//
// The shift-by-3 rule is the single canonical reduction; both the engine and
// the fixture producer call this function, so there is no second
// implementation to drift from.
func CommitmentsHash(slots []*big.Int, batchSize, maxBatch int) (*big.Int, error) {
	if batchSize <= 0 || batchSize > maxBatch {
		return nil, fmt.Errorf("%w: batch size %d out of range (0, %d]",
			types.ErrValidation, batchSize, maxBatch)
	}
	if len(slots) != maxBatch {
		return nil, fmt.Errorf("%w: expected %d commitment slots, got %d",
			types.ErrValidation, maxBatch, len(slots))
	}
	h := sha256.New()
	for i, slot := range slots {
		if i >= batchSize && slot.Sign() != 0 {
			return nil, fmt.Errorf("%w: inactive slot %d is not zero-padded",
				types.ErrValidation, i)
		}
		h.Write(vcrypto.BigToFixedBytes(slot))
	}
	digest := h.Sum(nil)
	return new(big.Int).Rsh(new(big.Int).SetBytes(digest), 3), nil
}
