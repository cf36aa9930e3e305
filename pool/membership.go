package pool

import (
	"fmt"
	"math/big"

	"go.vocdoni.io/dvote/log"

	vcrypto "github.com/veilpool/veilpool/crypto"
	"github.com/veilpool/veilpool/statement"
	"github.com/veilpool/veilpool/storage"
	"github.com/veilpool/veilpool/types"
	"github.com/veilpool/veilpool/verifier"
)

// MembershipRequest carries a balance-membership attestation: a proof that
// some note in the tree commits to at least Threshold of the pool's asset,
// without revealing which note or spending it.
type MembershipRequest struct {
	PoolID         []byte
	Root           *big.Int
	CommitmentHash *big.Int
	Threshold      *big.Int
	Proof          []byte
}

// Membership verifies a membership proof. It is read-only with respect to
// the tree and the nullifier registry; only a receipt is stored.
func (e *Engine) Membership(req *MembershipRequest) (*storage.Receipt, error) {
	p, tr, err := e.loadPool(req.PoolID)
	if err != nil {
		return nil, err
	}
	if req.Root == nil {
		return nil, fmt.Errorf("%w: missing root", types.ErrValidation)
	}
	if req.CommitmentHash == nil || req.CommitmentHash.Sign() == 0 {
		return nil, fmt.Errorf("%w: missing commitment hash", types.ErrValidation)
	}
	if err := checkOptional("commitment hash", req.CommitmentHash); err != nil {
		return nil, err
	}
	if err := checkAmount("threshold", req.Threshold); err != nil {
		return nil, err
	}

	inputs := statement.Membership{
		Root:           req.Root,
		CommitmentHash: req.CommitmentHash,
		Threshold:      req.Threshold,
		AssetID:        new(big.Int).SetBytes(p.AssetID),
	}.Serialize()
	vk, err := e.verificationKey(types.ProofTypeMembership)
	if err != nil {
		return nil, err
	}
	if err := e.requireKnownRoot(tr, req.Root); err != nil {
		return nil, err
	}
	if err := verifier.Verify(e.backend, vk, inputs, req.Proof); err != nil {
		return nil, err
	}

	wtx := e.stg.Database().WriteTx()
	receipt := &storage.Receipt{
		PoolID:    p.ID,
		Operation: string(types.ProofTypeMembership),
		Root:      vcrypto.BigToFixedBytes(req.Root),
		Timestamp: now(),
	}
	if err := e.stg.StoreReceipt(wtx, receipt); err != nil {
		wtx.Discard()
		return nil, err
	}
	if err := wtx.Commit(); err != nil {
		return nil, err
	}

	log.Debugw("membership attested", "pool", p.ID.String(),
		"receipt", receipt.ID.String())
	return receipt, nil
}
