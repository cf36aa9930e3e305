package pool

import (
	"fmt"
	"math/big"
	"time"

	"go.vocdoni.io/dvote/log"

	vcrypto "github.com/veilpool/veilpool/crypto"
	"github.com/veilpool/veilpool/statement"
	"github.com/veilpool/veilpool/storage"
	"github.com/veilpool/veilpool/types"
	"github.com/veilpool/veilpool/verifier"
)

func now() time.Time {
	return time.Now().UTC()
}

// DepositRequest carries a deposit operation: a new note commitment, its
// public amount and a proof that the commitment is well formed for the
// pool's asset.
type DepositRequest struct {
	PoolID     []byte
	Commitment *big.Int
	Amount     *big.Int
	Proof      []byte
}

// Deposit verifies the deposit proof and adds the commitment to the pool:
// directly into the tree, or into the pending buffer when the pool runs in
// batched mode.
func (e *Engine) Deposit(req *DepositRequest) (*storage.Receipt, error) {
	p, tr, err := e.loadPool(req.PoolID)
	if err != nil {
		return nil, err
	}
	if err := checkAmount("amount", req.Amount); err != nil {
		return nil, err
	}
	if err := checkOptional("commitment", req.Commitment); err != nil {
		return nil, err
	}
	if req.Commitment == nil || req.Commitment.Sign() == 0 {
		return nil, fmt.Errorf("%w: missing commitment", types.ErrValidation)
	}

	vk, err := e.verificationKey(types.ProofTypeDeposit)
	if err != nil {
		return nil, err
	}
	inputs := statement.Deposit{
		Commitment: req.Commitment,
		Amount:     req.Amount,
		AssetID:    new(big.Int).SetBytes(p.AssetID),
	}.Serialize()
	if err := verifier.Verify(e.backend, vk, inputs, req.Proof); err != nil {
		return nil, err
	}

	lock := e.poolLock(p.ID)
	lock.Lock()
	defer lock.Unlock()

	wtx := e.stg.Database().WriteTx()
	receipt := &storage.Receipt{
		PoolID:    p.ID,
		Operation: string(types.ProofTypeDeposit),
		Timestamp: now(),
	}
	if p.Batched {
		seq, err := e.stg.PushPending(wtx, p.ID, vcrypto.BigToFixedBytes(req.Commitment))
		if err != nil {
			wtx.Discard()
			return nil, err
		}
		receipt.LeafIndexes = []uint64{seq}
	} else {
		index, err := tr.Insert(wtx, req.Commitment)
		if err != nil {
			wtx.Discard()
			return nil, err
		}
		receipt.LeafIndexes = []uint64{index}
		root, err := tr.Root(wtx)
		if err != nil {
			wtx.Discard()
			return nil, err
		}
		receipt.Root = vcrypto.BigToFixedBytes(root)
	}
	if err := e.stg.StoreReceipt(wtx, receipt); err != nil {
		wtx.Discard()
		return nil, err
	}
	if err := wtx.Commit(); err != nil {
		return nil, err
	}

	log.Debugw("deposit accepted", "pool", p.ID.String(),
		"batched", p.Batched, "receipt", receipt.ID.String())
	return receipt, nil
}
