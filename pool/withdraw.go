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

// WithdrawRequest carries a withdraw operation. Schema v1 spends one note;
// schema v2 adds a second input nullifier and a change commitment re-hiding
// the unspent remainder.
type WithdrawRequest struct {
	PoolID        []byte
	SchemaVersion int
	Root          *big.Int
	NullifierHash *big.Int
	Recipient     []byte // 32-byte address
	Amount        *big.Int
	Relayer       []byte // 32-byte address, may be nil
	RelayerFee    *big.Int
	PublicData    *big.Int
	Proof         []byte

	// schema v2 only
	NullifierHash2   *big.Int
	ChangeCommitment *big.Int
}

// Withdraw verifies the withdraw proof against a known root, marks the
// nullifier(s) spent and, for schema v2, inserts the change commitment. The
// whole operation commits atomically or not at all.
func (e *Engine) Withdraw(req *WithdrawRequest) (*storage.Receipt, error) {
	p, tr, err := e.loadPool(req.PoolID)
	if err != nil {
		return nil, err
	}
	if err := checkAmount("amount", req.Amount); err != nil {
		return nil, err
	}
	fee := orZero(req.RelayerFee)
	if err := checkOptional("relayer fee", fee); err != nil {
		return nil, err
	}
	// fee is paid out of the withdrawn amount
	if fee.Cmp(req.Amount) > 0 {
		return nil, fmt.Errorf("%w: relayer fee exceeds amount", types.ErrValidation)
	}
	if req.NullifierHash == nil || req.NullifierHash.Sign() == 0 {
		return nil, fmt.Errorf("%w: missing nullifier hash", types.ErrValidation)
	}
	if err := checkOptional("nullifier hash", req.NullifierHash); err != nil {
		return nil, err
	}
	if req.Root == nil {
		return nil, fmt.Errorf("%w: missing root", types.ErrValidation)
	}
	if err := checkOptional("nullifier hash 2", req.NullifierHash2); err != nil {
		return nil, err
	}
	if err := checkOptional("change commitment", req.ChangeCommitment); err != nil {
		return nil, err
	}

	recipient, err := statement.AddressToScalar(req.Recipient)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	relayer := [32]byte{}
	if len(req.Relayer) > 0 {
		if relayer, err = statement.AddressToScalar(req.Relayer); err != nil {
			return nil, fmt.Errorf("relayer: %w", err)
		}
	}

	st := statement.Withdraw{
		SchemaVersion: req.SchemaVersion,
		Root:          req.Root,
		NullifierHash: req.NullifierHash,
		AssetID:       new(big.Int).SetBytes(p.AssetID),
		Recipient:     statement.FieldElement(recipient),
		Amount:        req.Amount,
		Relayer:       statement.FieldElement(relayer),
		RelayerFee:    fee,
		PublicData:    orZero(req.PublicData),

		NullifierHash2:   orZero(req.NullifierHash2),
		ChangeCommitment: orZero(req.ChangeCommitment),
	}
	inputs, err := st.Serialize()
	if err != nil {
		return nil, err
	}
	vk, err := e.verificationKey(types.ProofTypeWithdraw)
	if err != nil {
		return nil, err
	}

	lock := e.poolLock(p.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.requireKnownRoot(tr, req.Root); err != nil {
		return nil, err
	}
	if err := verifier.Verify(e.backend, vk, inputs, req.Proof); err != nil {
		return nil, err
	}

	wtx := e.stg.Database().WriteTx()
	if err := e.registry.MarkSpent(wtx, p.ID, req.NullifierHash); err != nil {
		wtx.Discard()
		return nil, err
	}
	nullifiers := []types.HexBytes{vcrypto.BigToFixedBytes(req.NullifierHash)}

	var leafIndexes []uint64
	if req.SchemaVersion == statement.SchemaV2 {
		if req.NullifierHash2 != nil && req.NullifierHash2.Sign() != 0 {
			if err := e.registry.MarkSpent(wtx, p.ID, req.NullifierHash2); err != nil {
				wtx.Discard()
				return nil, err
			}
			nullifiers = append(nullifiers, vcrypto.BigToFixedBytes(req.NullifierHash2))
		}
		if req.ChangeCommitment != nil && req.ChangeCommitment.Sign() != 0 {
			index, err := tr.Insert(wtx, req.ChangeCommitment)
			if err != nil {
				wtx.Discard()
				return nil, err
			}
			leafIndexes = append(leafIndexes, index)
		}
	}

	root, err := tr.Root(wtx)
	if err != nil {
		wtx.Discard()
		return nil, err
	}
	receipt := &storage.Receipt{
		PoolID:          p.ID,
		Operation:       string(types.ProofTypeWithdraw),
		Root:            vcrypto.BigToFixedBytes(root),
		NullifierHashes: nullifiers,
		LeafIndexes:     leafIndexes,
		Timestamp:       now(),
	}
	if err := e.stg.StoreReceipt(wtx, receipt); err != nil {
		wtx.Discard()
		return nil, err
	}
	if err := wtx.Commit(); err != nil {
		return nil, err
	}

	log.Debugw("withdraw accepted", "pool", p.ID.String(),
		"schema", req.SchemaVersion, "receipt", receipt.ID.String())
	return receipt, nil
}
