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

// JoinSplitRequest carries a two-in two-out join-split: both input notes are
// spent and both output commitments are inserted, with an optional public
// amount entering or leaving the pool.
type JoinSplitRequest struct {
	PoolID            []byte
	Root              *big.Int
	InputNullifiers   [2]*big.Int
	OutputCommitments [2]*big.Int
	PublicAmount      *big.Int
	Relayer           []byte // 32-byte address, may be nil
	RelayerFee        *big.Int
	Proof             []byte
}

// JoinSplit verifies the proof, marks both input nullifiers spent and
// inserts both output commitments, atomically.
func (e *Engine) JoinSplit(req *JoinSplitRequest) (*storage.Receipt, error) {
	p, tr, err := e.loadPool(req.PoolID)
	if err != nil {
		return nil, err
	}
	if req.Root == nil {
		return nil, fmt.Errorf("%w: missing root", types.ErrValidation)
	}
	for i, n := range req.InputNullifiers {
		if n == nil || n.Sign() == 0 {
			return nil, fmt.Errorf("%w: missing input nullifier %d", types.ErrValidation, i)
		}
		if err := checkOptional(fmt.Sprintf("input nullifier %d", i), n); err != nil {
			return nil, err
		}
	}
	if req.InputNullifiers[0].Cmp(req.InputNullifiers[1]) == 0 {
		return nil, fmt.Errorf("%w: duplicate input nullifier", types.ErrValidation)
	}
	for i, c := range req.OutputCommitments {
		if c == nil || c.Sign() == 0 {
			return nil, fmt.Errorf("%w: missing output commitment %d", types.ErrValidation, i)
		}
		if err := checkOptional(fmt.Sprintf("output commitment %d", i), c); err != nil {
			return nil, err
		}
	}
	if err := checkOptional("public amount", req.PublicAmount); err != nil {
		return nil, err
	}
	fee := orZero(req.RelayerFee)
	if err := checkOptional("relayer fee", fee); err != nil {
		return nil, err
	}
	relayer := [32]byte{}
	if len(req.Relayer) > 0 {
		if relayer, err = statement.AddressToScalar(req.Relayer); err != nil {
			return nil, fmt.Errorf("relayer: %w", err)
		}
	}

	inputs := statement.JoinSplit{
		Root:              req.Root,
		AssetID:           new(big.Int).SetBytes(p.AssetID),
		InputNullifiers:   req.InputNullifiers,
		OutputCommitments: req.OutputCommitments,
		PublicAmount:      orZero(req.PublicAmount),
		Relayer:           statement.FieldElement(relayer),
		RelayerFee:        fee,
	}.Serialize()
	vk, err := e.verificationKey(types.ProofTypeJoinSplit)
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
	nullifiers := make([]types.HexBytes, 0, 2)
	for _, n := range req.InputNullifiers {
		if err := e.registry.MarkSpent(wtx, p.ID, n); err != nil {
			wtx.Discard()
			return nil, err
		}
		nullifiers = append(nullifiers, vcrypto.BigToFixedBytes(n))
	}
	leafIndexes := make([]uint64, 0, 2)
	for _, c := range req.OutputCommitments {
		index, err := tr.Insert(wtx, c)
		if err != nil {
			wtx.Discard()
			return nil, err
		}
		leafIndexes = append(leafIndexes, index)
	}
	root, err := tr.Root(wtx)
	if err != nil {
		wtx.Discard()
		return nil, err
	}
	receipt := &storage.Receipt{
		PoolID:          p.ID,
		Operation:       string(types.ProofTypeJoinSplit),
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

	log.Debugw("join-split accepted", "pool", p.ID.String(),
		"receipt", receipt.ID.String())
	return receipt, nil
}
