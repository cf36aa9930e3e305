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

// BatchRequest carries a batch insertion for a batched pool: a proof that
// appending the first BatchSize pending commitments to the tree yields
// NewRoot.
type BatchRequest struct {
	PoolID    []byte
	NewRoot   *big.Int
	BatchSize int
	Proof     []byte
}

// ProcessBatch drains the first BatchSize queued commitments into the tree.
// The proof binds the exact queue contents through the commitments hash and
// the exact tree state through old root and start index, so a queue or tree
// that moved since the proof was built fails verification rather than
// inserting the wrong leaves.
func (e *Engine) ProcessBatch(req *BatchRequest) (*storage.Receipt, error) {
	p, tr, err := e.loadPool(req.PoolID)
	if err != nil {
		return nil, err
	}
	if !p.Batched {
		return nil, fmt.Errorf("%w: pool does not use batched insertion", types.ErrValidation)
	}
	if req.BatchSize <= 0 || req.BatchSize > types.MaxBatchSize {
		return nil, fmt.Errorf("%w: batch size %d out of range (0, %d]",
			types.ErrValidation, req.BatchSize, types.MaxBatchSize)
	}
	if req.NewRoot == nil {
		return nil, fmt.Errorf("%w: missing new root", types.ErrValidation)
	}
	if err := checkOptional("new root", req.NewRoot); err != nil {
		return nil, err
	}
	vk, err := e.verificationKey(types.ProofTypeBatch)
	if err != nil {
		return nil, err
	}

	lock := e.poolLock(p.ID)
	lock.Lock()
	defer lock.Unlock()

	pending, err := e.stg.ListPending(p.ID, req.BatchSize)
	if err != nil {
		return nil, err
	}
	if len(pending) < req.BatchSize {
		return nil, fmt.Errorf("%w: only %d commitments pending, batch needs %d",
			types.ErrStateConflict, len(pending), req.BatchSize)
	}

	slots := make([]*big.Int, types.MaxBatchSize)
	for i := range slots {
		slots[i] = big.NewInt(0)
		if i < req.BatchSize {
			slots[i] = new(big.Int).SetBytes(pending[i].Commitment)
		}
	}
	commitmentsHash, err := statement.CommitmentsHash(slots, req.BatchSize, types.MaxBatchSize)
	if err != nil {
		return nil, err
	}
	oldRoot, err := tr.Root(e.stg.Database())
	if err != nil {
		return nil, err
	}
	startIndex, err := tr.NextIndex(e.stg.Database())
	if err != nil {
		return nil, err
	}
	inputs := statement.BatchInsert{
		OldRoot:         oldRoot,
		NewRoot:         req.NewRoot,
		StartIndex:      new(big.Int).SetUint64(startIndex),
		BatchSize:       big.NewInt(int64(req.BatchSize)),
		CommitmentsHash: commitmentsHash,
	}.Serialize()
	if err := verifier.Verify(e.backend, vk, inputs, req.Proof); err != nil {
		return nil, err
	}

	wtx := e.stg.Database().WriteTx()
	leafIndexes := make([]uint64, 0, req.BatchSize)
	for i := 0; i < req.BatchSize; i++ {
		index, err := tr.Insert(wtx, slots[i])
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
	if root.Cmp(req.NewRoot) != 0 {
		wtx.Discard()
		return nil, fmt.Errorf("%w: proven root does not match the inserted batch",
			types.ErrProofVerificationFailed)
	}
	if err := e.stg.DeletePending(wtx, p.ID, pending); err != nil {
		wtx.Discard()
		return nil, err
	}
	receipt := &storage.Receipt{
		PoolID:      p.ID,
		Operation:   string(types.ProofTypeBatch),
		Root:        vcrypto.BigToFixedBytes(root),
		LeafIndexes: leafIndexes,
		Timestamp:   now(),
	}
	if err := e.stg.StoreReceipt(wtx, receipt); err != nil {
		wtx.Discard()
		return nil, err
	}
	if err := wtx.Commit(); err != nil {
		return nil, err
	}

	log.Infow("batch processed", "pool", p.ID.String(), "size", req.BatchSize,
		"startIndex", startIndex, "receipt", receipt.ID.String())
	return receipt, nil
}
