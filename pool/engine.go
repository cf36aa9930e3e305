// Package pool implements the instruction state machine: deposit, withdraw,
// join-split, membership and batch insertion over one or more shielded
// pools. Every operation is a single synchronous computation that either
// fully commits (tree updated, nullifiers marked, receipt stored) or fully
// aborts with an error from the shared taxonomy; nothing is retried
// internally. Operations on the same pool are serialized by a per-pool
// mutex, standing in for the host scheduler's conflicting-write detection.
package pool

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"go.vocdoni.io/dvote/log"

	"github.com/veilpool/veilpool/crypto/bn254"
	"github.com/veilpool/veilpool/nullifier"
	"github.com/veilpool/veilpool/statement"
	"github.com/veilpool/veilpool/storage"
	"github.com/veilpool/veilpool/tree"
	"github.com/veilpool/veilpool/types"
	"github.com/veilpool/veilpool/verifier"
)

// Engine executes pool operations.
type Engine struct {
	stg      *storage.Storage
	registry *nullifier.Registry
	backend  bn254.Backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	trees map[string]*tree.Tree
}

// NewEngine creates an Engine on the given storage using the selected curve
// backend.
func NewEngine(stg *storage.Storage, backendType bn254.BackendType) (*Engine, error) {
	backend, err := bn254.NewBackend(backendType)
	if err != nil {
		return nil, err
	}
	return &Engine{
		stg:      stg,
		registry: nullifier.New(),
		backend:  backend,
		locks:    map[string]*sync.Mutex{},
		trees:    map[string]*tree.Tree{},
	}, nil
}

// poolLock returns the mutex serializing operations on poolID.
func (e *Engine) poolLock(poolID []byte) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[string(poolID)]
	if !ok {
		l = &sync.Mutex{}
		e.locks[string(poolID)] = l
	}
	return l
}

// poolTree returns the tree handle for a stored pool, building it on first
// use from the pool record's fixed parameters.
func (e *Engine) poolTree(p *storage.Pool) (*tree.Tree, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tr, ok := e.trees[string(p.ID)]; ok {
		return tr, nil
	}
	tr, err := tree.New(p.ID, p.Depth, p.Window)
	if err != nil {
		return nil, err
	}
	e.trees[string(p.ID)] = tr
	return tr, nil
}

// loadPool fetches a pool record, mapping a missing pool to a validation
// error.
func (e *Engine) loadPool(poolID []byte) (*storage.Pool, *tree.Tree, error) {
	p, err := e.stg.Pool(poolID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown pool %x", types.ErrValidation, poolID)
		}
		return nil, nil, err
	}
	tr, err := e.poolTree(p)
	if err != nil {
		return nil, nil, err
	}
	return p, tr, nil
}

// verificationKey loads the key for a proof type, mapping absence to a
// configuration error. The verifier itself still refuses unlocked keys.
func (e *Engine) verificationKey(pt types.ProofType) (*verifier.VerificationKey, error) {
	vk, err := e.stg.VerificationKey(pt)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: no verification key for %q", types.ErrConfig, pt)
		}
		return nil, err
	}
	return vk, nil
}

// requireKnownRoot checks the referenced root against the current root and
// the history window.
func (e *Engine) requireKnownRoot(tr *tree.Tree, root *big.Int) error {
	known, err := tr.IsKnownRoot(e.stg.Database(), root)
	if err != nil {
		return err
	}
	if !known {
		return fmt.Errorf("%w: root is outside the history window", types.ErrStateConflict)
	}
	return nil
}

// checkAmount validates an amount field element: positive and canonical.
func checkAmount(name string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 || amount.Cmp(bn254.ScalarModulus()) >= 0 {
		return fmt.Errorf("%w: %s out of range", types.ErrValidation, name)
	}
	return nil
}

// checkOptional validates a field element that may be zero or nil.
func checkOptional(name string, v *big.Int) error {
	if v == nil {
		return nil
	}
	if v.Sign() < 0 || v.Cmp(bn254.ScalarModulus()) >= 0 {
		return fmt.Errorf("%w: %s is not a canonical field element", types.ErrValidation, name)
	}
	return nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// PoolConfig holds the parameters of a new pool.
type PoolConfig struct {
	ChainID uint32
	Nonce   uint64
	Asset   []byte // 20-byte asset mint address
	Depth   int
	Window  int
	Batched bool
}

// CreatePool initializes a pool: derives its ID and asset identifier,
// stores the record and writes the empty tree state, all in one
// transaction.
func (e *Engine) CreatePool(cfg PoolConfig) (*storage.Pool, error) {
	if cfg.Depth == 0 {
		cfg.Depth = types.DefaultTreeDepth
	}
	if cfg.Window == 0 {
		cfg.Window = types.DefaultRootHistorySize
	}
	if len(cfg.Asset) != 20 {
		return nil, fmt.Errorf("%w: asset mint must be 20 bytes", types.ErrValidation)
	}
	pid := types.PoolID{ChainID: cfg.ChainID, Nonce: cfg.Nonce}
	copy(pid.Asset[:], cfg.Asset)
	poolID := pid.Marshal()

	tr, err := tree.New(poolID, cfg.Depth, cfg.Window)
	if err != nil {
		return nil, err
	}
	assetID := statement.AssetID(cfg.Asset)
	p := &storage.Pool{
		ID:        poolID,
		Asset:     cfg.Asset,
		AssetID:   assetID[:],
		Depth:     cfg.Depth,
		Window:    cfg.Window,
		Batched:   cfg.Batched,
		CreatedAt: now(),
	}

	lock := e.poolLock(poolID)
	lock.Lock()
	defer lock.Unlock()

	wtx := e.stg.Database().WriteTx()
	if err := e.stg.SetPool(wtx, p); err != nil {
		wtx.Discard()
		return nil, fmt.Errorf("%w: %v", types.ErrStateConflict, err)
	}
	if err := tr.Init(wtx); err != nil {
		wtx.Discard()
		return nil, err
	}
	if err := wtx.Commit(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.trees[string(poolID)] = tr
	e.mu.Unlock()

	log.Infow("pool created", "pool", p.ID.String(), "depth", p.Depth,
		"window", p.Window, "batched", p.Batched)
	return p, nil
}

// Root returns the current commitment tree root of a pool.
func (e *Engine) Root(poolID []byte) (*big.Int, error) {
	_, tr, err := e.loadPool(poolID)
	if err != nil {
		return nil, err
	}
	return tr.Root(e.stg.Database())
}

// IsKnownRoot reports whether root is acceptable for proof submission on the
// pool.
func (e *Engine) IsKnownRoot(poolID []byte, root *big.Int) (bool, error) {
	_, tr, err := e.loadPool(poolID)
	if err != nil {
		return false, err
	}
	return tr.IsKnownRoot(e.stg.Database(), root)
}

// PoolInfo returns the stored pool record.
func (e *Engine) PoolInfo(poolID []byte) (*storage.Pool, error) {
	p, _, err := e.loadPool(poolID)
	return p, err
}

// Receipt returns a stored operation receipt.
func (e *Engine) Receipt(id []byte) (*storage.Receipt, error) {
	return e.stg.Receipt(id)
}

// IsSpent reports whether a nullifier hash has been marked spent on the
// pool.
func (e *Engine) IsSpent(poolID []byte, nullifierHash *big.Int) (bool, error) {
	return e.registry.IsSpent(e.stg.Database(), poolID, nullifierHash)
}
