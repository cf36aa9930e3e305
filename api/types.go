package api

import (
	"github.com/veilpool/veilpool/types"
)

// NewPool is the request to create a new shielded pool.
type NewPool struct {
	ChainID uint32         `json:"chainId"`
	Nonce   uint64         `json:"nonce"`
	Asset   types.HexBytes `json:"asset"`
	Depth   int            `json:"depth,omitempty"`
	Window  int            `json:"window,omitempty"`
	Batched bool           `json:"batched,omitempty"`
}

// PoolRoot is the response to a pool root request.
type PoolRoot struct {
	Root *types.BigInt `json:"root"`
}

// KnownRoot is the response to a known-root check.
type KnownRoot struct {
	Known bool `json:"known"`
}

// Deposit is the request body of a deposit operation.
type Deposit struct {
	PoolID     types.HexBytes `json:"poolId"`
	Commitment *types.BigInt  `json:"commitment"`
	Amount     *types.BigInt  `json:"amount"`
	Proof      types.HexBytes `json:"proof"`
}

// Withdraw is the request body of a withdraw operation. SchemaVersion selects
// the public-input layout; the v2-only fields are ignored under v1.
type Withdraw struct {
	PoolID        types.HexBytes `json:"poolId"`
	SchemaVersion int            `json:"schemaVersion"`
	Root          *types.BigInt  `json:"root"`
	NullifierHash *types.BigInt  `json:"nullifierHash"`
	Recipient     types.HexBytes `json:"recipient"`
	Amount        *types.BigInt  `json:"amount"`
	Relayer       types.HexBytes `json:"relayer,omitempty"`
	RelayerFee    *types.BigInt  `json:"relayerFee,omitempty"`
	PublicData    *types.BigInt  `json:"publicData,omitempty"`

	NullifierHash2   *types.BigInt `json:"nullifierHash2,omitempty"`
	ChangeCommitment *types.BigInt `json:"changeCommitment,omitempty"`

	Proof types.HexBytes `json:"proof"`
}

// JoinSplit is the request body of a join-split operation.
type JoinSplit struct {
	PoolID            types.HexBytes   `json:"poolId"`
	Root              *types.BigInt    `json:"root"`
	InputNullifiers   [2]*types.BigInt `json:"inputNullifiers"`
	OutputCommitments [2]*types.BigInt `json:"outputCommitments"`
	PublicAmount      *types.BigInt    `json:"publicAmount,omitempty"`
	Relayer           types.HexBytes   `json:"relayer,omitempty"`
	RelayerFee        *types.BigInt    `json:"relayerFee,omitempty"`
	Proof             types.HexBytes   `json:"proof"`
}

// Membership is the request body of a balance-membership attestation.
type Membership struct {
	PoolID         types.HexBytes `json:"poolId"`
	Root           *types.BigInt  `json:"root"`
	CommitmentHash *types.BigInt  `json:"commitmentHash"`
	Threshold      *types.BigInt  `json:"threshold"`
	Proof          types.HexBytes `json:"proof"`
}

// Batch is the request body of a batch insertion.
type Batch struct {
	PoolID    types.HexBytes `json:"poolId"`
	NewRoot   *types.BigInt  `json:"newRoot"`
	BatchSize int            `json:"batchSize"`
	Proof     types.HexBytes `json:"proof"`
}
