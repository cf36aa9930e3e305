package storage

import (
	"time"

	"github.com/veilpool/veilpool/types"
)

// Pool is the stored configuration of a shielded pool. Depth and Window are
// fixed at creation; Batched pools queue deposits into the pending buffer
// instead of inserting them directly.
type Pool struct {
	ID        types.HexBytes `json:"id"        cbor:"id"`
	Asset     types.HexBytes `json:"asset"     cbor:"asset"`
	AssetID   types.HexBytes `json:"assetId"   cbor:"assetId"`
	Depth     int            `json:"depth"     cbor:"depth"`
	Window    int            `json:"window"    cbor:"window"`
	Batched   bool           `json:"batched"   cbor:"batched"`
	CreatedAt time.Time      `json:"createdAt" cbor:"createdAt"`
}

// Receipt is the durable record emitted by every successful operation.
type Receipt struct {
	ID             types.HexBytes   `json:"id"             cbor:"id"`
	PoolID         types.HexBytes   `json:"poolId"         cbor:"poolId"`
	Operation      string           `json:"operation"      cbor:"operation"`
	Root           types.HexBytes   `json:"root"           cbor:"root"`
	NullifierHashes []types.HexBytes `json:"nullifierHashes,omitempty" cbor:"nullifierHashes,omitempty"`
	LeafIndexes    []uint64         `json:"leafIndexes,omitempty"     cbor:"leafIndexes,omitempty"`
	Timestamp      time.Time        `json:"timestamp"      cbor:"timestamp"`
}

// PendingCommitment is one queued leaf waiting for batch insertion.
type PendingCommitment struct {
	Sequence   uint64         `json:"sequence"   cbor:"sequence"`
	Commitment types.HexBytes `json:"commitment" cbor:"commitment"`
}
