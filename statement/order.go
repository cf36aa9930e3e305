package statement

import (
	"fmt"
	"math/big"

	"github.com/veilpool/veilpool/types"
)

// Public-input schema versions. A proof is only checked against the vector
// layout its schema version names; an unknown version is a configuration
// error, never a silent fallback.
const (
	SchemaV1 = 1
	SchemaV2 = 2
)

// Deposit is the public statement of a deposit proof.
// Order: [commitment, amount, asset_id].
type Deposit struct {
	Commitment *big.Int
	Amount     *big.Int
	AssetID    *big.Int
}

func (d Deposit) Serialize() []*big.Int {
	return []*big.Int{d.Commitment, d.Amount, d.AssetID}
}

// Withdraw is the public statement of a withdraw proof.
//
// Schema v1 order: [merkle_root, nullifier_hash, asset_id, recipient, amount,
// relayer, relayer_fee, public_data_hash].
//
// Schema v2 appends [schema_version, nullifier_hash_2, change_commitment,
// reserved]; Reserved must be zero.
type Withdraw struct {
	SchemaVersion int
	Root          *big.Int
	NullifierHash *big.Int
	AssetID       *big.Int
	Recipient     *big.Int
	Amount        *big.Int
	Relayer       *big.Int
	RelayerFee    *big.Int
	PublicData    *big.Int

	// schema v2 only
	NullifierHash2   *big.Int
	ChangeCommitment *big.Int
	Reserved         *big.Int
}

func (w Withdraw) Serialize() ([]*big.Int, error) {
	base := []*big.Int{
		w.Root,
		w.NullifierHash,
		w.AssetID,
		w.Recipient,
		w.Amount,
		w.Relayer,
		w.RelayerFee,
		w.PublicData,
	}
	switch w.SchemaVersion {
	case SchemaV1:
		return base, nil
	case SchemaV2:
		if w.Reserved != nil && w.Reserved.Sign() != 0 {
			return nil, fmt.Errorf("%w: reserved input must be zero", types.ErrValidation)
		}
		return append(base,
			big.NewInt(int64(w.SchemaVersion)),
			w.NullifierHash2,
			w.ChangeCommitment,
			big.NewInt(0),
		), nil
	default:
		return nil, fmt.Errorf("%w: unknown withdraw schema version %d",
			types.ErrConfig, w.SchemaVersion)
	}
}

// JoinSplit is the public statement of a two-in two-out join-split proof.
// Order: [merkle_root, asset_id, input_nullifiers[2], output_commitments[2],
// public_amount, relayer, relayer_fee].
type JoinSplit struct {
	Root              *big.Int
	AssetID           *big.Int
	InputNullifiers   [2]*big.Int
	OutputCommitments [2]*big.Int
	PublicAmount      *big.Int
	Relayer           *big.Int
	RelayerFee        *big.Int
}

func (j JoinSplit) Serialize() []*big.Int {
	return []*big.Int{
		j.Root,
		j.AssetID,
		j.InputNullifiers[0],
		j.InputNullifiers[1],
		j.OutputCommitments[0],
		j.OutputCommitments[1],
		j.PublicAmount,
		j.Relayer,
		j.RelayerFee,
	}
}

// Membership is the public statement of a balance-membership proof.
// Order: [merkle_root, commitment_hash, threshold, asset_id].
type Membership struct {
	Root           *big.Int
	CommitmentHash *big.Int
	Threshold      *big.Int
	AssetID        *big.Int
}

func (m Membership) Serialize() []*big.Int {
	return []*big.Int{m.Root, m.CommitmentHash, m.Threshold, m.AssetID}
}

// BatchInsert is the public statement of a pending-buffer batch insertion
// proof. Order: [old_root, new_root, start_index, batch_size,
// commitments_hash].
type BatchInsert struct {
	OldRoot         *big.Int
	NewRoot         *big.Int
	StartIndex      *big.Int
	BatchSize       *big.Int
	CommitmentsHash *big.Int
}

func (b BatchInsert) Serialize() []*big.Int {
	return []*big.Int{b.OldRoot, b.NewRoot, b.StartIndex, b.BatchSize, b.CommitmentsHash}
}
