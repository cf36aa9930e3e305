package api

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/veilpool/veilpool/pool"
	"github.com/veilpool/veilpool/types"
)

// bigOrNil unwraps an optional decimal JSON field.
func bigOrNil(v *types.BigInt) *big.Int {
	if v == nil {
		return nil
	}
	return v.MathBigInt()
}

// deposit submits a deposit operation and returns its receipt.
func (a *API) deposit(w http.ResponseWriter, r *http.Request) {
	req := &Deposit{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	receipt, err := a.engine.Deposit(&pool.DepositRequest{
		PoolID:     req.PoolID,
		Commitment: bigOrNil(req.Commitment),
		Amount:     bigOrNil(req.Amount),
		Proof:      req.Proof,
	})
	if err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, receipt)
}

// withdraw submits a withdraw operation and returns its receipt.
func (a *API) withdraw(w http.ResponseWriter, r *http.Request) {
	req := &Withdraw{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	receipt, err := a.engine.Withdraw(&pool.WithdrawRequest{
		PoolID:           req.PoolID,
		SchemaVersion:    req.SchemaVersion,
		Root:             bigOrNil(req.Root),
		NullifierHash:    bigOrNil(req.NullifierHash),
		Recipient:        req.Recipient,
		Amount:           bigOrNil(req.Amount),
		Relayer:          req.Relayer,
		RelayerFee:       bigOrNil(req.RelayerFee),
		PublicData:       bigOrNil(req.PublicData),
		NullifierHash2:   bigOrNil(req.NullifierHash2),
		ChangeCommitment: bigOrNil(req.ChangeCommitment),
		Proof:            req.Proof,
	})
	if err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, receipt)
}

// joinSplit submits a join-split operation and returns its receipt.
func (a *API) joinSplit(w http.ResponseWriter, r *http.Request) {
	req := &JoinSplit{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	receipt, err := a.engine.JoinSplit(&pool.JoinSplitRequest{
		PoolID: req.PoolID,
		Root:   bigOrNil(req.Root),
		InputNullifiers: [2]*big.Int{
			bigOrNil(req.InputNullifiers[0]),
			bigOrNil(req.InputNullifiers[1]),
		},
		OutputCommitments: [2]*big.Int{
			bigOrNil(req.OutputCommitments[0]),
			bigOrNil(req.OutputCommitments[1]),
		},
		PublicAmount: bigOrNil(req.PublicAmount),
		Relayer:      req.Relayer,
		RelayerFee:   bigOrNil(req.RelayerFee),
		Proof:        req.Proof,
	})
	if err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, receipt)
}

// membership submits a balance-membership attestation and returns its
// receipt.
func (a *API) membership(w http.ResponseWriter, r *http.Request) {
	req := &Membership{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	receipt, err := a.engine.Membership(&pool.MembershipRequest{
		PoolID:         req.PoolID,
		Root:           bigOrNil(req.Root),
		CommitmentHash: bigOrNil(req.CommitmentHash),
		Threshold:      bigOrNil(req.Threshold),
		Proof:          req.Proof,
	})
	if err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, receipt)
}

// batch submits a batch insertion and returns its receipt.
func (a *API) batch(w http.ResponseWriter, r *http.Request) {
	req := &Batch{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	receipt, err := a.engine.ProcessBatch(&pool.BatchRequest{
		PoolID:    req.PoolID,
		NewRoot:   bigOrNil(req.NewRoot),
		BatchSize: req.BatchSize,
		Proof:     req.Proof,
	})
	if err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, receipt)
}
