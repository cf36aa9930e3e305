package api

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/veilpool/veilpool/pool"
	"github.com/veilpool/veilpool/types"
)

// newPool creates a shielded pool from the request parameters and returns
// the stored pool record.
func (a *API) newPool(w http.ResponseWriter, r *http.Request) {
	req := &NewPool{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	p, err := a.engine.CreatePool(pool.PoolConfig{
		ChainID: req.ChainID,
		Nonce:   req.Nonce,
		Asset:   req.Asset,
		Depth:   req.Depth,
		Window:  req.Window,
		Batched: req.Batched,
	})
	if err != nil {
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, p)
}

// poolInfo returns the stored record of a pool.
func (a *API) poolInfo(w http.ResponseWriter, r *http.Request) {
	poolID, err := urlParamBytes(r, PoolURLParam)
	if err != nil {
		ErrMalformedPoolID.WithErr(err).Write(w)
		return
	}
	p, err := a.engine.PoolInfo(poolID)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			ErrPoolNotFound.Write(w)
			return
		}
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, p)
}

// poolRoot returns the current commitment tree root of a pool.
func (a *API) poolRoot(w http.ResponseWriter, r *http.Request) {
	poolID, err := urlParamBytes(r, PoolURLParam)
	if err != nil {
		ErrMalformedPoolID.WithErr(err).Write(w)
		return
	}
	root, err := a.engine.Root(poolID)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			ErrPoolNotFound.Write(w)
			return
		}
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, &PoolRoot{Root: (*types.BigInt)(root)})
}

// knownRoot checks a decimal-encoded root against the pool's history window.
func (a *API) knownRoot(w http.ResponseWriter, r *http.Request) {
	poolID, err := urlParamBytes(r, PoolURLParam)
	if err != nil {
		ErrMalformedPoolID.WithErr(err).Write(w)
		return
	}
	root, ok := new(big.Int).SetString(strings.TrimSpace(chi.URLParam(r, RootURLParam)), 10)
	if !ok {
		ErrMalformedRoot.Write(w)
		return
	}
	known, err := a.engine.IsKnownRoot(poolID, root)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			ErrPoolNotFound.Write(w)
			return
		}
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, &KnownRoot{Known: known})
}
