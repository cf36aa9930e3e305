package client

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/veilpool/veilpool/api"
	"github.com/veilpool/veilpool/storage"
	"github.com/veilpool/veilpool/types"
)

// post sends the request body and decodes the JSON response into out.
func (c *HTTPclient) post(body any, out any, urlPath ...string) error {
	data, status, err := c.Request(HTTPPOST, body, urlPath...)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
	}
	return json.Unmarshal(data, out)
}

// get decodes the JSON response of a GET request into out.
func (c *HTTPclient) get(out any, urlPath ...string) error {
	data, status, err := c.Request(HTTPGET, nil, urlPath...)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s: %d (%s)", errCodeNot200, status, data)
	}
	return json.Unmarshal(data, out)
}

// CreatePool creates a new shielded pool and returns its stored record.
func (c *HTTPclient) CreatePool(req *api.NewPool) (*storage.Pool, error) {
	p := &storage.Pool{}
	if err := c.post(req, p, api.PoolsEndpoint); err != nil {
		return nil, err
	}
	return p, nil
}

// PoolInfo returns the stored record of a pool.
func (c *HTTPclient) PoolInfo(poolID types.HexBytes) (*storage.Pool, error) {
	p := &storage.Pool{}
	if err := c.get(p, api.PoolsEndpoint, poolID.String()); err != nil {
		return nil, err
	}
	return p, nil
}

// PoolRoot returns the current commitment tree root of a pool.
func (c *HTTPclient) PoolRoot(poolID types.HexBytes) (*types.BigInt, error) {
	root := &api.PoolRoot{}
	if err := c.get(root, api.PoolsEndpoint, poolID.String(), "root"); err != nil {
		return nil, err
	}
	return root.Root, nil
}

// IsKnownRoot checks a root against the pool's history window.
func (c *HTTPclient) IsKnownRoot(poolID types.HexBytes, root *types.BigInt) (bool, error) {
	known := &api.KnownRoot{}
	if err := c.get(known, api.PoolsEndpoint, poolID.String(), "roots", root.String()); err != nil {
		return false, err
	}
	return known.Known, nil
}

// Deposit submits a deposit operation and returns its receipt.
func (c *HTTPclient) Deposit(req *api.Deposit) (*storage.Receipt, error) {
	receipt := &storage.Receipt{}
	if err := c.post(req, receipt, api.DepositEndpoint); err != nil {
		return nil, err
	}
	return receipt, nil
}

// Withdraw submits a withdraw operation and returns its receipt.
func (c *HTTPclient) Withdraw(req *api.Withdraw) (*storage.Receipt, error) {
	receipt := &storage.Receipt{}
	if err := c.post(req, receipt, api.WithdrawEndpoint); err != nil {
		return nil, err
	}
	return receipt, nil
}

// JoinSplit submits a join-split operation and returns its receipt.
func (c *HTTPclient) JoinSplit(req *api.JoinSplit) (*storage.Receipt, error) {
	receipt := &storage.Receipt{}
	if err := c.post(req, receipt, api.JoinSplitEndpoint); err != nil {
		return nil, err
	}
	return receipt, nil
}

// Membership submits a balance-membership attestation and returns its
// receipt.
func (c *HTTPclient) Membership(req *api.Membership) (*storage.Receipt, error) {
	receipt := &storage.Receipt{}
	if err := c.post(req, receipt, api.MembershipEndpoint); err != nil {
		return nil, err
	}
	return receipt, nil
}

// ProcessBatch submits a batch insertion and returns its receipt.
func (c *HTTPclient) ProcessBatch(req *api.Batch) (*storage.Receipt, error) {
	receipt := &storage.Receipt{}
	if err := c.post(req, receipt, api.BatchEndpoint); err != nil {
		return nil, err
	}
	return receipt, nil
}

// Receipt returns a stored operation receipt by its ID.
func (c *HTTPclient) Receipt(id types.HexBytes) (*storage.Receipt, error) {
	receipt := &storage.Receipt{}
	if err := c.get(receipt, api.ReceiptsPathPrefix, id.String()); err != nil {
		return nil, err
	}
	return receipt, nil
}
