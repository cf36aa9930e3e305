package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/veilpool/veilpool/crypto/bn254"
	"github.com/veilpool/veilpool/crypto/hash/poseidon"
	"github.com/veilpool/veilpool/pool"
	"github.com/veilpool/veilpool/statement"
	"github.com/veilpool/veilpool/storage"
	"github.com/veilpool/veilpool/types"
	"github.com/veilpool/veilpool/zktest"
)

func newTestAPI(t testing.TB) (*API, *pool.Engine, *storage.Storage) {
	stg := storage.New(metadb.NewTest(t))
	engine, err := pool.NewEngine(stg, bn254.BackendNative)
	qt.Assert(t, err, qt.IsNil)
	a := &API{engine: engine}
	a.initRouter()
	return a, engine, stg
}

func doRequest(t testing.TB, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, []byte) {
	var buf bytes.Buffer
	if body != nil {
		qt.Assert(t, json.NewEncoder(&buf).Encode(body), qt.IsNil)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec, rec.Body.Bytes()
}

func TestPingAndPoolLifecycle(t *testing.T) {
	c := qt.New(t)
	a, _, _ := newTestAPI(t)

	rec, _ := doRequest(t, a.Router(), http.MethodGet, PingEndpoint, nil)
	c.Assert(rec.Code, qt.Equals, http.StatusOK)

	mint := make(types.HexBytes, 20)
	mint[19] = 0x99
	rec, body := doRequest(t, a.Router(), http.MethodPost, PoolsEndpoint, &NewPool{
		ChainID: 1, Nonce: 1, Asset: mint, Depth: 4, Window: 3,
	})
	c.Assert(rec.Code, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))
	created := &storage.Pool{}
	c.Assert(json.Unmarshal(body, created), qt.IsNil)
	c.Assert(created.ID, qt.HasLen, 32)
	c.Assert(created.Depth, qt.Equals, 4)

	rec, body = doRequest(t, a.Router(), http.MethodGet,
		fmt.Sprintf("/pools/%s", created.ID.String()), nil)
	c.Assert(rec.Code, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))
	fetched := &storage.Pool{}
	c.Assert(json.Unmarshal(body, fetched), qt.IsNil)
	c.Assert(fetched.AssetID, qt.DeepEquals, created.AssetID)

	rec, body = doRequest(t, a.Router(), http.MethodGet,
		fmt.Sprintf("/pools/%s/root", created.ID.String()), nil)
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	root := &PoolRoot{}
	c.Assert(json.Unmarshal(body, root), qt.IsNil)
	c.Assert(root.Root, qt.IsNotNil)

	rec, body = doRequest(t, a.Router(), http.MethodGet,
		fmt.Sprintf("/pools/%s/roots/%s", created.ID.String(), root.Root.String()), nil)
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	known := &KnownRoot{}
	c.Assert(json.Unmarshal(body, known), qt.IsNil)
	c.Assert(known.Known, qt.IsTrue)

	// duplicated creation maps to 409
	rec, _ = doRequest(t, a.Router(), http.MethodPost, PoolsEndpoint, &NewPool{
		ChainID: 1, Nonce: 1, Asset: mint, Depth: 4, Window: 3,
	})
	c.Assert(rec.Code, qt.Equals, http.StatusConflict)

	// unknown pool maps to 404
	rec, _ = doRequest(t, a.Router(), http.MethodGet,
		"/pools/00000000000000000000000000000000000000000000000000000000000000ff", nil)
	c.Assert(rec.Code, qt.Equals, http.StatusNotFound)

	// unknown receipt maps to 404
	rec, _ = doRequest(t, a.Router(), http.MethodGet, "/receipts/0011223344556677889900aa", nil)
	c.Assert(rec.Code, qt.Equals, http.StatusNotFound)
}

func TestDepositOverHTTP(t *testing.T) {
	c := qt.New(t)
	a, _, stg := newTestAPI(t)

	mint := make(types.HexBytes, 20)
	mint[0] = 0x42
	rec, body := doRequest(t, a.Router(), http.MethodPost, PoolsEndpoint, &NewPool{
		ChainID: 2, Nonce: 5, Asset: mint, Depth: 6, Window: 4,
	})
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	created := &storage.Pool{}
	c.Assert(json.Unmarshal(body, created), qt.IsNil)
	assetID := new(big.Int).SetBytes(created.AssetID)

	// no verification key yet: service unavailable
	rec, _ = doRequest(t, a.Router(), http.MethodPost, DepositEndpoint, &Deposit{
		PoolID:     created.ID,
		Commitment: (*types.BigInt)(big.NewInt(1)),
		Amount:     (*types.BigInt)(big.NewInt(1)),
		Proof:      make(types.HexBytes, types.ProofSize),
	})
	c.Assert(rec.Code, qt.Equals, http.StatusServiceUnavailable)

	fx, err := zktest.NewFixture(3)
	c.Assert(err, qt.IsNil)
	vk, err := fx.VerificationKey()
	c.Assert(err, qt.IsNil)
	c.Assert(stg.SetVerificationKey(types.ProofTypeDeposit, vk), qt.IsNil)

	amount := big.NewInt(42000)
	commitment, err := poseidon.Commitment(big.NewInt(3), big.NewInt(5), amount, assetID)
	c.Assert(err, qt.IsNil)
	proof, err := fx.Prove(statement.Deposit{
		Commitment: commitment, Amount: amount, AssetID: assetID,
	}.Serialize())
	c.Assert(err, qt.IsNil)

	rec, body = doRequest(t, a.Router(), http.MethodPost, DepositEndpoint, &Deposit{
		PoolID:     created.ID,
		Commitment: (*types.BigInt)(commitment),
		Amount:     (*types.BigInt)(amount),
		Proof:      types.HexBytes(proof),
	})
	c.Assert(rec.Code, qt.Equals, http.StatusOK, qt.Commentf("body: %s", body))
	receipt := &storage.Receipt{}
	c.Assert(json.Unmarshal(body, receipt), qt.IsNil)
	c.Assert(receipt.LeafIndexes, qt.DeepEquals, []uint64{0})

	rec, body = doRequest(t, a.Router(), http.MethodGet,
		fmt.Sprintf("/receipts/%s", receipt.ID.String()), nil)
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	stored := &storage.Receipt{}
	c.Assert(json.Unmarshal(body, stored), qt.IsNil)
	c.Assert(stored.Operation, qt.Equals, string(types.ProofTypeDeposit))

	// corrupted proof keeps its distinct error code
	proof[7] ^= 0xff
	rec, body = doRequest(t, a.Router(), http.MethodPost, DepositEndpoint, &Deposit{
		PoolID:     created.ID,
		Commitment: (*types.BigInt)(commitment),
		Amount:     (*types.BigInt)(amount),
		Proof:      types.HexBytes(proof),
	})
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)
	apiErr := struct {
		Code int `json:"code"`
	}{}
	c.Assert(json.Unmarshal(bytes.TrimSpace(body), &apiErr), qt.IsNil)
	c.Assert(apiErr.Code == ErrProofVerificationFailed.Code ||
		apiErr.Code == ErrInvalidCryptoMaterial.Code, qt.IsTrue)
}
