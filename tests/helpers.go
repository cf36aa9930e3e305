package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/veilpool/veilpool/api/client"
	"github.com/veilpool/veilpool/crypto/bn254"
	"github.com/veilpool/veilpool/pool"
	"github.com/veilpool/veilpool/service"
	"github.com/veilpool/veilpool/storage"
	"github.com/veilpool/veilpool/types"
	"github.com/veilpool/veilpool/util"
	"github.com/veilpool/veilpool/zktest"
)

// NewTestService starts a full node (storage, engine, HTTP API) on a random
// port and returns the running service alongside its storage handle, so
// tests can provision verification keys directly.
func NewTestService(t *testing.T, ctx context.Context) (*service.APIService, *storage.Storage, *pool.Engine) {
	c := qt.New(t)

	// The service closes the database in Stop, so the helper must not register
	// a second close via metadb.NewTest (pebble panics on double close).
	mdb, err := metadb.New(metadb.ForTest(), t.TempDir())
	c.Assert(err, qt.IsNil)
	stg := storage.New(mdb)
	engine, err := pool.NewEngine(stg, bn254.BackendNative)
	c.Assert(err, qt.IsNil)

	port := util.RandomInt(40000, 60000)
	apiService := service.NewAPI(engine, stg, "127.0.0.1", port)
	c.Assert(apiService.Start(ctx), qt.IsNil)
	t.Cleanup(apiService.Stop)

	// Wait for the HTTP server to start
	time.Sleep(500 * time.Millisecond)
	return apiService, stg, engine
}

// NewTestClient creates a new API client for testing.
func NewTestClient(port int) (*client.HTTPclient, error) {
	return client.New(fmt.Sprintf("http://127.0.0.1:%d", port))
}

// installFixture provisions a test verification key for the given proof type
// and returns the fixture that proves against it.
func installFixture(c *qt.C, stg *storage.Storage, pt types.ProofType, numInputs int) *zktest.Fixture {
	fx, err := zktest.NewFixture(numInputs)
	c.Assert(err, qt.IsNil)
	vk, err := fx.VerificationKey()
	c.Assert(err, qt.IsNil)
	c.Assert(stg.SetVerificationKey(pt, vk), qt.IsNil)
	return fx
}
