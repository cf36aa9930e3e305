package storage

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/veilpool/veilpool/types"
	"github.com/veilpool/veilpool/verifier"
	"github.com/veilpool/veilpool/zktest"
)

func newTestStorage(t *testing.T) *Storage {
	return New(metadb.NewTest(t))
}

func TestPoolRecordLifecycle(t *testing.T) {
	c := qt.New(t)
	s := newTestStorage(t)

	_, err := s.Pool([]byte("missing"))
	c.Assert(errors.Is(err, ErrNotFound), qt.IsTrue)

	p := &Pool{
		ID:        []byte("pool-1"),
		Asset:     []byte("mint-bytes"),
		Depth:     20,
		Window:    30,
		CreatedAt: time.Now().UTC(),
	}
	wtx := s.Database().WriteTx()
	c.Assert(s.SetPool(wtx, p), qt.IsNil)
	c.Assert(wtx.Commit(), qt.IsNil)

	got, err := s.Pool(p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Depth, qt.Equals, 20)
	c.Assert(got.Window, qt.Equals, 30)

	// pools are create-once
	wtx = s.Database().WriteTx()
	defer wtx.Discard()
	c.Assert(s.SetPool(wtx, p), qt.IsNotNil)

	ids, err := s.ListPools()
	c.Assert(err, qt.IsNil)
	c.Assert(ids, qt.HasLen, 1)
}

func TestVerificationKeyProvisioning(t *testing.T) {
	c := qt.New(t)
	s := newTestStorage(t)

	fixture, err := zktest.NewFixture(3)
	c.Assert(err, qt.IsNil)
	full, err := fixture.VerificationKey()
	c.Assert(err, qt.IsNil)

	// init with the group elements and no IC
	initial := &verifier.VerificationKey{
		AlphaG1: full.AlphaG1,
		BetaG2:  full.BetaG2,
		GammaG2: full.GammaG2,
		DeltaG2: full.DeltaG2,
	}
	c.Assert(s.InitVerificationKey(types.ProofTypeWithdraw, initial), qt.IsNil)

	// a second init is rejected
	err = s.InitVerificationKey(types.ProofTypeWithdraw, initial)
	c.Assert(errors.Is(err, types.ErrConfig), qt.IsTrue)

	// upload IC in two chunks
	var chunk1, chunk2 [][]byte
	for i, ic := range full.IC {
		if i < 2 {
			chunk1 = append(chunk1, ic.Bytes())
		} else {
			chunk2 = append(chunk2, ic.Bytes())
		}
	}
	c.Assert(s.AppendICChunk(types.ProofTypeWithdraw, chunk1), qt.IsNil)
	c.Assert(s.AppendICChunk(types.ProofTypeWithdraw, chunk2), qt.IsNil)

	c.Assert(s.LockVerificationKey(types.ProofTypeWithdraw), qt.IsNil)

	// locked keys are immutable
	err = s.AppendICChunk(types.ProofTypeWithdraw, chunk1)
	c.Assert(errors.Is(err, types.ErrConfig), qt.IsTrue)
	err = s.LockVerificationKey(types.ProofTypeWithdraw)
	c.Assert(errors.Is(err, types.ErrConfig), qt.IsTrue)

	got, err := s.VerificationKey(types.ProofTypeWithdraw)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Locked, qt.IsTrue)
	c.Assert(got.NumPublicInputs(), qt.Equals, full.NumPublicInputs())
}

func TestPendingQueueFIFO(t *testing.T) {
	c := qt.New(t)
	s := newTestStorage(t)
	pool := []byte("pool-1")

	wtx := s.Database().WriteTx()
	for i := byte(1); i <= 5; i++ {
		_, err := s.PushPending(wtx, pool, []byte{i})
		c.Assert(err, qt.IsNil)
	}
	c.Assert(wtx.Commit(), qt.IsNil)

	pending, err := s.ListPending(pool, 3)
	c.Assert(err, qt.IsNil)
	c.Assert(pending, qt.HasLen, 3)
	for i, pc := range pending {
		c.Assert(pc.Sequence, qt.Equals, uint64(i))
		c.Assert([]byte(pc.Commitment), qt.DeepEquals, []byte{byte(i + 1)})
	}

	// consume the first three
	wtx = s.Database().WriteTx()
	c.Assert(s.DeletePending(wtx, pool, pending), qt.IsNil)
	c.Assert(wtx.Commit(), qt.IsNil)

	pending, err = s.ListPending(pool, 10)
	c.Assert(err, qt.IsNil)
	c.Assert(pending, qt.HasLen, 2)
	c.Assert(pending[0].Sequence, qt.Equals, uint64(3))
}

func TestReceiptRoundTrip(t *testing.T) {
	c := qt.New(t)
	s := newTestStorage(t)

	r := &Receipt{
		PoolID:    []byte("pool-1"),
		Operation: "withdraw",
		Root:      []byte{0x01, 0x02},
		Timestamp: time.Now().UTC(),
	}
	wtx := s.Database().WriteTx()
	c.Assert(s.StoreReceipt(wtx, r), qt.IsNil)
	c.Assert(wtx.Commit(), qt.IsNil)
	c.Assert(r.ID, qt.Not(qt.HasLen), 0)

	got, err := s.Receipt(r.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Operation, qt.Equals, "withdraw")

	_, err = s.Receipt([]byte("nope"))
	c.Assert(errors.Is(err, ErrNotFound), qt.IsTrue)
}
