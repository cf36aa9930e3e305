package pool

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/veilpool/veilpool/crypto/bn254"
	"github.com/veilpool/veilpool/crypto/hash/poseidon"
	"github.com/veilpool/veilpool/statement"
	"github.com/veilpool/veilpool/storage"
	"github.com/veilpool/veilpool/types"
	"github.com/veilpool/veilpool/zktest"
)

func newTestEngine(t testing.TB) (*Engine, *storage.Storage) {
	stg := storage.New(metadb.NewTest(t))
	engine, err := NewEngine(stg, bn254.BackendNative)
	qt.Assert(t, err, qt.IsNil)
	return engine, stg
}

func installFixture(t testing.TB, stg *storage.Storage, pt types.ProofType, numInputs int) *zktest.Fixture {
	fx, err := zktest.NewFixture(numInputs)
	qt.Assert(t, err, qt.IsNil)
	vk, err := fx.VerificationKey()
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, stg.SetVerificationKey(pt, vk), qt.IsNil)
	return fx
}

func testMint() []byte {
	mint := make([]byte, 20)
	for i := range mint {
		mint[i] = byte(i + 1)
	}
	return mint
}

func testAddress(fill byte) []byte {
	addr := make([]byte, statement.AddressSize)
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func prove(t testing.TB, fx *zktest.Fixture, inputs []*big.Int) []byte {
	proof, err := fx.Prove(inputs)
	qt.Assert(t, err, qt.IsNil)
	return proof
}

func TestDepositThenWithdraw(t *testing.T) {
	c := qt.New(t)
	engine, stg := newTestEngine(t)

	pool, err := engine.CreatePool(PoolConfig{
		ChainID: 1, Nonce: 7, Asset: testMint(), Depth: 6, Window: 5,
	})
	c.Assert(err, qt.IsNil)
	assetID := new(big.Int).SetBytes(pool.AssetID)

	depositFx := installFixture(t, stg, types.ProofTypeDeposit, 3)
	withdrawFx := installFixture(t, stg, types.ProofTypeWithdraw, 8)

	secret := big.NewInt(12345)
	preimage := big.NewInt(67890)
	amount := big.NewInt(1000000000)
	commitment, err := poseidon.Commitment(secret, preimage, amount, assetID)
	c.Assert(err, qt.IsNil)

	depProof := prove(t, depositFx, statement.Deposit{
		Commitment: commitment,
		Amount:     amount,
		AssetID:    assetID,
	}.Serialize())
	receipt, err := engine.Deposit(&DepositRequest{
		PoolID:     pool.ID,
		Commitment: commitment,
		Amount:     amount,
		Proof:      depProof,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(receipt.LeafIndexes, qt.DeepEquals, []uint64{0})
	c.Assert(receipt.Root, qt.HasLen, 32)

	root, err := engine.Root(pool.ID)
	c.Assert(err, qt.IsNil)
	nullifierHash, err := poseidon.NullifierHash(preimage, secret, 0)
	c.Assert(err, qt.IsNil)

	spent, err := engine.IsSpent(pool.ID, nullifierHash)
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsFalse)

	recipient := testAddress(0xaa)
	recScalar, err := statement.AddressToScalar(recipient)
	c.Assert(err, qt.IsNil)
	wdInputs, err := statement.Withdraw{
		SchemaVersion: statement.SchemaV1,
		Root:          root,
		NullifierHash: nullifierHash,
		AssetID:       assetID,
		Recipient:     statement.FieldElement(recScalar),
		Amount:        amount,
		Relayer:       big.NewInt(0),
		RelayerFee:    big.NewInt(0),
		PublicData:    big.NewInt(0),
	}.Serialize()
	c.Assert(err, qt.IsNil)
	wdProof := prove(t, withdrawFx, wdInputs)

	wdReq := &WithdrawRequest{
		PoolID:        pool.ID,
		SchemaVersion: statement.SchemaV1,
		Root:          root,
		NullifierHash: nullifierHash,
		Recipient:     recipient,
		Amount:        amount,
		Proof:         wdProof,
	}
	wdReceipt, err := engine.Withdraw(wdReq)
	c.Assert(err, qt.IsNil)
	c.Assert(wdReceipt.NullifierHashes, qt.HasLen, 1)
	c.Assert(wdReceipt.LeafIndexes, qt.HasLen, 0)

	spent, err = engine.IsSpent(pool.ID, nullifierHash)
	c.Assert(err, qt.IsNil)
	c.Assert(spent, qt.IsTrue)

	// second spend of the same note must hit the write-once registry
	_, err = engine.Withdraw(wdReq)
	c.Assert(err, qt.ErrorIs, types.ErrStateConflict)
}

func TestWithdrawValidation(t *testing.T) {
	c := qt.New(t)
	engine, stg := newTestEngine(t)

	pool, err := engine.CreatePool(PoolConfig{ChainID: 1, Nonce: 1, Asset: testMint(), Depth: 4, Window: 3})
	c.Assert(err, qt.IsNil)
	installFixture(t, stg, types.ProofTypeWithdraw, 8)

	base := func() *WithdrawRequest {
		return &WithdrawRequest{
			PoolID:        pool.ID,
			SchemaVersion: statement.SchemaV1,
			Root:          big.NewInt(1),
			NullifierHash: big.NewInt(2),
			Recipient:     testAddress(0x01),
			Amount:        big.NewInt(100),
			Proof:         make([]byte, types.ProofSize),
		}
	}

	req := base()
	req.RelayerFee = big.NewInt(101)
	_, err = engine.Withdraw(req)
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	req = base()
	req.Amount = big.NewInt(0)
	_, err = engine.Withdraw(req)
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	req = base()
	req.NullifierHash = nil
	_, err = engine.Withdraw(req)
	c.Assert(err, qt.ErrorIs, types.ErrValidation)

	// root never produced by this tree
	_, err = engine.Withdraw(base())
	c.Assert(err, qt.ErrorIs, types.ErrStateConflict)

	_, err = engine.Withdraw(&WithdrawRequest{
		PoolID:        []byte("nope"),
		SchemaVersion: statement.SchemaV1,
		Root:          big.NewInt(1),
		NullifierHash: big.NewInt(2),
		Recipient:     testAddress(0x01),
		Amount:        big.NewInt(100),
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)
}

func TestWithdrawSchemaV2Change(t *testing.T) {
	c := qt.New(t)
	engine, stg := newTestEngine(t)

	pool, err := engine.CreatePool(PoolConfig{ChainID: 5, Nonce: 2, Asset: testMint(), Depth: 6, Window: 4})
	c.Assert(err, qt.IsNil)
	assetID := new(big.Int).SetBytes(pool.AssetID)

	depositFx := installFixture(t, stg, types.ProofTypeDeposit, 3)
	withdrawFx := installFixture(t, stg, types.ProofTypeWithdraw, 12)

	// two notes, both spent by one v2 withdraw with change
	amounts := []*big.Int{big.NewInt(500), big.NewInt(700)}
	secrets := []*big.Int{big.NewInt(31), big.NewInt(32)}
	preimages := []*big.Int{big.NewInt(41), big.NewInt(42)}
	for i := range amounts {
		commitment, err := poseidon.Commitment(secrets[i], preimages[i], amounts[i], assetID)
		c.Assert(err, qt.IsNil)
		proof := prove(t, depositFx, statement.Deposit{
			Commitment: commitment, Amount: amounts[i], AssetID: assetID,
		}.Serialize())
		receipt, err := engine.Deposit(&DepositRequest{
			PoolID: pool.ID, Commitment: commitment, Amount: amounts[i], Proof: proof,
		})
		c.Assert(err, qt.IsNil)
		c.Assert(receipt.LeafIndexes, qt.DeepEquals, []uint64{uint64(i)})
	}

	root, err := engine.Root(pool.ID)
	c.Assert(err, qt.IsNil)
	nh1, err := poseidon.NullifierHash(preimages[0], secrets[0], 0)
	c.Assert(err, qt.IsNil)
	nh2, err := poseidon.NullifierHash(preimages[1], secrets[1], 1)
	c.Assert(err, qt.IsNil)

	// withdraw 1000 of the combined 1200, re-hiding 200 as change
	withdrawn := big.NewInt(1000)
	change, err := poseidon.Commitment(big.NewInt(33), big.NewInt(43), big.NewInt(200), assetID)
	c.Assert(err, qt.IsNil)

	recipient := testAddress(0xbb)
	recScalar, err := statement.AddressToScalar(recipient)
	c.Assert(err, qt.IsNil)
	inputs, err := statement.Withdraw{
		SchemaVersion:    statement.SchemaV2,
		Root:             root,
		NullifierHash:    nh1,
		AssetID:          assetID,
		Recipient:        statement.FieldElement(recScalar),
		Amount:           withdrawn,
		Relayer:          big.NewInt(0),
		RelayerFee:       big.NewInt(0),
		PublicData:       big.NewInt(0),
		NullifierHash2:   nh2,
		ChangeCommitment: change,
	}.Serialize()
	c.Assert(err, qt.IsNil)

	receipt, err := engine.Withdraw(&WithdrawRequest{
		PoolID:           pool.ID,
		SchemaVersion:    statement.SchemaV2,
		Root:             root,
		NullifierHash:    nh1,
		Recipient:        recipient,
		Amount:           withdrawn,
		NullifierHash2:   nh2,
		ChangeCommitment: change,
		Proof:            prove(t, withdrawFx, inputs),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(receipt.NullifierHashes, qt.HasLen, 2)
	c.Assert(receipt.LeafIndexes, qt.DeepEquals, []uint64{2})

	for _, nh := range []*big.Int{nh1, nh2} {
		spent, err := engine.IsSpent(pool.ID, nh)
		c.Assert(err, qt.IsNil)
		c.Assert(spent, qt.IsTrue)
	}
}

func TestJoinSplit(t *testing.T) {
	c := qt.New(t)
	engine, stg := newTestEngine(t)

	pool, err := engine.CreatePool(PoolConfig{ChainID: 1, Nonce: 3, Asset: testMint(), Depth: 6, Window: 4})
	c.Assert(err, qt.IsNil)
	assetID := new(big.Int).SetBytes(pool.AssetID)

	depositFx := installFixture(t, stg, types.ProofTypeDeposit, 3)
	joinSplitFx := installFixture(t, stg, types.ProofTypeJoinSplit, 9)

	secrets := []*big.Int{big.NewInt(51), big.NewInt(52)}
	preimages := []*big.Int{big.NewInt(61), big.NewInt(62)}
	amount := big.NewInt(250)
	for i := range secrets {
		commitment, err := poseidon.Commitment(secrets[i], preimages[i], amount, assetID)
		c.Assert(err, qt.IsNil)
		proof := prove(t, depositFx, statement.Deposit{
			Commitment: commitment, Amount: amount, AssetID: assetID,
		}.Serialize())
		_, err = engine.Deposit(&DepositRequest{
			PoolID: pool.ID, Commitment: commitment, Amount: amount, Proof: proof,
		})
		c.Assert(err, qt.IsNil)
	}

	root, err := engine.Root(pool.ID)
	c.Assert(err, qt.IsNil)
	nh1, err := poseidon.NullifierHash(preimages[0], secrets[0], 0)
	c.Assert(err, qt.IsNil)
	nh2, err := poseidon.NullifierHash(preimages[1], secrets[1], 1)
	c.Assert(err, qt.IsNil)
	out1, err := poseidon.Commitment(big.NewInt(53), big.NewInt(63), big.NewInt(400), assetID)
	c.Assert(err, qt.IsNil)
	out2, err := poseidon.Commitment(big.NewInt(54), big.NewInt(64), big.NewInt(100), assetID)
	c.Assert(err, qt.IsNil)

	req := &JoinSplitRequest{
		PoolID:            pool.ID,
		Root:              root,
		InputNullifiers:   [2]*big.Int{nh1, nh2},
		OutputCommitments: [2]*big.Int{out1, out2},
	}
	req.Proof = prove(t, joinSplitFx, statement.JoinSplit{
		Root:              root,
		AssetID:           assetID,
		InputNullifiers:   req.InputNullifiers,
		OutputCommitments: req.OutputCommitments,
		PublicAmount:      big.NewInt(0),
		Relayer:           big.NewInt(0),
		RelayerFee:        big.NewInt(0),
	}.Serialize())

	receipt, err := engine.JoinSplit(req)
	c.Assert(err, qt.IsNil)
	c.Assert(receipt.NullifierHashes, qt.HasLen, 2)
	c.Assert(receipt.LeafIndexes, qt.DeepEquals, []uint64{2, 3})

	// both inputs are now spent; replay must fail before touching the tree
	_, err = engine.JoinSplit(req)
	c.Assert(err, qt.ErrorIs, types.ErrStateConflict)

	_, err = engine.JoinSplit(&JoinSplitRequest{
		PoolID:            pool.ID,
		Root:              root,
		InputNullifiers:   [2]*big.Int{nh1, nh1},
		OutputCommitments: [2]*big.Int{out1, out2},
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)
}

func TestMembership(t *testing.T) {
	c := qt.New(t)
	engine, stg := newTestEngine(t)

	pool, err := engine.CreatePool(PoolConfig{ChainID: 1, Nonce: 4, Asset: testMint(), Depth: 4, Window: 3})
	c.Assert(err, qt.IsNil)
	assetID := new(big.Int).SetBytes(pool.AssetID)

	depositFx := installFixture(t, stg, types.ProofTypeDeposit, 3)
	membershipFx := installFixture(t, stg, types.ProofTypeMembership, 4)

	commitment, err := poseidon.Commitment(big.NewInt(71), big.NewInt(81), big.NewInt(5000), assetID)
	c.Assert(err, qt.IsNil)
	proof := prove(t, depositFx, statement.Deposit{
		Commitment: commitment, Amount: big.NewInt(5000), AssetID: assetID,
	}.Serialize())
	_, err = engine.Deposit(&DepositRequest{
		PoolID: pool.ID, Commitment: commitment, Amount: big.NewInt(5000), Proof: proof,
	})
	c.Assert(err, qt.IsNil)

	root, err := engine.Root(pool.ID)
	c.Assert(err, qt.IsNil)
	commitmentHash, err := poseidon.Hash2(commitment, big.NewInt(1))
	c.Assert(err, qt.IsNil)
	threshold := big.NewInt(1000)

	receipt, err := engine.Membership(&MembershipRequest{
		PoolID:         pool.ID,
		Root:           root,
		CommitmentHash: commitmentHash,
		Threshold:      threshold,
		Proof: prove(t, membershipFx, statement.Membership{
			Root:           root,
			CommitmentHash: commitmentHash,
			Threshold:      threshold,
			AssetID:        assetID,
		}.Serialize()),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(receipt.Operation, qt.Equals, string(types.ProofTypeMembership))
	c.Assert(receipt.NullifierHashes, qt.HasLen, 0)
	c.Assert(receipt.LeafIndexes, qt.HasLen, 0)

	// attestation must not move the tree
	after, err := engine.Root(pool.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(after.Cmp(root), qt.Equals, 0)

	stored, err := engine.Receipt(receipt.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Operation, qt.Equals, receipt.Operation)
}

func TestBatchedPool(t *testing.T) {
	c := qt.New(t)
	engine, stg := newTestEngine(t)

	pool, err := engine.CreatePool(PoolConfig{
		ChainID: 1, Nonce: 5, Asset: testMint(), Depth: 6, Window: 4, Batched: true,
	})
	c.Assert(err, qt.IsNil)
	assetID := new(big.Int).SetBytes(pool.AssetID)

	depositFx := installFixture(t, stg, types.ProofTypeDeposit, 3)
	batchFx := installFixture(t, stg, types.ProofTypeBatch, 5)

	emptyRoot, err := engine.Root(pool.ID)
	c.Assert(err, qt.IsNil)

	commitments := make([]*big.Int, 2)
	for i := range commitments {
		commitments[i], err = poseidon.Commitment(
			big.NewInt(int64(90+i)), big.NewInt(int64(95+i)), big.NewInt(1000), assetID)
		c.Assert(err, qt.IsNil)
		proof := prove(t, depositFx, statement.Deposit{
			Commitment: commitments[i], Amount: big.NewInt(1000), AssetID: assetID,
		}.Serialize())
		receipt, err := engine.Deposit(&DepositRequest{
			PoolID: pool.ID, Commitment: commitments[i], Amount: big.NewInt(1000), Proof: proof,
		})
		c.Assert(err, qt.IsNil)
		// batched deposits report the queue sequence, not a leaf index
		c.Assert(receipt.LeafIndexes, qt.DeepEquals, []uint64{uint64(i)})
		c.Assert(receipt.Root, qt.HasLen, 0)
	}

	// queueing must not move the tree
	root, err := engine.Root(pool.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(root.Cmp(emptyRoot), qt.Equals, 0)

	mirror, err := zktest.NewMirror(pool.Depth)
	c.Assert(err, qt.IsNil)
	for _, commitment := range commitments {
		c.Assert(mirror.Append(commitment), qt.IsNil)
	}
	newRoot, err := mirror.Root()
	c.Assert(err, qt.IsNil)

	slots := make([]*big.Int, types.MaxBatchSize)
	for i := range slots {
		slots[i] = big.NewInt(0)
		if i < len(commitments) {
			slots[i] = commitments[i]
		}
	}
	commitmentsHash, err := statement.CommitmentsHash(slots, len(commitments), types.MaxBatchSize)
	c.Assert(err, qt.IsNil)

	mkInputs := func(target *big.Int) []*big.Int {
		return statement.BatchInsert{
			OldRoot:         emptyRoot,
			NewRoot:         target,
			StartIndex:      big.NewInt(0),
			BatchSize:       big.NewInt(int64(len(commitments))),
			CommitmentsHash: commitmentsHash,
		}.Serialize()
	}

	// a proof over the wrong resulting root verifies but must not commit
	bogus := new(big.Int).Add(newRoot, big.NewInt(1))
	_, err = engine.ProcessBatch(&BatchRequest{
		PoolID:    pool.ID,
		NewRoot:   bogus,
		BatchSize: len(commitments),
		Proof:     prove(t, batchFx, mkInputs(bogus)),
	})
	c.Assert(err, qt.ErrorIs, types.ErrProofVerificationFailed)

	receipt, err := engine.ProcessBatch(&BatchRequest{
		PoolID:    pool.ID,
		NewRoot:   newRoot,
		BatchSize: len(commitments),
		Proof:     prove(t, batchFx, mkInputs(newRoot)),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(receipt.LeafIndexes, qt.DeepEquals, []uint64{0, 1})

	root, err = engine.Root(pool.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(root.Cmp(newRoot), qt.Equals, 0)

	pending, err := stg.ListPending(pool.ID, types.MaxBatchSize)
	c.Assert(err, qt.IsNil)
	c.Assert(pending, qt.HasLen, 0)

	// drained queue cannot back another batch
	_, err = engine.ProcessBatch(&BatchRequest{
		PoolID:    pool.ID,
		NewRoot:   newRoot,
		BatchSize: 1,
		Proof:     make([]byte, types.ProofSize),
	})
	c.Assert(err, qt.ErrorIs, types.ErrStateConflict)
}

func TestBatchOnDirectPool(t *testing.T) {
	c := qt.New(t)
	engine, stg := newTestEngine(t)

	pool, err := engine.CreatePool(PoolConfig{ChainID: 1, Nonce: 6, Asset: testMint(), Depth: 4, Window: 3})
	c.Assert(err, qt.IsNil)
	installFixture(t, stg, types.ProofTypeBatch, 5)

	_, err = engine.ProcessBatch(&BatchRequest{
		PoolID:    pool.ID,
		NewRoot:   big.NewInt(1),
		BatchSize: 1,
		Proof:     make([]byte, types.ProofSize),
	})
	c.Assert(err, qt.ErrorIs, types.ErrValidation)
}

func TestMissingVerificationKey(t *testing.T) {
	c := qt.New(t)
	engine, _ := newTestEngine(t)

	pool, err := engine.CreatePool(PoolConfig{ChainID: 1, Nonce: 8, Asset: testMint(), Depth: 4, Window: 3})
	c.Assert(err, qt.IsNil)

	_, err = engine.Deposit(&DepositRequest{
		PoolID:     pool.ID,
		Commitment: big.NewInt(1),
		Amount:     big.NewInt(1),
		Proof:      make([]byte, types.ProofSize),
	})
	c.Assert(err, qt.ErrorIs, types.ErrConfig)
}

func TestCreatePoolTwice(t *testing.T) {
	c := qt.New(t)
	engine, _ := newTestEngine(t)

	cfg := PoolConfig{ChainID: 9, Nonce: 9, Asset: testMint(), Depth: 4, Window: 3}
	_, err := engine.CreatePool(cfg)
	c.Assert(err, qt.IsNil)
	_, err = engine.CreatePool(cfg)
	c.Assert(err, qt.ErrorIs, types.ErrStateConflict)
}
