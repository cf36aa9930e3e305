package types

const (
	// DefaultTreeDepth is the default number of levels in a pool's
	// commitment tree.
	DefaultTreeDepth = 20
	// MaxTreeDepth bounds the configurable commitment tree depth.
	MaxTreeDepth = 32
	// DefaultRootHistorySize is the default number of past roots accepted
	// for proof submission.
	DefaultRootHistorySize = 30
	// MaxBatchSize is the maximum number of queued commitments a single
	// batch-insertion proof may cover.
	MaxBatchSize = 8
	// ProofSize is the byte length of a serialized Groth16 proof (A + B + C).
	ProofSize = 64 + 128 + 64
	// FieldSize is the byte length of a serialized field element.
	FieldSize = 32
)

// ProofType identifies a circuit. The verifier keeps an independent
// verification key per proof type.
type ProofType string

const (
	ProofTypeDeposit    ProofType = "deposit"
	ProofTypeWithdraw   ProofType = "withdraw"
	ProofTypeJoinSplit  ProofType = "joinsplit"
	ProofTypeMembership ProofType = "membership"
	ProofTypeBatch      ProofType = "batch"
)
