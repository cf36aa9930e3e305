package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// PoolsEndpoint is the endpoint for creating a new shielded pool
	PoolsEndpoint = "/pools"
	// PoolEndpoint is the endpoint to get the pool info
	PoolURLParam = "poolId"
	PoolEndpoint = "/pools/{" + PoolURLParam + "}"
	// PoolRootEndpoint is the endpoint to get the current commitment tree
	// root of a pool
	PoolRootEndpoint = "/pools/{" + PoolURLParam + "}/root"
	// PoolKnownRootEndpoint is the endpoint to check a root against the
	// pool's history window
	RootURLParam          = "root"
	PoolKnownRootEndpoint = "/pools/{" + PoolURLParam + "}/roots/{" + RootURLParam + "}"
	// Operation endpoints, one per proof type
	DepositEndpoint    = "/operations/deposit"
	WithdrawEndpoint   = "/operations/withdraw"
	JoinSplitEndpoint  = "/operations/joinsplit"
	MembershipEndpoint = "/operations/membership"
	BatchEndpoint      = "/operations/batch"
	// ReceiptEndpoint is the endpoint to get a stored operation receipt
	ReceiptURLParam    = "receiptId"
	ReceiptsPathPrefix = "/receipts"
	ReceiptEndpoint    = ReceiptsPathPrefix + "/{" + ReceiptURLParam + "}"
)
