// storage package contains all the artifacts the engine persists, on top of
// a prefixed key-value store. The following prefixes are used:
//   - 'p/'  for pool records
//   - 'vk/' for verification keys
//   - 'q/'  for pending commitments (queued for batch insertion)
//   - 'qs/' for pending-queue sequence counters
//   - 'r/'  for operation receipts
//
// Tree state ('t/') and nullifier records live in the same database but are
// written by their own packages through the operation's shared write
// transaction, so a whole operation commits or aborts atomically.
package storage

import (
	"errors"
	"sync"

	"go.vocdoni.io/dvote/db"
)

var (
	// Prefixes for the keys in the database.
	poolPrefix       = []byte("p/")
	vkPrefix         = []byte("vk/")
	pendingPrefix    = []byte("q/")
	pendingSeqPrefix = []byte("qs/")
	receiptPrefix    = []byte("r/")
)

const (
	// maxKeySize is the size of receipt keys, generated by truncating the
	// sha256 hash of the receipt itself.
	maxKeySize = 12
)

var (
	// ErrNotFound is returned when the requested artifact does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoMoreElements is returned by queue getters when the queue is
	// empty.
	ErrNoMoreElements = errors.New("no more elements")
)

// Storage wraps the database with typed accessors for every artifact kind.
type Storage struct {
	db         db.Database
	globalLock sync.Mutex
}

// New creates a new Storage instance on the given database.
func New(database db.Database) *Storage {
	return &Storage{db: database}
}

// Close closes the underlying database.
func (s *Storage) Close() {
	_ = s.db.Close()
}

// Database exposes the underlying database so operations can open one write
// transaction spanning storage, tree and nullifier mutations.
func (s *Storage) Database() db.Database {
	return s.db
}
