package cache

import (
	"context"
	"log/slog"
	"os"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// DB is a thin, context-aware wrapper around a badger.DB handle.
//
// # Thread Safety
//
// DB is safe for concurrent use: badger itself serializes writes and
// allows lock-free, MVCC-consistent reads.
type DB struct {
	badger *badger.DB
	logger *slog.Logger
}

// Open opens a badger database per cfg, choosing in-memory or
// persistent mode based on cfg.InMemory.
func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, ErrInvalidCachePath
	}

	opts := badgerOptionsFor(cfg)
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &DB{badger: bdb, logger: slog.Default()}, nil
}

// OpenWithPath opens a persistent badger database at dir using
// DefaultConfig's tuning, overriding only the path.
func OpenWithPath(dir string) (*DB, error) {
	cfg := DefaultConfig()
	cfg.Path = dir
	return Open(cfg)
}

// OpenInMemory opens a badger database in pure in-memory mode using
// InMemoryConfig's tuning.
func OpenInMemory() (*DB, error) {
	return Open(InMemoryConfig())
}

// OpenDB is an alias for Open retained for call-site clarity where the
// caller already has a fully-populated Config in hand.
func OpenDB(cfg Config) (*DB, error) {
	return Open(cfg)
}

func badgerOptionsFor(cfg Config) badger.Options {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithCompression(options.ZSTD).
		WithLogger(nil)

	if cfg.NumVersionsToKeep > 0 {
		opts = opts.WithNumVersionsToKeep(cfg.NumVersionsToKeep)
	}

	return opts
}

// WithTxn runs fn inside a read-write badger transaction, committing on
// a nil return and rolling back otherwise. It aborts immediately if ctx
// is already done.
func (d *DB) WithTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return ErrContextCancelled
	}
	return d.badger.Update(fn)
}

// WithReadTxn runs fn inside a read-only badger transaction. It aborts
// immediately if ctx is already done.
func (d *DB) WithReadTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return ErrContextCancelled
	}
	return d.badger.View(fn)
}

// Close releases the underlying badger handle. Subsequent calls on this
// DB are undefined.
func (d *DB) Close() error {
	return d.badger.Close()
}

// TempDir creates a temporary directory for badger fixtures, returning
// its path.
func TempDir(prefix string) (string, error) {
	return os.MkdirTemp("", prefix)
}

// CleanupDir removes a directory created by TempDir. A blank dir is a
// no-op.
func CleanupDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}
