package badger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/ephemera/storage"
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db        *badger.DB
	logger    *slog.Logger
	closeOnce sync.Once
	closeErr  error
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithBackendLogger sets the logger used by the backend and the engine.
// Default is slog.Default().
func WithBackendLogger(logger *slog.Logger) BackendOption {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// OpenBackend opens the store at the specified path and brings its schema
// up to date. Creates the directory if it doesn't exist.
// Every failure wraps storage.ErrStoreUnavailable.
func OpenBackend(filePath string, inMemory bool, opts ...BackendOption) (*Backend, error) {
	cfg := &Backend{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	backend, err := openEngine(filePath, inMemory, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}

	if err := backend.Migrate(); err != nil {
		backend.Close()
		return nil, fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
	return backend, nil
}

func openEngine(filePath string, inMemory bool, logger *slog.Logger) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: logger}
	// Media payloads are already compressed formats
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the BadgerDB database. Calling it again is a no-op.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = b.db.Close()
	})
	return b.closeErr
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// view runs fn in a read-only transaction and classifies engine errors.
func (b *Backend) view(fn func(tx *badger.Txn) error) error {
	return txErr(b.WithTx(fn, false))
}

// update runs fn in a read-write transaction, commits it, and classifies engine errors.
func (b *Backend) update(fn func(tx *badger.Txn) error) error {
	return txErr(b.WithTx(func(tx *badger.Txn) error {
		if err := fn(tx); err != nil {
			return err
		}
		return tx.Commit()
	}, true))
}

// passthroughErrors are already classified and are never wrapped by txErr.
var passthroughErrors = []error{
	storage.ErrStorageClosed,
	storage.ErrTransactionFailed,
	storage.ErrNotFound,
	storage.ErrSerializationFailed,
	ErrForeignStore,
}

// txErr wraps engine failures in storage.ErrTransactionFailed.
func txErr(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range passthroughErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
}
