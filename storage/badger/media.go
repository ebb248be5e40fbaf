package badger

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ephemera/core"
	"github.com/poiesic/ephemera/storage"
	"github.com/poiesic/ephemera/thumbnail"
)

// ThumbnailRecoverer repairs photo thumbnails on records about to be returned.
type ThumbnailRecoverer interface {
	Recover(ctx context.Context, records []*core.MediaRecord)
}

// MediaRepository implements storage.MediaRepository for BadgerDB.
type MediaRepository struct {
	backend       *Backend
	recoverer     ThumbnailRecoverer
	ownsRecoverer *thumbnail.Recoverer
	logger        *slog.Logger
}

var _ storage.MediaRepository = (*MediaRepository)(nil)

// MediaOption configures a MediaRepository.
type MediaOption func(*MediaRepository)

// WithThumbnailRecoverer replaces the default pooled thumbnail recoverer.
// The caller keeps ownership of r.
func WithThumbnailRecoverer(r ThumbnailRecoverer) MediaOption {
	return func(m *MediaRepository) {
		m.recoverer = r
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) MediaOption {
	return func(m *MediaRepository) {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
	}
}

// NewMediaRepository creates a new MediaRepository.
func NewMediaRepository(backend *Backend, opts ...MediaOption) (*MediaRepository, error) {
	r := &MediaRepository{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.recoverer == nil {
		rec, err := thumbnail.NewRecoverer(thumbnail.WithLogger(r.logger))
		if err != nil {
			return nil, err
		}
		r.recoverer = rec
		r.ownsRecoverer = rec
	}
	return r, nil
}

// Close releases the thumbnail worker pool if the repository created it.
func (r *MediaRepository) Close() error {
	if r.ownsRecoverer != nil {
		r.ownsRecoverer.Release()
		r.ownsRecoverer = nil
	}
	return nil
}

// Save normalizes, validates and upserts a record.
// Defaults for MIME type, size and resolution and millisecond timestamps
// are applied to record in place, so record matches what is stored.
func (r *MediaRepository) Save(ctx context.Context, record *core.MediaRecord) error {
	core.NormalizeMediaRecord(record)
	if err := core.ValidateMediaRecord(record); err != nil {
		return err
	}

	value := storage.MarshalMediaRecord(record)
	return r.backend.update(func(tx *badger.Txn) error {
		return tx.Set(makeMediaKey(record.ID), value)
	})
}

// ListAll returns every readable record, newest first.
func (r *MediaRepository) ListAll(ctx context.Context) ([]*core.MediaRecord, error) {
	records, err := r.readAll()
	if err != nil {
		return nil, err
	}
	r.recoverer.Recover(ctx, records)
	return records, nil
}

// Get retrieves a single record by ID.
func (r *MediaRepository) Get(ctx context.Context, id string) (*core.MediaRecord, error) {
	var result storage.RowResult
	err := r.backend.view(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMediaKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			result = storage.DecodeRowBytes(val)
			return nil
		})
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if result.Corrupted() {
		r.logger.Warn("media row is corrupted", "id", id, "err", result.Err)
		return nil, storage.ErrNotFound
	}

	r.recoverer.Recover(ctx, []*core.MediaRecord{result.Record})
	return result.Record, nil
}

// DeleteByID removes a record. Deleting an absent ID is a no-op.
func (r *MediaRepository) DeleteByID(ctx context.Context, id string) error {
	return r.backend.update(func(tx *badger.Txn) error {
		return tx.Delete(makeMediaKey(id))
	})
}

// DeleteAll removes every media row, readable or not.
func (r *MediaRepository) DeleteAll(ctx context.Context) (int, error) {
	var keys [][]byte
	err := r.backend.view(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(mediaPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil || len(keys) == 0 {
		return 0, err
	}

	wb := r.backend.db.NewWriteBatch()
	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			wb.Cancel()
			return 0, txErr(err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, txErr(err)
	}
	return len(keys), nil
}

// SweepExpired deletes every record whose expiry date is before now.
// Each delete is its own transaction; a record already removed by a
// concurrent sweep is not counted again.
func (r *MediaRepository) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	records, err := r.readAll()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, record := range records {
		if !record.IsExpired(now) {
			continue
		}
		removed, err := r.deleteIfPresent(record.ID)
		if err != nil {
			return deleted, err
		}
		if removed {
			deleted++
			r.logger.Debug("swept expired media", "id", record.ID, "expiry", record.ExpiryDate)
		}
	}
	return deleted, nil
}

// Helper methods

// readAll decodes every media row, skipping corrupted ones, newest first.
func (r *MediaRepository) readAll() ([]*core.MediaRecord, error) {
	var records []*core.MediaRecord
	err := r.backend.view(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(mediaPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			var result storage.RowResult
			if err := item.Value(func(val []byte) error {
				result = storage.DecodeRowBytes(val)
				return nil
			}); err != nil {
				r.logger.Warn("unreadable media row", "id", mediaIDFromKey(item.Key()), "err", err)
				continue
			}
			if result.Corrupted() {
				r.logger.Debug("skipping corrupted media row", "id", mediaIDFromKey(item.Key()), "err", result.Err)
				continue
			}
			records = append(records, result.Record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(records)
	return records, nil
}

// deleteIfPresent deletes a record and reports whether it existed.
func (r *MediaRepository) deleteIfPresent(id string) (bool, error) {
	removed := false
	err := r.backend.update(func(tx *badger.Txn) error {
		key := makeMediaKey(id)
		if _, err := tx.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		removed = true
		return tx.Delete(key)
	})
	if errors.Is(err, badger.ErrConflict) {
		// Another transaction touched the row first; delete is idempotent.
		return false, nil
	}
	return removed && err == nil, err
}

// sortNewestFirst orders records by CreatedAt descending, then ID ascending.
func sortNewestFirst(records []*core.MediaRecord) {
	slices.SortFunc(records, func(a, b *core.MediaRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
