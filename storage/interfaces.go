package storage

import (
	"context"
	"time"

	"github.com/poiesic/ephemera/core"
)

// MediaRepository provides operations for managing captured media.
// Every method that touches the engine runs as its own transaction.
type MediaRepository interface {
	// Save validates and upserts a record keyed by its ID.
	// Returns core.ErrInvalidRecord, without writing, if the payload is empty
	// or the record is otherwise invalid. Saving the same ID twice overwrites.
	Save(ctx context.Context, record *core.MediaRecord) error

	// ListAll returns every readable record, newest first (ties by ID).
	// Corrupted rows are omitted, not reported. Photo thumbnails that are
	// missing or transient are regenerated before the records are returned.
	ListAll(ctx context.Context) ([]*core.MediaRecord, error)

	// Get retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist or cannot be decoded.
	Get(ctx context.Context, id string) (*core.MediaRecord, error)

	// DeleteByID removes a record. Deleting an absent ID is not an error.
	DeleteByID(ctx context.Context, id string) error

	// DeleteAll removes every media row and returns how many were removed.
	DeleteAll(ctx context.Context) (int, error)

	// SweepExpired deletes every record whose expiry date is before now
	// and returns how many were deleted.
	SweepExpired(ctx context.Context, now time.Time) (int, error)

	// Close releases resources held by the repository. The backend is not closed.
	Close() error
}

// SettingsRepository provides access to the single global settings record.
type SettingsRepository interface {
	// Get returns the stored settings, or core.DefaultSettings when none exist.
	// It never fails; read problems degrade to the default.
	Get(ctx context.Context) core.AppSettings

	// Put validates and upserts the settings record.
	Put(ctx context.Context, settings core.AppSettings) error
}
