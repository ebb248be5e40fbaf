package badger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ephemera/core"
	"github.com/poiesic/ephemera/storage"
)

// SettingsRepository implements storage.SettingsRepository for BadgerDB.
type SettingsRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.SettingsRepository = (*SettingsRepository)(nil)

// NewSettingsRepository creates a new SettingsRepository.
func NewSettingsRepository(backend *Backend, logger *slog.Logger) (*SettingsRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsRepository{backend: backend, logger: logger}, nil
}

// Get returns the stored settings. An absent, unreadable or invalid row
// yields core.DefaultSettings.
func (r *SettingsRepository) Get(ctx context.Context) core.AppSettings {
	var settings core.AppSettings
	found := false
	err := r.backend.view(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSettingsKey())
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			s, err := storage.UnmarshalSettings(val)
			if err != nil {
				return err
			}
			settings = s
			found = true
			return nil
		})
	})
	if err != nil {
		r.logger.Warn("failed to read settings, using defaults", "err", err)
		return core.DefaultSettings()
	}
	if !found {
		return core.DefaultSettings()
	}
	if err := core.ValidateSettings(settings); err != nil {
		r.logger.Warn("stored settings are invalid, using defaults", "err", err)
		return core.DefaultSettings()
	}
	return settings
}

// Put validates and upserts the settings record.
func (r *SettingsRepository) Put(ctx context.Context, settings core.AppSettings) error {
	if err := core.ValidateSettings(settings); err != nil {
		return err
	}
	value := storage.MarshalSettings(settings)
	return r.backend.update(func(tx *badger.Txn) error {
		return tx.Set(makeSettingsKey(), value)
	})
}
