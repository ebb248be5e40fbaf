// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/ephemera/storage"
)

const (
	// StoreName is the fixed logical name recorded in every store.
	StoreName = "ephemera"

	// SchemaVersion is the current schema version. Version 3 moved payloads
	// into an explicit buffer field.
	SchemaVersion = 3
)

var (
	// ErrSchemaTooNew indicates the store was written by a newer schema.
	ErrSchemaTooNew = errors.New("store schema is newer than supported")

	// ErrForeignStore indicates the directory holds a store with another name.
	ErrForeignStore = errors.New("store belongs to another application")
)

// migration is one idempotent schema step.
type migration struct {
	name  string
	apply func(b *Backend) error
}

// migrations run in order whenever the stored version is below SchemaVersion.
var migrations = []migration{
	{name: "drop legacy collections", apply: dropLegacyCollections},
	{name: "ensure media collection", apply: ensureCollection(mediaCollection, "id")},
	{name: "ensure settings collection", apply: ensureCollection(settingsCollection, "key")},
	{name: "upgrade legacy media rows", apply: upgradeLegacyRows},
}

// StoredSchemaVersion returns the version recorded in the store, or 0 for a new store.
func (b *Backend) StoredSchemaVersion() (int, error) {
	var version int
	err := b.view(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(metaSchemaKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			v, _, err := varint.Int.Unmarshal(val)
			if err != nil {
				return fmt.Errorf("%w: schema version: %w", storage.ErrSerializationFailed, err)
			}
			version = v
			return nil
		})
	})
	return version, err
}

// Migrate brings the store up to SchemaVersion. A store that is already
// current is left untouched.
func (b *Backend) Migrate() error {
	if err := b.checkName(); err != nil {
		return err
	}

	version, err := b.StoredSchemaVersion()
	if err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("%w: found %d, supported %d", ErrSchemaTooNew, version, SchemaVersion)
	}
	if version == SchemaVersion {
		return nil
	}

	b.logger.Info("upgrading store schema", "from", version, "to", SchemaVersion)
	for _, m := range migrations {
		if err := m.apply(b); err != nil {
			return fmt.Errorf("migration %q: %w", m.name, err)
		}
		b.logger.Debug("applied migration", "name", m.name)
	}

	return b.update(func(tx *badger.Txn) error {
		buf := make([]byte, varint.Int.Size(SchemaVersion))
		varint.Int.Marshal(SchemaVersion, buf)
		if err := tx.Set([]byte(metaSchemaKey), buf); err != nil {
			return err
		}
		return tx.Set([]byte(metaNameKey), []byte(StoreName))
	})
}

// checkName refuses to migrate a store written under another logical name.
func (b *Backend) checkName() error {
	return b.view(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(metaNameKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			if string(val) != StoreName {
				return fmt.Errorf("%w: %q", ErrForeignStore, string(val))
			}
			return nil
		})
	})
}

// dropLegacyCollections removes collections that earlier schemas used.
func dropLegacyCollections(b *Backend) error {
	return b.db.DropPrefix([]byte(legacyVideosPrefix), makeCollectionKey("videos"))
}

// ensureCollection registers a collection and the field its rows are keyed by.
func ensureCollection(name, keyPath string) func(b *Backend) error {
	return func(b *Backend) error {
		return b.update(func(tx *badger.Txn) error {
			key := makeCollectionKey(name)
			if _, err := tx.Get(key); err == nil {
				return nil
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			return tx.Set(key, []byte(keyPath))
		})
	}
}

// upgradeLegacyRows rewrites media rows still in the legacy shape.
// Rows that cannot be decoded are left as they are; readers skip them.
func upgradeLegacyRows(b *Backend) error {
	type rewrite struct {
		key   []byte
		value []byte
	}
	var rewrites []rewrite

	err := b.view(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(mediaPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			err := item.Value(func(val []byte) error {
				row, err := storage.UnmarshalStoredRow(val)
				if err != nil {
					return nil
				}
				if upgraded, ok := storage.UpgradeRow(row); ok {
					rewrites = append(rewrites, rewrite{
						key:   item.KeyCopy(nil),
						value: storage.MarshalStoredRow(upgraded),
					})
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil || len(rewrites) == 0 {
		return err
	}

	wb := b.db.NewWriteBatch()
	for _, rw := range rewrites {
		if err := wb.Set(rw.key, rw.value); err != nil {
			wb.Cancel()
			return txErr(err)
		}
	}
	if err := wb.Flush(); err != nil {
		return txErr(err)
	}
	b.logger.Info("upgraded legacy media rows", "count", len(rewrites))
	return nil
}
