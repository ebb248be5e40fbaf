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
	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ephemera/storage"
)

// NewMemoryRepositories creates in-memory media and settings repositories for testing.
// Returns mediaRepo, settingsRepo, backend, and error.
// Caller must close mediaRepo and backend when done.
func NewMemoryRepositories(opts ...MediaOption) (storage.MediaRepository, storage.SettingsRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}

	mediaRepo, err := NewMediaRepository(backend, opts...)
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}

	settingsRepo, err := NewSettingsRepository(backend, nil)
	if err != nil {
		mediaRepo.Close()
		backend.Close()
		return nil, nil, nil, err
	}

	return mediaRepo, settingsRepo, backend, nil
}

// PutRawMediaRow writes value under the media key for id without any
// validation. Tests use it to plant legacy or damaged rows.
func (b *Backend) PutRawMediaRow(id string, value []byte) error {
	return b.update(func(tx *badger.Txn) error {
		return tx.Set(makeMediaKey(id), value)
	})
}
