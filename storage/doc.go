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

// Package storage provides the storage abstraction layer for ephemera.
//
// This package defines the repository interfaces, the binary payload codec,
// and the on-disk record schema. Engine-specific code lives in subpackages
// (see storage/badger).
//
// # Payload Codec
//
// ToStorable and FromStorable are the single seam between the in-memory
// core.Payload and the engine's byte buffers. Engine buffers are only valid
// inside a transaction, so FromStorable always copies.
//
// # Record Schema
//
// Rows are stored as a StoredRow: optional scalar fields plus a StorageShape,
// which is one of:
//
//   - StorageShapeV2: explicit buffer and checksum (written by this version)
//   - StorageShapeV1: legacy rows that embedded the payload object inline
//   - NoShape: the payload is missing
//
// DecodeRow matches on the shape exactly once and returns a RowResult.
// Rows that cannot be decoded come back as corrupted results wrapping
// ErrCorruptedRow; repositories drop them so that one bad row never hides
// the rest of the library.
//
// # Usage
//
// Open a store through the root package:
//
//	store, err := ephemera.Open(ephemera.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// Use in tests with in-memory storage:
//
//	media, settings, backend, err := badger.NewMemoryRepositories()
//
// # Context Support
//
// Repository methods accept context.Context for API symmetry. Operations are
// not cancellable mid-flight; a caller that no longer needs a result drops it.
package storage
