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

package storage

import "errors"

var (
	// ErrStoreUnavailable indicates the storage engine could not be created or opened.
	// It is fatal for the session; a later session may succeed.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrTransactionFailed indicates that the engine reported a transaction error.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrCorruptedRow indicates a stored row failed decoding or validation.
	// It never escapes a listing; repositories skip such rows.
	ErrCorruptedRow = errors.New("corrupted row")

	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData indicates that data was truncated during reading.
	ErrTruncatedData = errors.New("truncated data")

	// ErrEmptyBuffer indicates a stored byte buffer held no bytes.
	ErrEmptyBuffer = errors.New("empty buffer")

	// ErrChecksumMismatch indicates a stored buffer does not match its digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrUnknownShape indicates a row tagged with a storage shape this build does not know.
	ErrUnknownShape = errors.New("unknown storage shape")

	// ErrMissingField indicates a required row field is absent.
	ErrMissingField = errors.New("missing required field")
)
