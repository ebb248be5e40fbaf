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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecord indicates a MediaRecord failed validation and was not written.
	ErrInvalidRecord = errors.New("invalid media record")

	// ErrEmptyPayload indicates the record carries no media bytes.
	ErrEmptyPayload = errors.New("payload cannot be empty")

	// ErrMissingID indicates the record has no identifier.
	ErrMissingID = errors.New("id cannot be empty")

	// ErrInvalidMediaKind indicates an unknown MediaKind value.
	ErrInvalidMediaKind = errors.New("invalid media kind")

	// ErrInvalidCreatedAt indicates a creation time at or before the Unix epoch.
	ErrInvalidCreatedAt = errors.New("creation time must be after the Unix epoch")

	// ErrInvalidExpiry indicates the expiry date is not after the creation time.
	ErrInvalidExpiry = errors.New("expiry date must be after creation time")

	// ErrInvalidDuration indicates a negative duration, or a non-zero one on a photo.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidSettings indicates AppSettings failed validation.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrInvalidResolution indicates an unknown resolution preset.
	ErrInvalidResolution = errors.New("invalid resolution")

	// ErrInvalidRetention indicates a non-positive retention window.
	ErrInvalidRetention = errors.New("retention hours must be positive")
)
