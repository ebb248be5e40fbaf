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

import (
	"fmt"
	"strings"
	"time"
)

// ValidateMediaRecord validates a MediaRecord before it is written.
//
// Validation rules:
//   - Payload must not be empty
//   - ID must not be empty
//   - Kind must be Photo or Video
//   - CreatedAt must be after the Unix epoch at millisecond precision
//   - ExpiryDate must be strictly after CreatedAt at millisecond precision
//   - DurationSeconds must be non-negative, and zero for photos
//
// NOT validated (defaulted by NormalizeMediaRecord):
//   - MIMEType, SizeBytes, Resolution
//   - Thumbnail (may be regenerated from the payload at any time)
func ValidateMediaRecord(record *MediaRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.Payload.IsEmpty() {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyPayload)
	}

	if record.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMissingID)
	}

	if !record.Kind.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidRecord, ErrInvalidMediaKind, record.Kind)
	}

	// Rows store Unix milliseconds; compare what will be stored.
	created, expiry := record.CreatedAt.UnixMilli(), record.ExpiryDate.UnixMilli()
	if created <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrInvalidCreatedAt)
	}
	if expiry <= created {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrInvalidExpiry)
	}

	if record.DurationSeconds < 0 || (record.Kind == KindPhoto && record.DurationSeconds != 0) {
		return fmt.Errorf("%w: %w: %d", ErrInvalidRecord, ErrInvalidDuration, record.DurationSeconds)
	}

	return nil
}

// NormalizeMediaRecord applies write-time defaults in place.
// A MIME type that is missing or contradicts the kind is replaced by the
// kind's default, so a video never carries an image type and vice versa.
// Timestamps are brought to millisecond precision: CreatedAt rounds down
// and ExpiryDate rounds up, so a record is never swept before the expiry
// it was saved with.
func NormalizeMediaRecord(record *MediaRecord) {
	if record == nil {
		return
	}
	record.CreatedAt = record.CreatedAt.Truncate(time.Millisecond)
	record.ExpiryDate = ceilMillisecond(record.ExpiryDate)
	if !MIMEMatchesKind(record.Kind, record.MIMEType) {
		record.MIMEType = DefaultMIMEType(record.Kind)
	}
	record.SizeBytes = int64(record.Payload.Len())
	if !record.Resolution.Valid() {
		record.Resolution = DefaultResolution
	}
}

func ceilMillisecond(t time.Time) time.Time {
	floor := t.Truncate(time.Millisecond)
	if floor.Equal(t) {
		return floor
	}
	return floor.Add(time.Millisecond)
}

// MIMEMatchesKind reports whether mimeType is a non-empty type consistent with kind.
func MIMEMatchesKind(kind MediaKind, mimeType string) bool {
	switch kind {
	case KindPhoto:
		return strings.HasPrefix(mimeType, "image/")
	case KindVideo:
		return strings.HasPrefix(mimeType, "video/")
	}
	return false
}

// ValidateSettings validates AppSettings before they are stored.
func ValidateSettings(settings AppSettings) error {
	if !settings.Resolution.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidSettings, ErrInvalidResolution, settings.Resolution)
	}
	if settings.DefaultRetentionHours <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, ErrInvalidRetention)
	}
	return nil
}
