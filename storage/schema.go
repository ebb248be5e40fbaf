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

import (
	"fmt"
	"time"

	"github.com/poiesic/ephemera/core"
)

// StorageShape is the payload-carrying part of a stored media row.
// It is one of StorageShapeV1, StorageShapeV2 or NoShape.
type StorageShape interface {
	shapeTag() int
}

// Shape tags as written on disk.
const (
	shapeTagNone    = 0
	shapeTagLegacy  = 1
	shapeTagCurrent = 2
)

// LegacyPayload is the payload object older rows embedded inline.
type LegacyPayload struct {
	MIMEType string
	Data     []byte
}

// StorageShapeV1 is the legacy shape: the payload object embedded directly,
// without an explicit buffer field.
type StorageShapeV1 struct {
	Embedded *LegacyPayload
}

// StorageShapeV2 is the current shape: an explicit byte buffer plus its digest.
type StorageShapeV2 struct {
	Buffer   []byte
	Checksum []byte
}

// NoShape marks a row whose payload is absent or could not be read.
type NoShape struct{}

func (StorageShapeV1) shapeTag() int { return shapeTagLegacy }
func (StorageShapeV2) shapeTag() int { return shapeTagCurrent }
func (NoShape) shapeTag() int        { return shapeTagNone }

// StoredRow is the loosely-typed on-disk view of a media row.
// A nil field was absent when the row was written; older row versions
// omit fields that later versions added.
type StoredRow struct {
	ID              *string
	Kind            *string
	MIMEType        *string
	Thumbnail       *string
	DurationSeconds *int64
	SizeBytes       *int64
	CreatedAt       *int64 // Unix milliseconds
	ExpiryDate      *int64 // Unix milliseconds
	Resolution      *string
	Width           *int64
	Height          *int64
	Shape           StorageShape
}

// RowSource records which branch of the decoder produced a RowResult.
type RowSource int

const (
	// SourceCorrupted means the row was rejected.
	SourceCorrupted RowSource = iota
	// SourceCurrent means the payload came from the explicit buffer.
	SourceCurrent
	// SourceLegacy means the payload came from an embedded legacy object.
	SourceLegacy
)

func (s RowSource) String() string {
	switch s {
	case SourceCurrent:
		return "current"
	case SourceLegacy:
		return "legacy"
	default:
		return "corrupted"
	}
}

// RowResult is the outcome of decoding one stored row.
// Exactly one of Record and Err is set; Err always wraps ErrCorruptedRow.
type RowResult struct {
	Record *core.MediaRecord
	Source RowSource
	Err    error
}

// Corrupted reports whether the row was rejected.
func (r RowResult) Corrupted() bool {
	return r.Err != nil
}

func corrupted(cause error) RowResult {
	return RowResult{Source: SourceCorrupted, Err: fmt.Errorf("%w: %w", ErrCorruptedRow, cause)}
}

// EncodeMediaRecord converts a record into the current row shape.
func EncodeMediaRecord(record *core.MediaRecord) StoredRow {
	buf := ToStorable(record.Payload)
	row := StoredRow{
		ID:              ptr(record.ID),
		Kind:            ptr(string(record.Kind)),
		MIMEType:        ptr(record.MIMEType),
		DurationSeconds: ptr(int64(record.DurationSeconds)),
		SizeBytes:       ptr(record.SizeBytes),
		CreatedAt:       ptr(record.CreatedAt.UnixMilli()),
		ExpiryDate:      ptr(record.ExpiryDate.UnixMilli()),
		Resolution:      ptr(string(record.Resolution)),
		Shape: StorageShapeV2{
			Buffer:   buf,
			Checksum: Checksum(buf),
		},
	}
	if record.Thumbnail != "" {
		row.Thumbnail = ptr(record.Thumbnail)
	}
	if record.Width > 0 {
		row.Width = ptr(int64(record.Width))
	}
	if record.Height > 0 {
		row.Height = ptr(int64(record.Height))
	}
	return row
}

// DecodeRow converts a stored row into a MediaRecord.
//
// The payload is resolved in priority order:
//  1. current shape with a valid buffer, decoded through the codec
//  2. legacy shape with a valid embedded payload, used as is
//  3. anything else is corrupted
//
// Rows missing id, kind, createdAt or expiryDate are corrupted as well.
// Optional fields take their defaults: MIME type from kind, zero duration,
// size from the payload length, and the default resolution.
func DecodeRow(row StoredRow) RowResult {
	// Kind is needed first because the MIME default depends on it.
	var kind core.MediaKind
	if row.Kind != nil {
		k, err := core.ParseMediaKind(*row.Kind)
		if err != nil {
			return corrupted(err)
		}
		kind = k
	}
	mimeType := deref(row.MIMEType)
	if mimeType == "" {
		mimeType = core.DefaultMIMEType(kind)
	}

	var (
		payload core.Payload
		source  RowSource
	)
	switch shape := row.Shape.(type) {
	case StorageShapeV2:
		if !VerifyChecksum(shape.Buffer, shape.Checksum) {
			return corrupted(ErrChecksumMismatch)
		}
		p, err := FromStorable(shape.Buffer, mimeType)
		if err != nil {
			return corrupted(err)
		}
		payload, source = p, SourceCurrent
	case StorageShapeV1:
		if shape.Embedded == nil || len(shape.Embedded.Data) == 0 {
			return corrupted(fmt.Errorf("%w: legacy payload", ErrEmptyBuffer))
		}
		legacyType := shape.Embedded.MIMEType
		if legacyType == "" {
			legacyType = mimeType
		}
		payload, source = core.NewPayload(shape.Embedded.Data, legacyType), SourceLegacy
	case NoShape, nil:
		return corrupted(fmt.Errorf("%w: payload", ErrMissingField))
	default:
		return corrupted(fmt.Errorf("%w: %T", ErrUnknownShape, shape))
	}

	if err := requireFields(row); err != nil {
		return corrupted(err)
	}

	record := &core.MediaRecord{
		ID:              *row.ID,
		Kind:            kind,
		Payload:         payload,
		MIMEType:        mimeType,
		Thumbnail:       deref(row.Thumbnail),
		DurationSeconds: int(deref(row.DurationSeconds)),
		SizeBytes:       deref(row.SizeBytes),
		CreatedAt:       time.UnixMilli(*row.CreatedAt).UTC(),
		ExpiryDate:      time.UnixMilli(*row.ExpiryDate).UTC(),
		Resolution:      core.Resolution(deref(row.Resolution)),
		Width:           int(deref(row.Width)),
		Height:          int(deref(row.Height)),
	}
	if record.SizeBytes <= 0 {
		record.SizeBytes = int64(payload.Len())
	}
	if record.Resolution == "" {
		record.Resolution = core.DefaultResolution
	}
	if record.DurationSeconds < 0 {
		record.DurationSeconds = 0
	}

	return RowResult{Record: record, Source: source}
}

// DecodeRowBytes unmarshals and decodes a raw row value.
// Unreadable bytes yield a corrupted result rather than an error.
func DecodeRowBytes(data []byte) RowResult {
	row, err := UnmarshalStoredRow(data)
	if err != nil {
		return corrupted(err)
	}
	return DecodeRow(row)
}

// UpgradeRow rewrites a decodable legacy row into the current shape.
// It reports false for rows that are already current or cannot be decoded.
func UpgradeRow(row StoredRow) (StoredRow, bool) {
	if _, ok := row.Shape.(StorageShapeV1); !ok {
		return row, false
	}
	result := DecodeRow(row)
	if result.Corrupted() {
		return row, false
	}
	return EncodeMediaRecord(result.Record), true
}

// requireFields checks the fields without which a row cannot be listed.
// Zero values count as missing.
func requireFields(row StoredRow) error {
	switch {
	case row.ID == nil || *row.ID == "":
		return fmt.Errorf("%w: id", ErrMissingField)
	case row.Kind == nil:
		return fmt.Errorf("%w: kind", ErrMissingField)
	case row.CreatedAt == nil || *row.CreatedAt == 0:
		return fmt.Errorf("%w: createdAt", ErrMissingField)
	case row.ExpiryDate == nil || *row.ExpiryDate == 0:
		return fmt.Errorf("%w: expiryDate", ErrMissingField)
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
