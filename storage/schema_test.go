package storage

import (
	"testing"
	"time"

	"github.com/poiesic/ephemera/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(kind core.MediaKind) *core.MediaRecord {
	created := time.Date(2025, 5, 4, 10, 30, 0, 0, time.UTC)
	return &core.MediaRecord{
		ID:         "rec-1",
		Kind:       kind,
		Payload:    core.NewPayload([]byte("payload bytes"), core.DefaultMIMEType(kind)),
		MIMEType:   core.DefaultMIMEType(kind),
		Thumbnail:  "data:image/jpeg;base64,AAAA",
		SizeBytes:  13,
		CreatedAt:  created,
		ExpiryDate: created.Add(24 * time.Hour),
		Resolution: core.Resolution720p,
		Width:      1280,
		Height:     720,
	}
}

// legacyRow builds a row in the pre-buffer layout with the payload embedded inline.
func legacyRow(record *core.MediaRecord) StoredRow {
	row := EncodeMediaRecord(record)
	row.Shape = StorageShapeV1{Embedded: &LegacyPayload{
		MIMEType: record.MIMEType,
		Data:     record.Payload.Bytes(),
	}}
	return row
}

func TestDecodeRow_CurrentShape(t *testing.T) {
	for _, kind := range []core.MediaKind{core.KindPhoto, core.KindVideo} {
		t.Run(string(kind), func(t *testing.T) {
			original := testRecord(kind)
			if kind == core.KindVideo {
				original.DurationSeconds = 7
			}

			result := DecodeRow(EncodeMediaRecord(original))
			require.False(t, result.Corrupted(), "unexpected error: %v", result.Err)
			assert.Equal(t, SourceCurrent, result.Source)
			assert.Equal(t, original, result.Record)
		})
	}
}

func TestDecodeRow_LegacyShapeMatchesCurrent(t *testing.T) {
	original := testRecord(core.KindPhoto)

	current := DecodeRow(EncodeMediaRecord(original))
	legacy := DecodeRow(legacyRow(original))

	require.False(t, current.Corrupted())
	require.False(t, legacy.Corrupted(), "unexpected error: %v", legacy.Err)
	assert.Equal(t, SourceLegacy, legacy.Source)
	assert.Equal(t, current.Record, legacy.Record)
}

func TestDecodeRow_Defaults(t *testing.T) {
	buf := []byte("0123456789")
	row := StoredRow{
		ID:         ptr("old"),
		Kind:       ptr("video"),
		CreatedAt:  ptr(int64(1_700_000_000_000)),
		ExpiryDate: ptr(int64(1_700_003_600_000)),
		Shape:      StorageShapeV2{Buffer: buf},
	}

	result := DecodeRow(row)
	require.False(t, result.Corrupted(), "unexpected error: %v", result.Err)

	r := result.Record
	assert.Equal(t, core.MIMETypeMP4, r.MIMEType)
	assert.Equal(t, core.MIMETypeMP4, r.Payload.MIMEType())
	assert.Equal(t, 0, r.DurationSeconds)
	assert.Equal(t, int64(10), r.SizeBytes)
	assert.Equal(t, core.Resolution1080p, r.Resolution)
	assert.Empty(t, r.Thumbnail)
	assert.Zero(t, r.Width)
	assert.Equal(t, time.UnixMilli(1_700_000_000_000).UTC(), r.CreatedAt)
}

func TestDecodeRow_Corrupted(t *testing.T) {
	valid := func() StoredRow { return EncodeMediaRecord(testRecord(core.KindPhoto)) }

	tests := []struct {
		name   string
		mutate func(*StoredRow)
		cause  error
	}{
		{"missing createdAt", func(r *StoredRow) { r.CreatedAt = nil }, ErrMissingField},
		{"zero createdAt", func(r *StoredRow) { r.CreatedAt = ptr(int64(0)) }, ErrMissingField},
		{"missing expiryDate", func(r *StoredRow) { r.ExpiryDate = nil }, ErrMissingField},
		{"missing id", func(r *StoredRow) { r.ID = nil }, ErrMissingField},
		{"empty id", func(r *StoredRow) { r.ID = ptr("") }, ErrMissingField},
		{"missing kind", func(r *StoredRow) { r.Kind = nil }, ErrMissingField},
		{"unknown kind", func(r *StoredRow) { r.Kind = ptr("hologram") }, core.ErrInvalidMediaKind},
		{"no payload", func(r *StoredRow) { r.Shape = NoShape{} }, ErrMissingField},
		{"nil shape", func(r *StoredRow) { r.Shape = nil }, ErrMissingField},
		{"empty buffer", func(r *StoredRow) { r.Shape = StorageShapeV2{} }, ErrEmptyBuffer},
		{"checksum mismatch", func(r *StoredRow) {
			r.Shape = StorageShapeV2{Buffer: []byte("tampered"), Checksum: Checksum([]byte("original"))}
		}, ErrChecksumMismatch},
		{"legacy without payload", func(r *StoredRow) { r.Shape = StorageShapeV1{} }, ErrEmptyBuffer},
		{"legacy with empty payload", func(r *StoredRow) {
			r.Shape = StorageShapeV1{Embedded: &LegacyPayload{MIMEType: "image/jpeg"}}
		}, ErrEmptyBuffer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := valid()
			tt.mutate(&row)

			result := DecodeRow(row)
			assert.True(t, result.Corrupted())
			assert.Nil(t, result.Record)
			assert.Equal(t, SourceCorrupted, result.Source)
			assert.ErrorIs(t, result.Err, ErrCorruptedRow)
			assert.ErrorIs(t, result.Err, tt.cause)
		})
	}
}

func TestDecodeRowBytes_Garbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"unknown shape tag", []byte{0x0e}},
		{"truncated", MarshalMediaRecord(testRecord(core.KindVideo))[:12]},
		{"random", []byte{0x04, 0x01, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DecodeRowBytes(tt.data)
			assert.True(t, result.Corrupted())
			assert.ErrorIs(t, result.Err, ErrCorruptedRow)
		})
	}
}

func TestUpgradeRow(t *testing.T) {
	original := testRecord(core.KindVideo)
	original.DurationSeconds = 3

	t.Run("legacy row is rewritten to current shape", func(t *testing.T) {
		upgraded, ok := UpgradeRow(legacyRow(original))
		require.True(t, ok)
		_, isCurrent := upgraded.Shape.(StorageShapeV2)
		assert.True(t, isCurrent)

		result := DecodeRow(upgraded)
		require.False(t, result.Corrupted())
		assert.Equal(t, SourceCurrent, result.Source)
		assert.Equal(t, original, result.Record)
	})

	t.Run("current row is left alone", func(t *testing.T) {
		row := EncodeMediaRecord(original)
		_, ok := UpgradeRow(row)
		assert.False(t, ok)
	})

	t.Run("corrupted legacy row is left alone", func(t *testing.T) {
		row := legacyRow(original)
		row.CreatedAt = nil
		same, ok := UpgradeRow(row)
		assert.False(t, ok)
		assert.Equal(t, row, same)
	})
}
