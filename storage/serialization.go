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

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/ephemera/core"
)

// Row layout:
//
//	shape tag (varint)
//	id, kind, mimeType, thumbnail                  optional strings
//	durationSeconds, sizeBytes, createdAt, expiry  optional varints
//	resolution                                     optional string
//	width, height                                  optional varints
//	shape body
//
// Every optional field is a bool presence flag followed by the value when set.

// serializer is the subset of the mus-go serializer contract used here.
type serializer[T any] interface {
	Marshal(v T, bs []byte) (n int)
	Unmarshal(bs []byte) (v T, n int, err error)
	Size(v T) (size int)
}

func sizeOpt[T any](ser serializer[T], v *T) int {
	size := ord.Bool.Size(v != nil)
	if v != nil {
		size += ser.Size(*v)
	}
	return size
}

func marshalOpt[T any](ser serializer[T], v *T, bs []byte) int {
	n := ord.Bool.Marshal(v != nil, bs)
	if v != nil {
		n += ser.Marshal(*v, bs[n:])
	}
	return n
}

func unmarshalOpt[T any](ser serializer[T], bs []byte) (*T, int, error) {
	present, n, err := ord.Bool.Unmarshal(bs)
	if err != nil || !present {
		return nil, n, err
	}
	v, n1, err := ser.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return nil, n, err
	}
	return &v, n, nil
}

// stringFields, timingFields and dimensionFields list the optional scalars in wire order.
func stringFields(row *StoredRow) []**string {
	return []**string{&row.ID, &row.Kind, &row.MIMEType, &row.Thumbnail}
}

func timingFields(row *StoredRow) []**int64 {
	return []**int64{&row.DurationSeconds, &row.SizeBytes, &row.CreatedAt, &row.ExpiryDate}
}

func dimensionFields(row *StoredRow) []**int64 {
	return []**int64{&row.Width, &row.Height}
}

func shapeOf(row StoredRow) StorageShape {
	if row.Shape == nil {
		return NoShape{}
	}
	return row.Shape
}

// sizeStoredRow returns the encoded size of a row.
func sizeStoredRow(row StoredRow) int {
	shape := shapeOf(row)
	size := varint.Int.Size(shape.shapeTag())
	for _, f := range stringFields(&row) {
		size += sizeOpt[string](ord.String, *f)
	}
	for _, f := range timingFields(&row) {
		size += sizeOpt[int64](varint.Int64, *f)
	}
	size += sizeOpt[string](ord.String, row.Resolution)
	for _, f := range dimensionFields(&row) {
		size += sizeOpt[int64](varint.Int64, *f)
	}

	switch s := shape.(type) {
	case StorageShapeV2:
		size += ord.ByteSlice.Size(s.Buffer) + ord.ByteSlice.Size(s.Checksum)
	case StorageShapeV1:
		size += ord.Bool.Size(s.Embedded != nil)
		if s.Embedded != nil {
			size += ord.String.Size(s.Embedded.MIMEType) + ord.ByteSlice.Size(s.Embedded.Data)
		}
	}
	return size
}

// MarshalStoredRow serializes a StoredRow to bytes.
func MarshalStoredRow(row StoredRow) []byte {
	shape := shapeOf(row)
	buf := make([]byte, sizeStoredRow(row))
	n := varint.Int.Marshal(shape.shapeTag(), buf)
	for _, f := range stringFields(&row) {
		n += marshalOpt[string](ord.String, *f, buf[n:])
	}
	for _, f := range timingFields(&row) {
		n += marshalOpt[int64](varint.Int64, *f, buf[n:])
	}
	n += marshalOpt[string](ord.String, row.Resolution, buf[n:])
	for _, f := range dimensionFields(&row) {
		n += marshalOpt[int64](varint.Int64, *f, buf[n:])
	}

	switch s := shape.(type) {
	case StorageShapeV2:
		n += ord.ByteSlice.Marshal(s.Buffer, buf[n:])
		ord.ByteSlice.Marshal(s.Checksum, buf[n:])
	case StorageShapeV1:
		n += ord.Bool.Marshal(s.Embedded != nil, buf[n:])
		if s.Embedded != nil {
			n += ord.String.Marshal(s.Embedded.MIMEType, buf[n:])
			ord.ByteSlice.Marshal(s.Embedded.Data, buf[n:])
		}
	}
	return buf
}

// UnmarshalStoredRow deserializes a StoredRow from bytes.
func UnmarshalStoredRow(data []byte) (row StoredRow, err error) {
	defer func() {
		// mus-go may index past a short buffer on some malformed inputs
		if r := recover(); r != nil {
			row, err = StoredRow{}, fmt.Errorf("%w: %v", ErrSerializationFailed, r)
		}
	}()

	if len(data) == 0 {
		return StoredRow{}, ErrTruncatedData
	}

	tag, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return StoredRow{}, fmt.Errorf("%w: shape tag: %w", ErrSerializationFailed, err)
	}

	for _, f := range stringFields(&row) {
		v, n1, err := unmarshalOpt[string](ord.String, data[n:])
		if err != nil {
			return StoredRow{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		*f, n = v, n+n1
	}
	for _, f := range timingFields(&row) {
		v, n1, err := unmarshalOpt[int64](varint.Int64, data[n:])
		if err != nil {
			return StoredRow{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		*f, n = v, n+n1
	}
	res, n1, err := unmarshalOpt[string](ord.String, data[n:])
	if err != nil {
		return StoredRow{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	row.Resolution, n = res, n+n1
	for _, f := range dimensionFields(&row) {
		v, n1, err := unmarshalOpt[int64](varint.Int64, data[n:])
		if err != nil {
			return StoredRow{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		*f, n = v, n+n1
	}

	switch tag {
	case shapeTagCurrent:
		buffer, n1, err := ord.ByteSlice.Unmarshal(data[n:])
		if err != nil {
			return StoredRow{}, fmt.Errorf("%w: buffer: %w", ErrSerializationFailed, err)
		}
		n += n1
		sum, _, err := ord.ByteSlice.Unmarshal(data[n:])
		if err != nil {
			return StoredRow{}, fmt.Errorf("%w: checksum: %w", ErrSerializationFailed, err)
		}
		row.Shape = StorageShapeV2{Buffer: buffer, Checksum: sum}
	case shapeTagLegacy:
		present, n1, err := ord.Bool.Unmarshal(data[n:])
		if err != nil {
			return StoredRow{}, fmt.Errorf("%w: legacy payload: %w", ErrSerializationFailed, err)
		}
		n += n1
		shape := StorageShapeV1{}
		if present {
			mimeType, n1, err := ord.String.Unmarshal(data[n:])
			if err != nil {
				return StoredRow{}, fmt.Errorf("%w: legacy payload: %w", ErrSerializationFailed, err)
			}
			n += n1
			payload, _, err := ord.ByteSlice.Unmarshal(data[n:])
			if err != nil {
				return StoredRow{}, fmt.Errorf("%w: legacy payload: %w", ErrSerializationFailed, err)
			}
			shape.Embedded = &LegacyPayload{MIMEType: mimeType, Data: payload}
		}
		row.Shape = shape
	case shapeTagNone:
		row.Shape = NoShape{}
	default:
		return StoredRow{}, fmt.Errorf("%w: tag %d", ErrUnknownShape, tag)
	}
	return row, nil
}

// MarshalMediaRecord serializes a MediaRecord in the current row shape.
func MarshalMediaRecord(record *core.MediaRecord) []byte {
	return MarshalStoredRow(EncodeMediaRecord(record))
}

const settingsRowVersion = 1

// MarshalSettings serializes AppSettings to bytes.
func MarshalSettings(settings core.AppSettings) []byte {
	resolution := string(settings.Resolution)
	size := varint.Int.Size(settingsRowVersion) +
		ord.String.Size(resolution) +
		varint.Int.Size(settings.DefaultRetentionHours)
	buf := make([]byte, size)
	n := varint.Int.Marshal(settingsRowVersion, buf)
	n += ord.String.Marshal(resolution, buf[n:])
	varint.Int.Marshal(settings.DefaultRetentionHours, buf[n:])
	return buf
}

// UnmarshalSettings deserializes AppSettings from bytes.
func UnmarshalSettings(data []byte) (settings core.AppSettings, err error) {
	defer func() {
		if r := recover(); r != nil {
			settings, err = core.AppSettings{}, fmt.Errorf("%w: %v", ErrSerializationFailed, r)
		}
	}()

	version, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return core.AppSettings{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if version != settingsRowVersion {
		return core.AppSettings{}, fmt.Errorf("%w: settings version %d", ErrSerializationFailed, version)
	}
	resolution, n1, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return core.AppSettings{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += n1
	hours, _, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return core.AppSettings{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.AppSettings{
		Resolution:            core.Resolution(resolution),
		DefaultRetentionHours: hours,
	}, nil
}
