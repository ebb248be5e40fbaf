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
	"bytes"
	"io"
	"time"

	"github.com/google/uuid"
)

// MediaKind identifies what a payload was captured as.
type MediaKind string

const (
	// KindPhoto is a still image.
	KindPhoto MediaKind = "photo"
	// KindVideo is a recorded clip.
	KindVideo MediaKind = "video"
)

// ParseMediaKind converts a stored kind tag into a MediaKind.
func ParseMediaKind(s string) (MediaKind, error) {
	switch MediaKind(s) {
	case KindPhoto, KindVideo:
		return MediaKind(s), nil
	}
	return "", ErrInvalidMediaKind
}

// Valid reports whether k is a known kind.
func (k MediaKind) Valid() bool {
	return k == KindPhoto || k == KindVideo
}

// Default MIME types used when a record does not carry one.
const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypeMP4  = "video/mp4"
)

// DefaultMIMEType returns the MIME type assumed for a kind.
func DefaultMIMEType(kind MediaKind) string {
	if kind == KindVideo {
		return MIMETypeMP4
	}
	return MIMETypeJPEG
}

// NewID returns a fresh opaque record identifier.
func NewID() string {
	return uuid.NewString()
}

// Payload is the in-memory form of captured media bytes.
// A Payload never shares its backing array with the caller that built it.
type Payload struct {
	data     []byte
	mimeType string
}

// NewPayload copies data into a new Payload tagged with mimeType.
func NewPayload(data []byte, mimeType string) Payload {
	return Payload{
		data:     bytes.Clone(data),
		mimeType: mimeType,
	}
}

// Bytes returns the payload bytes. Callers must not modify the result.
func (p Payload) Bytes() []byte { return p.data }

// MIMEType returns the encoding tag the payload was built with.
func (p Payload) MIMEType() string { return p.mimeType }

// Len returns the payload size in bytes.
func (p Payload) Len() int { return len(p.data) }

// IsEmpty reports whether the payload carries no bytes.
func (p Payload) IsEmpty() bool { return len(p.data) == 0 }

// Reader returns a reader over the payload bytes.
func (p Payload) Reader() io.Reader { return bytes.NewReader(p.data) }

// MediaRecord is one stored unit of captured media.
type MediaRecord struct {
	ID              string
	Kind            MediaKind
	Payload         Payload
	MIMEType        string
	Thumbnail       string // data: URI, a transient blob: handle, or empty
	DurationSeconds int
	SizeBytes       int64
	CreatedAt       time.Time
	ExpiryDate      time.Time
	Resolution      Resolution
	Width           int // 0 when unknown
	Height          int // 0 when unknown
}

// IsExpired reports whether the record's retention window has closed at now.
func (r *MediaRecord) IsExpired(now time.Time) bool {
	return r.ExpiryDate.Before(now)
}
