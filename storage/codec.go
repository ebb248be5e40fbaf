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
	"bytes"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/ephemera/core"
)

const checksumSize = 32

// ToStorable converts a payload into a storage-owned byte buffer.
// The result never aliases the payload's backing array.
func ToStorable(payload core.Payload) []byte {
	return bytes.Clone(payload.Bytes())
}

// FromStorable rebuilds a payload from a stored buffer and its MIME tag.
// Engine buffers are only valid for the life of a transaction, so the bytes
// are copied before the payload is returned.
func FromStorable(buf []byte, mimeType string) (core.Payload, error) {
	if len(buf) == 0 {
		return core.Payload{}, ErrEmptyBuffer
	}
	return core.NewPayload(buf, mimeType), nil
}

// Checksum returns the BLAKE2b digest stored next to a payload buffer.
func Checksum(buf []byte) []byte {
	h, _ := blake2b.New(checksumSize, nil)
	h.Write(buf)
	return h.Sum(nil)
}

// VerifyChecksum reports whether buf matches sum. An absent sum is accepted.
func VerifyChecksum(buf, sum []byte) bool {
	if len(sum) == 0 {
		return true
	}
	return bytes.Equal(Checksum(buf), sum)
}
