package storage

import (
	"bytes"
	"testing"

	"github.com/poiesic/ephemera/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadCodec_RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 64)

	for _, kind := range []core.MediaKind{core.KindPhoto, core.KindVideo} {
		t.Run(string(kind), func(t *testing.T) {
			mimeType := core.DefaultMIMEType(kind)
			payload := core.NewPayload(data, mimeType)

			buf := ToStorable(payload)
			restored, err := FromStorable(buf, mimeType)
			require.NoError(t, err)

			assert.Equal(t, data, restored.Bytes())
			assert.Equal(t, mimeType, restored.MIMEType())
		})
	}
}

func TestPayloadCodec_NoAliasing(t *testing.T) {
	payload := core.NewPayload([]byte("abc"), "image/jpeg")

	buf := ToStorable(payload)
	buf[0] = 'z'
	assert.Equal(t, "abc", string(payload.Bytes()), "ToStorable must copy")

	engine := []byte("engine owned")
	restored, err := FromStorable(engine, "image/jpeg")
	require.NoError(t, err)
	engine[0] = 'X'
	assert.Equal(t, "engine owned", string(restored.Bytes()), "FromStorable must copy")
}

func TestFromStorable_Empty(t *testing.T) {
	_, err := FromStorable(nil, "video/mp4")
	assert.ErrorIs(t, err, ErrEmptyBuffer)

	_, err = FromStorable([]byte{}, "video/mp4")
	assert.ErrorIs(t, err, ErrEmptyBuffer)
}

func TestChecksum(t *testing.T) {
	buf := []byte("some media")
	sum := Checksum(buf)
	assert.Len(t, sum, checksumSize)
	assert.Equal(t, sum, Checksum(buf))

	assert.True(t, VerifyChecksum(buf, sum))
	assert.True(t, VerifyChecksum(buf, nil), "absent checksum is accepted")
	assert.False(t, VerifyChecksum([]byte("other media"), sum))
}
