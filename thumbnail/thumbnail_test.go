package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/poiesic/ephemera/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, testImage(w, h), imaging.JPEG))
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func thumbBounds(t *testing.T, uri string) image.Rectangle {
	t.Helper()
	data, err := DecodeDataURI(uri)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	return image.Rect(0, 0, cfg.Width, cfg.Height)
}

func TestIsUsable(t *testing.T) {
	tests := []struct {
		name  string
		thumb string
		want  bool
	}{
		{"empty", "", false},
		{"blob handle", "blob:http://localhost/1234", false},
		{"bare prefix", "data:", false},
		{"data uri", "data:image/jpeg;base64,/9j/4AAQ", true},
		{"url", "https://example.com/thumb.jpg", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUsable(tt.thumb))
		})
	}
}

func TestGenerate_FitsLongestEdge(t *testing.T) {
	tests := []struct {
		name   string
		data   func(t *testing.T) []byte
		width  int
		height int
	}{
		{"landscape jpeg", func(t *testing.T) []byte { return jpegBytes(t, 640, 480) }, 320, 240},
		{"portrait png", func(t *testing.T) []byte { return pngBytes(t, 400, 800) }, 160, 320},
		{"small image is not upscaled", func(t *testing.T) []byte { return jpegBytes(t, 100, 50) }, 100, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri, err := Generate(core.NewPayload(tt.data(t), core.MIMETypeJPEG))
			require.NoError(t, err)
			assert.True(t, IsUsable(uri))
			assert.Contains(t, uri, "data:image/jpeg;base64,")

			b := thumbBounds(t, uri)
			assert.Equal(t, tt.width, b.Dx())
			assert.Equal(t, tt.height, b.Dy())
		})
	}
}

func TestGenerate_Errors(t *testing.T) {
	_, err := Generate(core.NewPayload(nil, core.MIMETypeJPEG))
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = Generate(core.NewPayload([]byte("not an image"), core.MIMETypeJPEG))
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestFromVideoFrame(t *testing.T) {
	uri, err := FromVideoFrame(testImage(1920, 1080))
	require.NoError(t, err)

	b := thumbBounds(t, uri)
	assert.Equal(t, VideoFrameWidth, b.Dx())
	assert.Equal(t, VideoFrameHeight, b.Dy())

	_, err = FromVideoFrame(nil)
	assert.ErrorIs(t, err, ErrFrameUnavailable)
}

func TestDecodeDataURI_Rejects(t *testing.T) {
	_, err := DecodeDataURI("blob:abc")
	assert.ErrorIs(t, err, ErrDecodeFailed)

	_, err = DecodeDataURI("data:text/plain,hello")
	assert.ErrorIs(t, err, ErrDecodeFailed)
}
