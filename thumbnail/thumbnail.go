package thumbnail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/poiesic/ephemera/core"

	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxEdge is the longest edge of a photo thumbnail, in pixels.
	DefaultMaxEdge = 320

	// DefaultQuality is the JPEG quality of generated thumbnails.
	DefaultQuality = 70

	// VideoFrameWidth and VideoFrameHeight size video thumbnails.
	VideoFrameWidth  = 320
	VideoFrameHeight = 180

	dataURIPrefix = "data:"
	jpegURIPrefix = "data:image/jpeg;base64,"
)

// IsUsable reports whether thumb is a self-contained data: URI.
// Empty values and transient blob: handles are not usable.
func IsUsable(thumb string) bool {
	return strings.HasPrefix(thumb, dataURIPrefix) && len(thumb) > len(dataURIPrefix)
}

// Generate builds a photo thumbnail from payload using the default size and quality.
func Generate(payload core.Payload) (string, error) {
	return generate(payload.Bytes(), DefaultMaxEdge, DefaultQuality)
}

// FromVideoFrame scales a sampled frame to the fixed video thumbnail size.
// The frame is stretched, not letterboxed.
func FromVideoFrame(frame image.Image) (string, error) {
	if frame == nil {
		return "", ErrFrameUnavailable
	}
	thumb := imaging.Resize(frame, VideoFrameWidth, VideoFrameHeight, imaging.Lanczos)
	return encodeDataURI(thumb, DefaultQuality)
}

// generate decodes data, fits it within maxEdge on its longest side and
// encodes the result. Images already within bounds are not upscaled.
func generate(data []byte, maxEdge, quality int) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	return encodeDataURI(imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos), quality)
}

func encodeDataURI(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}
	return jpegURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURI returns the image bytes carried by a base64 data: URI.
func DecodeDataURI(uri string) ([]byte, error) {
	if !IsUsable(uri) {
		return nil, fmt.Errorf("%w: not a data URI", ErrDecodeFailed)
	}
	_, encoded, ok := strings.Cut(uri, ";base64,")
	if !ok {
		return nil, fmt.Errorf("%w: not base64 encoded", ErrDecodeFailed)
	}
	return base64.StdEncoding.DecodeString(encoded)
}
