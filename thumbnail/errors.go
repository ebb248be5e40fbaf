package thumbnail

import "errors"

var (
	// ErrEmptyImage is returned when there are no bytes to decode.
	ErrEmptyImage = errors.New("empty image data")

	// ErrDecodeFailed is returned when the payload is not a decodable image.
	ErrDecodeFailed = errors.New("failed to decode image")

	// ErrEncodeFailed is returned when the thumbnail cannot be encoded.
	ErrEncodeFailed = errors.New("failed to encode thumbnail")

	// ErrFrameUnavailable is returned when no frame could be sampled from a clip.
	ErrFrameUnavailable = errors.New("video frame unavailable")
)
