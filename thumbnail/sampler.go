package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/poiesic/ephemera/core"
)

// DefaultFrameOffset is where in a clip the thumbnail frame is taken.
const DefaultFrameOffset = 500 * time.Millisecond

// FrameSampler extracts a still frame from a video payload.
type FrameSampler interface {
	SampleFrame(ctx context.Context, payload core.Payload, offset time.Duration) (image.Image, error)
}

// FFmpegSampler samples frames by running an ffmpeg binary.
type FFmpegSampler struct {
	// Binary is the ffmpeg executable. Defaults to "ffmpeg" on PATH.
	Binary string
}

var _ FrameSampler = (*FFmpegSampler)(nil)

// SampleFrame writes the clip to a temporary file and asks ffmpeg for a
// single PNG frame at offset.
func (s *FFmpegSampler) SampleFrame(ctx context.Context, payload core.Payload, offset time.Duration) (image.Image, error) {
	if payload.IsEmpty() {
		return nil, fmt.Errorf("%w: empty clip", ErrFrameUnavailable)
	}
	binary := s.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFrameUnavailable, err)
	}

	tmp, err := os.CreateTemp("", "ephemera-clip-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFrameUnavailable, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload.Bytes()); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: %w", ErrFrameUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFrameUnavailable, err)
	}

	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary,
		"-hide_banner", "-loglevel", "error",
		"-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64),
		"-i", tmp.Name(),
		"-frames:v", "1",
		"-f", "image2pipe", "-vcodec", "png", "-",
	)
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %w: %s", ErrFrameUnavailable, err, bytes.TrimSpace(stderr.Bytes()))
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("%w: no frame at %s", ErrFrameUnavailable, offset)
	}

	frame, err := imaging.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFrameUnavailable, err)
	}
	return frame, nil
}
