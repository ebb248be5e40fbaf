package thumbnail

import (
	"context"
	"testing"

	"github.com/poiesic/ephemera/core"
	"github.com/stretchr/testify/assert"
)

func TestFFmpegSampler_EmptyClip(t *testing.T) {
	s := &FFmpegSampler{}
	_, err := s.SampleFrame(context.Background(), core.NewPayload(nil, core.MIMETypeMP4), DefaultFrameOffset)
	assert.ErrorIs(t, err, ErrFrameUnavailable)
}

func TestFFmpegSampler_MissingBinary(t *testing.T) {
	s := &FFmpegSampler{Binary: "ephemera-no-such-ffmpeg"}
	_, err := s.SampleFrame(context.Background(), core.NewPayload([]byte("clip"), core.MIMETypeMP4), DefaultFrameOffset)
	assert.ErrorIs(t, err, ErrFrameUnavailable)
}
