package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/poiesic/ephemera/core"
	"github.com/poiesic/ephemera/storage"
	"github.com/poiesic/ephemera/thumbnail"
)

// Capture is one piece of media as handed over by the capture device.
type Capture struct {
	Payload         []byte
	Kind            core.MediaKind
	MIMEType        string // optional; sniffed from Payload when empty
	DurationSeconds int    // videos only
	Width           int    // optional
	Height          int    // optional
}

// Intake stores captures as media records.
type Intake struct {
	media    storage.MediaRepository
	settings storage.SettingsRepository
	sampler  thumbnail.FrameSampler
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures an Intake.
type Option func(*Intake)

// WithClock sets the time source used for creation timestamps.
// Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(in *Intake) {
		if now != nil {
			in.now = now
		}
	}
}

// WithFrameSampler sets the sampler used for video thumbnails.
// Without one, videos are stored with an empty thumbnail.
func WithFrameSampler(sampler thumbnail.FrameSampler) Option {
	return func(in *Intake) {
		in.sampler = sampler
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(in *Intake) {
		if logger == nil {
			logger = slog.Default()
		}
		in.logger = logger
	}
}

// NewIntake creates an Intake writing to media and reading retention from settings.
func NewIntake(media storage.MediaRepository, settings storage.SettingsRepository, opts ...Option) (*Intake, error) {
	if media == nil {
		return nil, ErrMediaRepositoryRequired
	}
	if settings == nil {
		return nil, ErrSettingsRepositoryRequired
	}

	in := &Intake{
		media:    media,
		settings: settings,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in, nil
}

// Save builds a record from c and stores it. The returned record is the
// one written. Thumbnail failures never fail the save.
func (in *Intake) Save(ctx context.Context, c Capture) (*core.MediaRecord, error) {
	settings := in.settings.Get(ctx)
	created := in.now().UTC().Truncate(time.Millisecond)

	mimeType := resolveMIMEType(c)
	record := &core.MediaRecord{
		ID:              core.NewID(),
		Kind:            c.Kind,
		Payload:         core.NewPayload(c.Payload, mimeType),
		MIMEType:        mimeType,
		DurationSeconds: c.DurationSeconds,
		CreatedAt:       created,
		ExpiryDate:      settings.ExpiryFor(created),
		Resolution:      settings.Resolution,
		Width:           c.Width,
		Height:          c.Height,
	}
	if record.Kind == core.KindPhoto && (record.Width == 0 || record.Height == 0) {
		record.Width, record.Height = imageDimensions(c.Payload)
	}
	record.Thumbnail = in.thumbnailFor(ctx, record)

	if err := in.media.Save(ctx, record); err != nil {
		return nil, err
	}
	in.logger.Debug("captured media",
		"id", record.ID,
		"kind", record.Kind,
		"size", record.SizeBytes,
		"expiry", record.ExpiryDate)
	return record, nil
}

func (in *Intake) thumbnailFor(ctx context.Context, record *core.MediaRecord) string {
	if record.Payload.IsEmpty() {
		return ""
	}
	switch record.Kind {
	case core.KindPhoto:
		thumb, err := thumbnail.Generate(record.Payload)
		if err != nil {
			in.logger.Debug("photo thumbnail failed", "id", record.ID, "err", err)
			return ""
		}
		return thumb
	case core.KindVideo:
		if in.sampler == nil {
			return ""
		}
		frame, err := in.sampler.SampleFrame(ctx, record.Payload, thumbnail.DefaultFrameOffset)
		if err != nil {
			in.logger.Debug("video frame unavailable", "id", record.ID, "err", err)
			return ""
		}
		thumb, err := thumbnail.FromVideoFrame(frame)
		if err != nil {
			in.logger.Debug("video thumbnail failed", "id", record.ID, "err", err)
			return ""
		}
		return thumb
	}
	return ""
}

// resolveMIMEType prefers the declared type, then the sniffed type, then the
// kind default, taking the first one consistent with the capture's kind.
func resolveMIMEType(c Capture) string {
	if core.MIMEMatchesKind(c.Kind, c.MIMEType) {
		return c.MIMEType
	}
	if sniffed := Sniff(c.Payload); core.MIMEMatchesKind(c.Kind, sniffed) {
		return sniffed
	}
	return core.DefaultMIMEType(c.Kind)
}

// Sniff returns the bare MIME type detected from data, without parameters.
func Sniff(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return strings.TrimSpace(mediaType)
}

// DetectKind infers the media kind and MIME type from raw bytes.
func DetectKind(data []byte) (core.MediaKind, string, error) {
	mimeType := Sniff(data)
	switch {
	case core.MIMEMatchesKind(core.KindPhoto, mimeType):
		return core.KindPhoto, mimeType, nil
	case core.MIMEMatchesKind(core.KindVideo, mimeType):
		return core.KindVideo, mimeType, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnsupportedMedia, mimeType)
}

func imageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
