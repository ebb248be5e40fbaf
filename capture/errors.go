package capture

import "errors"

var (
	// ErrMediaRepositoryRequired is returned when a media repository is not provided.
	ErrMediaRepositoryRequired = errors.New("media repository required")

	// ErrSettingsRepositoryRequired is returned when a settings repository is not provided.
	ErrSettingsRepositoryRequired = errors.New("settings repository required")

	// ErrUnsupportedMedia is returned when bytes are neither an image nor a video.
	ErrUnsupportedMedia = errors.New("unsupported media type")
)
