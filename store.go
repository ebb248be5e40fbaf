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

package ephemera

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/poiesic/ephemera/capture"
	"github.com/poiesic/ephemera/storage"
	"github.com/poiesic/ephemera/storage/badger"
	"github.com/poiesic/ephemera/sweep"
	"github.com/poiesic/ephemera/thumbnail"
)

// Store is an open ephemeral media store.
type Store struct {
	cfg          *Config
	backend      *badger.Backend
	recoverer    *thumbnail.Recoverer
	mediaRepo    *badger.MediaRepository
	settingsRepo *badger.SettingsRepository
	logger       *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open opens or creates the store described by cfg and migrates it to the
// current schema. A nil cfg uses DefaultConfig.
// Failures to reach the engine wrap storage.ErrStoreUnavailable.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.logger()

	backend, err := badger.OpenBackend(cfg.Path, cfg.InMemory, badger.WithBackendLogger(logger))
	if err != nil {
		return nil, err
	}

	recoverer, err := thumbnail.NewRecoverer(
		thumbnail.WithPoolSize(cfg.ThumbnailPoolSize),
		thumbnail.WithLogger(logger),
	)
	if err != nil {
		backend.Close()
		return nil, err
	}

	mediaRepo, err := badger.NewMediaRepository(backend,
		badger.WithThumbnailRecoverer(recoverer),
		badger.WithLogger(logger),
	)
	if err != nil {
		recoverer.Release()
		backend.Close()
		return nil, err
	}

	settingsRepo, err := badger.NewSettingsRepository(backend, logger)
	if err != nil {
		mediaRepo.Close()
		recoverer.Release()
		backend.Close()
		return nil, err
	}

	return &Store{
		cfg:          cfg,
		backend:      backend,
		recoverer:    recoverer,
		mediaRepo:    mediaRepo,
		settingsRepo: settingsRepo,
		logger:       logger,
	}, nil
}

// Close releases the thumbnail workers and closes the engine.
// Calling it again is a no-op.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := s.mediaRepo.Close(); err != nil {
			s.logger.Error("error closing media repository", "err", err)
			errs = append(errs, err)
		}
		s.recoverer.Release()
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// Media returns the media repository.
func (s *Store) Media() storage.MediaRepository {
	return s.mediaRepo
}

// Settings returns the settings repository.
func (s *Store) Settings() storage.SettingsRepository {
	return s.settingsRepo
}

// NewIntake creates a capture intake writing to this store. Video frames are
// sampled with ffmpeg unless a sampler is passed in opts.
func (s *Store) NewIntake(opts ...capture.Option) (*capture.Intake, error) {
	defaults := []capture.Option{
		capture.WithLogger(s.logger),
		capture.WithFrameSampler(&thumbnail.FFmpegSampler{Binary: s.cfg.FFmpegPath}),
	}
	return capture.NewIntake(s.mediaRepo, s.settingsRepo, append(defaults, opts...)...)
}

// NewSweeper creates an expiry sweeper over this store using the configured
// interval. opts may override it.
func (s *Store) NewSweeper(opts ...sweep.Option) (*sweep.Sweeper, error) {
	defaults := []sweep.Option{
		sweep.WithInterval(s.cfg.SweepInterval),
		sweep.WithLogger(s.logger),
	}
	return sweep.NewSweeper(s.mediaRepo, append(defaults, opts...)...)
}
