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
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds configuration for opening a Store.
type Config struct {
	// Path is the directory holding the store. Created if missing.
	// Ignored when InMemory is set.
	Path string `yaml:"path"`

	// InMemory keeps the whole store in memory. Nothing survives Close.
	InMemory bool `yaml:"in_memory"`

	// SweepInterval is the time between scheduled expiry sweeps.
	// Default: 1m
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// ThumbnailPoolSize is the number of workers regenerating photo thumbnails.
	// Default: runtime.NumCPU() / 2, at least 1
	ThumbnailPoolSize int `yaml:"thumbnail_pool_size"`

	// FFmpegPath is the ffmpeg binary used to sample video frames at capture.
	// Default: "ffmpeg" on PATH
	FFmpegPath string `yaml:"ffmpeg_path"`

	// Logger receives store diagnostics. Default: slog.Default()
	Logger *slog.Logger `yaml:"-"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithPath sets the store directory.
func WithPath(path string) ConfigOption {
	return func(c *Config) {
		c.Path = path
	}
}

// WithInMemory keeps the store in memory only.
func WithInMemory() ConfigOption {
	return func(c *Config) {
		c.InMemory = true
	}
}

// WithSweepInterval sets the time between expiry sweeps.
func WithSweepInterval(interval time.Duration) ConfigOption {
	return func(c *Config) {
		c.SweepInterval = interval
	}
}

// WithThumbnailPoolSize sets the thumbnail worker count.
func WithThumbnailPoolSize(size int) ConfigOption {
	return func(c *Config) {
		c.ThumbnailPoolSize = size
	}
}

// WithFFmpegPath sets the ffmpeg binary used for video thumbnails.
func WithFFmpegPath(path string) ConfigOption {
	return func(c *Config) {
		c.FFmpegPath = path
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns a Config for a store in ./ephemera.db.
func DefaultConfig() *Config {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	return &Config{
		Path:              "ephemera.db",
		SweepInterval:     time.Minute,
		ThumbnailPoolSize: poolSize,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithPath("/var/lib/ephemera"),
//	    WithSweepInterval(30*time.Second),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
// Keys absent from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return fmt.Errorf("%w: path is required unless in_memory is set", ErrInvalidConfig)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("%w: sweep_interval must be positive", ErrInvalidConfig)
	}
	if c.ThumbnailPoolSize < 1 {
		return fmt.Errorf("%w: thumbnail_pool_size must be at least 1", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
