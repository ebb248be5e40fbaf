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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/ephemera"
	"github.com/poiesic/ephemera/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "ephemera",
		Usage:  "Maintain an ephemeral photo and video store",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the store directory (overrides the config file)",
				EnvVars: []string{"EPHEMERA_DB"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
			},
			&cli.IntFlag{
				Name:  "open-retries",
				Usage: "Attempts to open a store that is temporarily unavailable",
				Value: 3,
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff between open attempts",
				Value: 500 * time.Millisecond,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List stored media, newest first",
				Action: listCommand,
			},
			{
				Name:      "import",
				Usage:     "Store image and video files as new captures",
				ArgsUsage: "<file>...",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N files",
						Value: 10,
					},
				},
			},
			{
				Name:   "export",
				Usage:  "Write a record's payload to a file",
				Action: exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Record ID", Required: true},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file, - for stdout", Value: "-"},
				},
			},
			{
				Name:   "delete",
				Usage:  "Delete a record",
				Action: deleteCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Record ID", Required: true},
				},
			},
			{
				Name:   "purge",
				Usage:  "Delete every stored record",
				Action: purgeCommand,
			},
			{
				Name:   "sweep",
				Usage:  "Delete expired records once",
				Action: sweepCommand,
			},
			{
				Name:   "watch",
				Usage:  "Sweep expired records periodically until interrupted",
				Action: watchCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "Time between sweeps (defaults to the configured sweep interval)",
					},
					&cli.StringFlag{
						Name:  "metrics-addr",
						Usage: "Serve Prometheus metrics on this address, e.g. :9090",
					},
				},
			},
			{
				Name:  "settings",
				Usage: "Show or change capture settings",
				Subcommands: []*cli.Command{
					{
						Name:   "get",
						Usage:  "Show the current settings",
						Action: settingsGetCommand,
					},
					{
						Name:   "set",
						Usage:  "Change the current settings",
						Action: settingsSetCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "resolution", Usage: "Capture resolution (4k, 1080p, 720p, 480p)"},
							&cli.IntFlag{Name: "retention-hours", Usage: "Hours new captures are kept"},
						},
					},
				},
			},
		},
	}
}

// openStore builds the store config from flags and opens it, retrying while
// the store is unavailable (for example, locked by another process).
func openStore(c *cli.Context) (*ephemera.Store, error) {
	cfg := ephemera.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := ephemera.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if db := c.String("db"); db != "" {
		cfg.Path = db
	}
	cfg.Logger = slog.Default()

	var store *ephemera.Store
	err := retryWithBackoff(c.Context, func() error {
		s, err := ephemera.Open(cfg)
		if err != nil {
			if errors.Is(err, storage.ErrStoreUnavailable) {
				return err
			}
			return permanent(err)
		}
		store = s
		return nil
	}, c.Int("open-retries"), c.Duration("retry-delay"))
	if err != nil {
		return nil, err
	}
	return store, nil
}

// withStore opens the store for the duration of fn.
func withStore(c *cli.Context, fn func(ctx context.Context, store *ephemera.Store) error) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("error closing store", "err", err)
		}
	}()
	return fn(c.Context, store)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
