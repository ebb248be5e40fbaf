package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/poiesic/ephemera"
	"github.com/poiesic/ephemera/capture"
	"github.com/poiesic/ephemera/core"
	"github.com/poiesic/ephemera/sweep"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func listCommand(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, store *ephemera.Store) error {
		records, err := store.Media().ListAll(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tMIME\tSIZE\tDURATION\tCREATED\tEXPIRES")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%ds\t%s\t%s\n",
				r.ID, r.Kind, r.MIMEType, r.SizeBytes, r.DurationSeconds,
				r.CreatedAt.Local().Format(time.DateTime),
				r.ExpiryDate.Local().Format(time.DateTime))
		}
		return w.Flush()
	})
}

func importCommand(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return errors.New("at least one file is required")
	}

	return withStore(c, func(ctx context.Context, store *ephemera.Store) error {
		intake, err := store.NewIntake()
		if err != nil {
			return err
		}

		progress := newImportProgress(os.Stderr, len(files), c.Int("report-interval"))
		progress.Begin()

		imported := 0
		for _, path := range files {
			id, size, err := importFile(ctx, intake, path)
			if err != nil {
				progress.Skipped()
				slog.Warn("skipping file", "path", path, "err", err)
				continue
			}
			progress.Stored(size)
			imported++
			fmt.Fprintln(c.App.Writer, id)
		}
		elapsed := progress.Done()

		slog.Info("import complete", "imported", imported, "skipped", len(files)-imported, "elapsed", elapsed)
		if imported == 0 {
			return errors.New("no files imported")
		}
		return nil
	})
}

func importFile(ctx context.Context, intake *capture.Intake, path string) (string, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, err
	}
	kind, mimeType, err := capture.DetectKind(data)
	if err != nil {
		return "", 0, err
	}
	record, err := intake.Save(ctx, capture.Capture{
		Payload:  data,
		Kind:     kind,
		MIMEType: mimeType,
	})
	if err != nil {
		return "", 0, err
	}
	return record.ID, len(data), nil
}

func exportCommand(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, store *ephemera.Store) error {
		record, err := store.Media().Get(ctx, c.String("id"))
		if err != nil {
			return err
		}

		out := c.String("out")
		if out == "-" {
			_, err = io.Copy(c.App.Writer, record.Payload.Reader())
			return err
		}
		if err := os.WriteFile(out, record.Payload.Bytes(), 0o644); err != nil {
			return err
		}
		slog.Info("exported media", "id", record.ID, "mime", record.MIMEType, "bytes", record.SizeBytes, "path", out)
		return nil
	})
}

func deleteCommand(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, store *ephemera.Store) error {
		return store.Media().DeleteByID(ctx, c.String("id"))
	})
}

func purgeCommand(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, store *ephemera.Store) error {
		start := time.Now()
		n, err := store.Media().DeleteAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "deleted %d records\n", n)
		slog.Info("purge complete", "deleted", n, "elapsed", time.Since(start))
		return nil
	})
}

func sweepCommand(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, store *ephemera.Store) error {
		sweeper, err := store.NewSweeper()
		if err != nil {
			return err
		}
		n, err := sweeper.SweepOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "deleted %d expired records\n", n)
		return nil
	})
}

func watchCommand(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, store *ephemera.Store) error {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		opts := []sweep.Option{sweep.WithRegisterer(reg)}
		if interval := c.Duration("interval"); interval > 0 {
			opts = append(opts, sweep.WithInterval(interval))
		}
		sweeper, err := store.NewSweeper(opts...)
		if err != nil {
			return err
		}

		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			sweeper.Run(ctx)
			return nil
		})
		if addr := c.String("metrics-addr"); addr != "" {
			server := &http.Server{
				Addr:              addr,
				Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
				ReadHeaderTimeout: 5 * time.Second,
			}
			eg.Go(func() error {
				slog.Info("serving metrics", "addr", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			eg.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
		}

		slog.Info("watching for expired media")
		err = eg.Wait()
		slog.Info("watch stopped")
		return err
	})
}

func settingsGetCommand(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, store *ephemera.Store) error {
		printSettings(c.App.Writer, store.Settings().Get(ctx))
		return nil
	})
}

func settingsSetCommand(c *cli.Context) error {
	if !c.IsSet("resolution") && !c.IsSet("retention-hours") {
		return errors.New("nothing to change: pass --resolution and/or --retention-hours")
	}

	return withStore(c, func(ctx context.Context, store *ephemera.Store) error {
		settings := store.Settings().Get(ctx)
		if c.IsSet("resolution") {
			res, err := core.ParseResolution(c.String("resolution"))
			if err != nil {
				return err
			}
			settings.Resolution = res
		}
		if c.IsSet("retention-hours") {
			settings.DefaultRetentionHours = c.Int("retention-hours")
		}
		if err := store.Settings().Put(ctx, settings); err != nil {
			return err
		}
		printSettings(c.App.Writer, settings)
		return nil
	})
}

func printSettings(w io.Writer, s core.AppSettings) {
	fmt.Fprintf(w, "resolution: %s\nretention_hours: %d\n", s.Resolution, s.DefaultRetentionHours)
}
