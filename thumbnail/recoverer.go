package thumbnail

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ephemera/core"
)

// Recoverer regenerates unusable photo thumbnails on a bounded worker pool.
type Recoverer struct {
	pool    *ants.Pool
	maxEdge int
	quality int
	logger  *slog.Logger
}

// Option configures a Recoverer.
type Option func(*Recoverer) error

// WithPoolSize sets the number of concurrent thumbnail workers.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(r *Recoverer) error {
		if size < 1 {
			size = 1
		}
		if r.pool != nil {
			r.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recoverer) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithMaxEdge sets the longest edge of regenerated thumbnails.
func WithMaxEdge(px int) Option {
	return func(r *Recoverer) error {
		if px > 0 {
			r.maxEdge = px
		}
		return nil
	}
}

// WithQuality sets the JPEG quality of regenerated thumbnails (1-100).
func WithQuality(q int) Option {
	return func(r *Recoverer) error {
		if q >= 1 && q <= 100 {
			r.quality = q
		}
		return nil
	}
}

// NewRecoverer creates a Recoverer with its own worker pool.
// Call Release when done.
func NewRecoverer(opts ...Option) (*Recoverer, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	r := &Recoverer{
		pool:    pool,
		maxEdge: DefaultMaxEdge,
		quality: DefaultQuality,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(r); optErr != nil {
			r.Release()
			return nil, optErr
		}
	}
	return r, nil
}

// Recover replaces every unusable photo thumbnail in records with one built
// from the payload, or with "" when that fails. Video records are untouched.
// Recover returns once every record has been handled.
func (r *Recoverer) Recover(ctx context.Context, records []*core.MediaRecord) {
	var wg sync.WaitGroup
	for _, record := range records {
		if !needsRecovery(record) {
			continue
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			r.recoverOne(ctx, record)
		}
		if err := r.pool.Submit(task); err != nil {
			// Pool released or overloaded; do the work on the caller's goroutine.
			task()
		}
	}
	wg.Wait()
}

// Release releases the worker pool. The Recoverer should not be used afterwards.
func (r *Recoverer) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}

func (r *Recoverer) recoverOne(ctx context.Context, record *core.MediaRecord) {
	if ctx.Err() != nil {
		record.Thumbnail = ""
		return
	}
	thumb, err := generate(record.Payload.Bytes(), r.maxEdge, r.quality)
	if err != nil {
		r.logger.Debug("thumbnail recovery failed", "id", record.ID, "err", err)
		record.Thumbnail = ""
		return
	}
	record.Thumbnail = thumb
}

func needsRecovery(record *core.MediaRecord) bool {
	return record != nil && record.Kind == core.KindPhoto && !IsUsable(record.Thumbnail)
}
