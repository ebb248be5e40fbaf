package sweep

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultInterval is the time between scheduled sweeps.
const DefaultInterval = time.Minute

// ErrExpirerRequired is returned when no repository is given to sweep.
var ErrExpirerRequired = errors.New("expirer required")

// Expirer deletes records whose expiry date is before now.
// storage.MediaRepository satisfies it.
type Expirer interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// Sweeper periodically deletes expired media.
type Sweeper struct {
	expirer  Expirer
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	reg      prometheus.Registerer
	monitor  Monitor
	metrics  *metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithInterval sets the time between sweeps.
// Default is one minute. Non-positive values are ignored.
func WithInterval(interval time.Duration) Option {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithClock sets the time source sweeps compare expiry dates against.
// Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// WithRegisterer registers the sweep metrics with reg.
// By default the metrics are kept but not registered anywhere.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Sweeper) {
		s.reg = reg
	}
}

// WithMonitor adds an observer notified around every sweep.
func WithMonitor(m Monitor) Option {
	return func(s *Sweeper) {
		if m != nil {
			s.monitor = m
		}
	}
}

// NewSweeper creates a Sweeper over expirer.
func NewSweeper(expirer Expirer, opts ...Option) (*Sweeper, error) {
	if expirer == nil {
		return nil, ErrExpirerRequired
	}
	s := &Sweeper{
		expirer:  expirer,
		interval: DefaultInterval,
		now:      time.Now,
		logger:   slog.Default(),
		monitor:  noopMonitor{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newMetrics(s.reg)
	return s, nil
}

// SweepOnce runs a single sweep and returns how many records it deleted.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now()
	s.metrics.SweepStarted(now)
	s.monitor.SweepStarted(now)

	start := time.Now()
	deleted, err := s.expirer.SweepExpired(ctx, now)
	elapsed := time.Since(start)

	s.metrics.SweepFinished(deleted, elapsed, err)
	s.monitor.SweepFinished(deleted, elapsed, err)

	if err != nil {
		s.logger.Error("expiry sweep failed", "err", err, "deleted", deleted)
		return deleted, err
	}
	if deleted > 0 {
		s.logger.Info("expiry sweep deleted media", "deleted", deleted, "elapsed", elapsed)
	} else {
		s.logger.Debug("expiry sweep found nothing to delete", "elapsed", elapsed)
	}
	return deleted, nil
}

// Run sweeps immediately, then once per interval until ctx is done.
// Sweep errors are logged and never stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	s.SweepOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// Start runs the sweeper in the background. Calling Start on a running
// sweeper does nothing.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
}

// Stop halts a background sweeper and waits for an in-flight sweep to end.
// Calling Stop on a stopped sweeper does nothing.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
