package sweep

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Monitor observes sweep runs.
// Implement this interface to track sweeps outside of the built-in metrics.
type Monitor interface {
	SweepStarted(now time.Time)
	SweepFinished(deleted int, elapsed time.Duration, err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (noopMonitor) SweepStarted(_ time.Time)                      {}
func (noopMonitor) SweepFinished(_ int, _ time.Duration, _ error) {}

// metrics exports sweep activity to Prometheus.
type metrics struct {
	runs     prometheus.Counter
	deleted  prometheus.Counter
	failures prometheus.Counter
	duration prometheus.Histogram
}

var _ Monitor = (*metrics)(nil)

// newMetrics builds the sweep collectors and registers them with reg.
// A nil reg leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		runs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ephemera",
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Total number of expiry sweeps started",
		}),
		deleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ephemera",
			Subsystem: "sweep",
			Name:      "deleted_total",
			Help:      "Total number of expired media records deleted",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ephemera",
			Subsystem: "sweep",
			Name:      "failures_total",
			Help:      "Total number of sweeps that ended in an error",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ephemera",
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Sweep duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

func (m *metrics) SweepStarted(_ time.Time) {
	m.runs.Inc()
}

func (m *metrics) SweepFinished(deleted int, elapsed time.Duration, err error) {
	m.duration.Observe(elapsed.Seconds())
	if deleted > 0 {
		m.deleted.Add(float64(deleted))
	}
	if err != nil {
		m.failures.Inc()
	}
}
