package sweep

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/ephemera/core"
	"github.com/poiesic/ephemera/storage/badger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	mu     sync.Mutex
	calls  []time.Time
	result int
	err    error
}

func (f *fakeExpirer) SweepExpired(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.result, f.err
}

func (f *fakeExpirer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingMonitor struct {
	started  int
	finished []int
}

func (m *recordingMonitor) SweepStarted(time.Time) { m.started++ }
func (m *recordingMonitor) SweepFinished(deleted int, _ time.Duration, _ error) {
	m.finished = append(m.finished, deleted)
}

func TestNewSweeper_RequiresExpirer(t *testing.T) {
	_, err := NewSweeper(nil)
	assert.ErrorIs(t, err, ErrExpirerRequired)
}

func TestSweepOnce_Metrics(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expirer := &fakeExpirer{result: 3}
	reg := prometheus.NewRegistry()
	monitor := &recordingMonitor{}

	s, err := NewSweeper(expirer,
		WithClock(func() time.Time { return fixed }),
		WithRegisterer(reg),
		WithMonitor(monitor))
	require.NoError(t, err)

	deleted, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
	assert.Equal(t, []time.Time{fixed}, expirer.calls)

	expirer.err = errors.New("engine down")
	expirer.result = 0
	_, err = s.SweepOnce(context.Background())
	assert.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.runs))
	assert.Equal(t, 3.0, testutil.ToFloat64(s.metrics.deleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.failures))
	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	assert.Equal(t, 2, monitor.started)
	assert.Equal(t, []int{3, 0}, monitor.finished)
}

func TestSweeper_UnregisteredByDefault(t *testing.T) {
	a, err := NewSweeper(&fakeExpirer{})
	require.NoError(t, err)
	b, err := NewSweeper(&fakeExpirer{})
	require.NoError(t, err)

	_, err = a.SweepOnce(context.Background())
	require.NoError(t, err)
	_, err = b.SweepOnce(context.Background())
	require.NoError(t, err)
}

func TestRun_SweepsImmediatelyAndOnTick(t *testing.T) {
	expirer := &fakeExpirer{}
	s, err := NewSweeper(expirer, WithInterval(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	require.Eventually(t, func() bool { return expirer.callCount() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestRun_ErrorsDoNotStopLoop(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("transient")}
	s, err := NewSweeper(expirer, WithInterval(5*time.Millisecond))
	require.NoError(t, err)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return expirer.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestStartStop(t *testing.T) {
	expirer := &fakeExpirer{}
	s, err := NewSweeper(expirer, WithInterval(time.Hour))
	require.NoError(t, err)

	s.Start(context.Background())
	s.Start(context.Background()) // no second loop
	require.Eventually(t, func() bool { return expirer.callCount() == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.Equal(t, 1, expirer.callCount())

	// Restart after stop
	s.Start(context.Background())
	require.Eventually(t, func() bool { return expirer.callCount() == 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestSweeper_RetentionScenario(t *testing.T) {
	tests := []struct {
		name     string
		kind     core.MediaKind
		payload  []byte
		duration int
	}{
		{name: "photo", kind: core.KindPhoto, payload: make([]byte, 100)},
		{name: "video", kind: core.KindVideo, payload: []byte("mp4"), duration: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mediaRepo, settingsRepo, backend, err := badger.NewMemoryRepositories()
			require.NoError(t, err)
			defer func() {
				mediaRepo.Close()
				backend.Close()
			}()
			ctx := context.Background()

			require.NoError(t, settingsRepo.Put(ctx, core.AppSettings{Resolution: core.Resolution1080p, DefaultRetentionHours: 1}))
			settings := settingsRepo.Get(ctx)

			t0 := time.UnixMilli(1_700_000_000_000).UTC()
			record := &core.MediaRecord{
				ID:              "m1",
				Kind:            tt.kind,
				Payload:         core.NewPayload(tt.payload, core.DefaultMIMEType(tt.kind)),
				DurationSeconds: tt.duration,
				CreatedAt:       t0,
				ExpiryDate:      settings.ExpiryFor(t0),
			}
			require.NoError(t, mediaRepo.Save(ctx, record))

			var now time.Time
			s, err := NewSweeper(mediaRepo, WithClock(func() time.Time { return now }))
			require.NoError(t, err)

			now = t0.Add(3_599_000 * time.Millisecond)
			deleted, err := s.SweepOnce(ctx)
			require.NoError(t, err)
			assert.Zero(t, deleted)

			all, err := mediaRepo.ListAll(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, int64(len(tt.payload)), all[0].SizeBytes)

			now = t0.Add(3_600_001 * time.Millisecond)
			deleted, err = s.SweepOnce(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, deleted)

			deleted, err = s.SweepOnce(ctx)
			require.NoError(t, err)
			assert.Zero(t, deleted)

			all, err = mediaRepo.ListAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}
