package ephemera

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/ephemera/capture"
	"github.com/poiesic/ephemera/core"
	"github.com/poiesic/ephemera/storage"
	"github.com/poiesic/ephemera/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("file backed", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "store")
		s, err := Open(NewConfig(WithPath(dir)))
		require.NoError(t, err)
		defer s.Close()

		assert.NotNil(t, s.Media())
		assert.NotNil(t, s.Settings())
	})

	t.Run("path is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(path, []byte("test"), 0o644))

		s, err := Open(NewConfig(WithPath(path)))
		assert.ErrorIs(t, err, storage.ErrStoreUnavailable)
		assert.Nil(t, s)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := Open(NewConfig(WithSweepInterval(-1)))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestStore_Close(t *testing.T) {
	s, err := Open(NewConfig(WithInMemory()))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Media().ListAll(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(NewConfig(WithPath(dir)))
	require.NoError(t, err)
	require.NoError(t, s.Settings().Put(ctx, core.AppSettings{Resolution: core.Resolution4K, DefaultRetentionHours: 12}))
	intake, err := s.NewIntake()
	require.NoError(t, err)
	saved, err := intake.Save(ctx, capture.Capture{Payload: []byte("clip"), Kind: core.KindVideo, DurationSeconds: 2})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(NewConfig(WithPath(dir)))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, core.Resolution4K, s.Settings().Get(ctx).Resolution)
	got, err := s.Media().Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("clip"), got.Payload.Bytes())
	assert.Equal(t, core.Resolution4K, got.Resolution)
	assert.Equal(t, saved.CreatedAt.Add(12*time.Hour), got.ExpiryDate)
}

func TestStore_CaptureAndSweep(t *testing.T) {
	s, err := Open(NewConfig(WithInMemory()))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	t0 := time.UnixMilli(1_700_000_000_000).UTC()
	require.NoError(t, s.Settings().Put(ctx, core.AppSettings{Resolution: core.Resolution1080p, DefaultRetentionHours: 1}))

	intake, err := s.NewIntake(capture.WithClock(func() time.Time { return t0 }))
	require.NoError(t, err)
	_, err = intake.Save(ctx, capture.Capture{Payload: []byte("clip"), Kind: core.KindVideo, DurationSeconds: 1})
	require.NoError(t, err)

	now := t0.Add(30 * time.Minute)
	sweeper, err := s.NewSweeper(sweep.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	deleted, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	now = t0.Add(2 * time.Hour)
	deleted, err = sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}
