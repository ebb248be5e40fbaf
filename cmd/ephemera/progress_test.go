package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedProgress(buf *bytes.Buffer, total, interval int) (*importProgress, *time.Time) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := newImportProgress(buf, total, interval)
	p.now = func() time.Time { return clock }
	return p, &clock
}

func TestImportProgress_ReportsEveryInterval(t *testing.T) {
	var buf bytes.Buffer
	p, _ := fixedProgress(&buf, 5, 2)

	p.Begin()
	p.Stored(1024)
	assert.Empty(t, buf.String())

	p.Skipped()
	assert.Equal(t, "\rImported 1/5 files, 1 skipped, 1.0 KiB", buf.String())

	p.Stored(1024)
	p.Stored(1024)
	assert.Contains(t, buf.String(), "Imported 3/5 files, 1 skipped, 3.0 KiB")
}

func TestImportProgress_Done(t *testing.T) {
	var buf bytes.Buffer
	p, clock := fixedProgress(&buf, 3, 100)

	p.Begin()
	p.Stored(10)
	p.Skipped()
	p.Stored(10)
	assert.Empty(t, buf.String(), "below the report interval")

	*clock = clock.Add(1500 * time.Millisecond)
	elapsed := p.Done()
	assert.Equal(t, 1500*time.Millisecond, elapsed)
	assert.Contains(t, buf.String(), "Imported 2/3 files, 1 skipped, 20 B")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestImportProgress_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	p := newImportProgress(&buf, 10, 0)

	p.Stored(5)
	p.Skipped()
	assert.Zero(t, p.Done())
	assert.Empty(t, buf.String())
}
