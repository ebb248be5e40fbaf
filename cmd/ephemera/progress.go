package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// importProgress reports how far an import has got through its file list.
// A line is written every interval files and once more by Done.
type importProgress struct {
	mu       sync.Mutex
	out      io.Writer
	now      func() time.Time
	total    int
	interval int
	stored   int
	skipped  int
	bytes    uint64
	began    time.Time
}

func newImportProgress(out io.Writer, total, interval int) *importProgress {
	return &importProgress{
		out:      out,
		now:      time.Now,
		total:    total,
		interval: max(interval, 1),
	}
}

// Begin resets the counters and starts the clock.
func (p *importProgress) Begin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.began = p.now()
	p.stored, p.skipped, p.bytes = 0, 0, 0
}

// Stored counts a file that became a record.
func (p *importProgress) Stored(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stored++
	p.bytes += uint64(size)
	p.maybeReport()
}

// Skipped counts a file that could not be imported.
func (p *importProgress) Skipped() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.skipped++
	p.maybeReport()
}

// Done writes the final line and returns the time taken.
func (p *importProgress) Done() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.began.IsZero() {
		return 0
	}
	p.report()
	fmt.Fprintln(p.out)
	return p.now().Sub(p.began)
}

func (p *importProgress) maybeReport() {
	if p.began.IsZero() {
		return
	}
	if seen := p.stored + p.skipped; seen%p.interval == 0 && seen < p.total {
		p.report()
	}
}

// report must be called with mu held.
func (p *importProgress) report() {
	fmt.Fprintf(p.out, "\rImported %d/%d files, %d skipped, %s",
		p.stored, p.total, p.skipped, humanize.IBytes(p.bytes))
}
