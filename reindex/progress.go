package reindex

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker writes a single updating progress line (carriage-return
// style) while chunks are re-embedded. Reports are emitted once per
// interval crossed rather than on every update. Safe for concurrent use.
type ProgressTracker struct {
	mu       sync.Mutex
	writer   io.Writer
	total    int
	interval int

	current  int
	reported int
	begun    time.Time
	running  bool
}

// NewProgressTracker creates a tracker for total chunks that reports every
// interval chunks to writer (typically os.Stderr).
func NewProgressTracker(writer io.Writer, total, interval int) *ProgressTracker {
	return &ProgressTracker{
		writer:   writer,
		total:    total,
		interval: interval,
	}
}

// Start resets the tracker and begins timing. Updates before Start are
// ignored.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.begun = time.Now()
	p.running = true
	p.current = 0
	p.reported = 0
}

// Update sets the number of chunks processed so far, clamped to the total,
// and emits a report when an interval boundary has been crossed.
func (p *ProgressTracker) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.current = min(current, p.total)
	if p.current-p.reported >= p.interval {
		p.report()
		p.reported = p.current
	}
}

// Finish forces a final report at the total and terminates the progress
// line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time since Start, or zero before the first Start.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return 0
	}
	return time.Since(p.begun)
}

// report writes one progress line. Callers hold the lock.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.begun)
	rate := float64(p.current) / elapsed.Seconds()

	percent := 0.0
	if p.total > 0 {
		percent = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f chunks/s",
		p.current, p.total, percent, rate)
}
