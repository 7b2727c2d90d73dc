package batch

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports migration run progress as line-oriented
// human-readable status messages. Safe for concurrent use; the
// scheduler's workers record completions from multiple goroutines.
type ProgressTracker struct {
	mu        sync.Mutex
	writer    io.Writer
	total     int
	done      int
	failed    int
	startTime time.Time
	started   bool
}

// NewProgressTracker creates a tracker writing to w, typically
// os.Stderr.
func NewProgressTracker(w io.Writer, total int) *ProgressTracker {
	return &ProgressTracker{writer: w, total: total}
}

// Start begins a run.
func (p *ProgressTracker) Start(strategyName string, batchSize int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.done = 0
	p.failed = 0
	fmt.Fprintf(p.writer, "migrating %d documents (%s, batch size %d)\n",
		p.total, strategyName, batchSize)
}

// DocumentDone records one settled document.
func (p *ProgressTracker) DocumentDone(title string, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.done++
	status := "ok"
	if !success {
		p.failed++
		status = "FAILED"
	}
	fmt.Fprintf(p.writer, "  [%d/%d] %s %s\n", p.done, p.total, status, title)
}

// BatchDone records the barrier between batches.
func (p *ProgressTracker) BatchDone(index, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || count <= 1 {
		return
	}
	fmt.Fprintf(p.writer, "batch %d/%d complete\n", index+1, count)
}

// Finish prints the run summary.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	elapsed := time.Since(p.startTime).Round(time.Millisecond)
	fmt.Fprintf(p.writer, "done: %d succeeded, %d failed in %s\n",
		p.done-p.failed, p.failed, elapsed)
}
