package transport

import (
	"fmt"
	"time"

	"go.uber.org/atomic"
)

const (
	defaultQueueCap  = 16
	flushPollPeriod  = 50 * time.Millisecond
	defaultFlushWait = 30 * time.Second
)

// StreamWriter pushes JSON rows to a server-side write session through a
// bounded producer/consumer queue. The caller appends rows; a dedicated
// drainer goroutine POSTs them one by one. No shared mutable state crosses
// the goroutine boundary except the queue itself and the error slot.
type StreamWriter struct {
	ctx    *Context
	path   string
	errMsg string

	rows chan any
	done chan struct{}
	// pending counts rows not yet fully settled: queued plus the one the
	// drainer is currently posting.
	pending atomic.Int64
	failed  atomic.Error
	closed  atomic.Bool
}

// NewStreamWriter starts a write session POSTing each row to path.
func (c *Context) NewStreamWriter(path, errMsg string) *StreamWriter {
	w := &StreamWriter{
		ctx:    c,
		path:   path,
		errMsg: errMsg,
		rows:   make(chan any, defaultQueueCap),
		done:   make(chan struct{}),
	}
	go w.drain()
	return w
}

// The drainer owns the session once started; rows arriving after a remote
// failure are discarded so Close can still observe the first error.
func (w *StreamWriter) drain() {
	defer close(w.done)
	for row := range w.rows {
		if w.failed.Load() == nil {
			if err := w.ctx.Post(w.path, row, nil, nil, w.errMsg); err != nil {
				w.failed.Store(err)
			}
		}
		// Settle after the outcome is recorded so Flush never returns
		// with a row still in flight.
		w.pending.Dec()
	}
}

// WriteRow enqueues a row, blocking while the queue is at capacity.
// A previous remote failure is surfaced immediately.
func (w *StreamWriter) WriteRow(row any) error {
	if err := w.failed.Load(); err != nil {
		return err
	}
	if w.closed.Load() {
		return fmt.Errorf("write to closed stream for %s", w.path)
	}
	w.pending.Inc()
	w.rows <- row
	return nil
}

// Flush blocks until every accepted row has settled, in-flight one
// included, polling with a timeout-and-retry loop, and reports any failure
// recorded by the drainer.
func (w *StreamWriter) Flush() error {
	deadline := time.Now().Add(defaultFlushWait)
	for w.pending.Load() > 0 {
		if err := w.failed.Load(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("flush of write session for %s timed out with %d rows unsettled", w.path, w.pending.Load())
		}
		time.Sleep(flushPollPeriod)
	}
	return w.failed.Load()
}

// Err returns the first remote failure observed by the drainer, if any.
func (w *StreamWriter) Err() error { return w.failed.Load() }

// Close signals end of input, waits for the drainer to finish and returns
// the first failure observed during the session.
func (w *StreamWriter) Close() error {
	if w.closed.Swap(true) {
		<-w.done
		return w.failed.Load()
	}
	close(w.rows)
	<-w.done
	return w.failed.Load()
}
