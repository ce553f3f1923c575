// Package progress implements throttled progress reporting: an
// atomically-updated running total reported by a ticker, with at most
// one report emitted per interval.
package progress

import (
	"sync/atomic"
	"time"
)

// Counter tracks progress of a long running task and reports it through a
// callback at most once per interval, plus exactly once more when Done is
// called. A nil *Counter is valid and silently discards all calls, so
// callers that don't want progress reporting can pass nil instead of
// special-casing it.
type Counter struct {
	value atomic.Uint64
	max   atomic.Uint64

	report func(value, max uint64, d time.Duration, final bool)

	start  time.Time
	done   chan struct{}
	closed chan struct{}
}

// NewCounter starts a Counter that reports through report every interval,
// with max as the initial total.
func NewCounter(interval time.Duration, max uint64, report func(value, max uint64, d time.Duration, final bool)) *Counter {
	c := &Counter{
		report: report,
		start:  time.Now(),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	c.max.Store(max)

	go c.run(interval)

	return c
}

func (c *Counter) run(interval time.Duration) {
	defer close(c.closed)

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			c.report(c.value.Load(), c.max.Load(), time.Since(c.start), false)
		case <-c.done:
			c.report(c.value.Load(), c.max.Load(), time.Since(c.start), true)
			return
		}
	}
}

// Add adds n to the running total.
func (c *Counter) Add(n uint64) {
	if c == nil {
		return
	}
	c.value.Add(n)
}

// SetMax sets the target total.
func (c *Counter) SetMax(n uint64) {
	if c == nil {
		return
	}
	c.max.Store(n)
}

// Done stops the counter and blocks until the final report has been sent.
func (c *Counter) Done() {
	if c == nil {
		return
	}
	close(c.done)
	<-c.closed
}
