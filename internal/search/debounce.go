package search

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDebounce matches the keystroke debounce the search box uses.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer coalesces rapid queries: each new query cancels the pending
// timer, and every dispatched search carries a monotonically increasing
// sequence number. A response that arrives after a newer query has been
// dispatched is discarded instead of being delivered, so stale results
// never overwrite fresh ones even though the underlying request is not
// cancelled.
type Debouncer struct {
	agg     *Aggregator
	delay   time.Duration
	deliver func(Results, error)

	seq uint64 // latest dispatched sequence

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer wires a debounced search pipeline. deliver is called with
// the results of the latest query only.
func NewDebouncer(agg *Aggregator, delay time.Duration, deliver func(Results, error)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{agg: agg, delay: delay, deliver: deliver}
}

// Query schedules a search for q, cancelling any pending one.
func (d *Debouncer) Query(ctx context.Context, q string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.dispatch(ctx, q)
	})
}

// Flush runs any pending query immediately. Useful on submit.
func (d *Debouncer) Flush(ctx context.Context, q string) {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.dispatch(ctx, q)
}

func (d *Debouncer) dispatch(ctx context.Context, q string) {
	seq := atomic.AddUint64(&d.seq, 1)
	results, err := d.agg.Search(ctx, q)
	// Out-of-order response: a newer dispatch happened while this one was
	// in flight. Discard.
	if atomic.LoadUint64(&d.seq) != seq {
		return
	}
	d.deliver(results, err)
}
