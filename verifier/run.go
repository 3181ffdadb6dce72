// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package verifier

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/siemens/ipsleuth/abuseipdb"
	"github.com/siemens/ipsleuth/types"
)

// Run is a single batch verification of an ordered list of addresses. A Run
// is created by [Verifier.Start] and its items are only ever updated by the
// verifier's processing loop; all other parties only get snapshots.
type Run struct {
	ID        int       // run number, increasing with each Start of the same verifier.
	StartedAt time.Time // when the run was started.

	mu         sync.Mutex
	items      []types.Item
	running    bool
	finishedAt time.Time

	cancelled  atomic.Bool
	cancelOnce sync.Once
	cancelCh   chan struct{} // closed when cancellation has been requested.
	done       chan struct{} // closed when the processing loop has finished.
}

func newRun(id int, addrs []string) *Run {
	items := make([]types.Item, len(addrs))
	for idx, addr := range addrs {
		items[idx] = types.Item{Address: addr, Status: types.Pending}
	}
	return &Run{
		ID:        id,
		StartedAt: time.Now(),
		items:     items,
		running:   true,
		cancelCh:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Len returns the number of items in this run.
func (r *Run) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Items returns a snapshot of the items of this run, in input order.
func (r *Run) Items() []types.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]types.Item, len(r.items))
	copy(items, r.items)
	return items
}

// Stats returns the statistics over the current item states.
func (r *Run) Stats() types.Stats {
	return types.Tally(r.Items())
}

// Running returns true as long as the processing loop of this run hasn't
// finished yet.
func (r *Run) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// FinishedAt returns when the processing loop finished, or the zero time while
// still running.
func (r *Run) FinishedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishedAt
}

// CancelRequested returns true if this run has been asked to stop.
func (r *Run) CancelRequested() bool {
	return r.cancelled.Load()
}

// Cancel asks this run to stop as soon as possible: a lookup in flight is
// allowed to finish, but its result gets discarded, and all remaining items
// end up as stopped. Cancelling a finished run has no effect, and cancelling
// multiple times is fine.
func (r *Run) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.cancelOnce.Do(func() {
		r.cancelled.Store(true)
		close(r.cancelCh)
	})
}

// Done returns a channel that gets closed when the processing loop of this run
// has finished.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait for the run to finish or the context to be done, whatever happens
// first.
func (r *Run) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// checking returns the address of the item at the specified index and switches
// it into checking state.
func (r *Run) checking(idx int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[idx].Status = types.Checking
	return r.items[idx].Address
}

// settle records the outcome of a lookup for the item at the specified index,
// unless cancellation has been requested in the meantime: then the item is
// stopped and the outcome dropped. settle returns the status the item
// finally ended up in.
func (r *Run) settle(idx int, report *types.Report, err error) types.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	item := &r.items[idx]
	switch {
	case r.cancelled.Load():
		item.Status = types.Stopped
	case err != nil:
		item.Status = types.Errored
		item.Error = err.Error()
		item.Kind = abuseipdb.KindOf(err).String()
	case report == nil:
		item.Status = types.Errored
		item.Error = ErrEmptyResult.Error()
		item.Kind = abuseipdb.Unknown.String()
	default:
		item.Status = types.Completed
		item.Report = report
	}
	return item.Status
}

// stopRemaining stops all items from the specified index onwards that are
// still pending.
func (r *Run) stopRemaining(from int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for idx := from; idx < len(r.items); idx++ {
		if r.items[idx].Status == types.Pending {
			r.items[idx].Status = types.Stopped
		}
	}
}

// result returns "stopped" if any item has been stopped, otherwise
// "completed".
func (r *Run) result() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for idx := range r.items {
		if r.items[idx].Status == types.Stopped {
			return "stopped"
		}
	}
	return "completed"
}

// finish marks the end of the processing loop.
func (r *Run) finish() {
	r.mu.Lock()
	r.running = false
	r.finishedAt = time.Now()
	r.mu.Unlock()
	close(r.done)
}
