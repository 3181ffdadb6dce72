// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package verifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/siemens/ipsleuth/iplist"
	"github.com/siemens/ipsleuth/types"

	"github.com/gammazero/workerpool"
)

// DefaultDelay is the pause between two consecutive lookups of a run, keeping
// within the rate limits of the reputation service.
const DefaultDelay = 1500 * time.Millisecond

// ErrStopped is returned when trying to start a run on a stopped Verifier.
var ErrStopped = errors.New("verifier has been stopped")

// ErrEmptyResult is recorded for lookups returning neither a report nor an
// error.
var ErrEmptyResult = errors.New("empty lookup result")

// Lookuper looks up the reputation of a single address. Implementations return
// either a report or an error, but never both.
type Lookuper interface {
	Lookup(ctx context.Context, addr string) (*types.Report, error)
}

// LookupFunc adapts an ordinary function to the Lookuper interface.
type LookupFunc func(ctx context.Context, addr string) (*types.Report, error)

// Lookup calls f(ctx, addr).
func (f LookupFunc) Lookup(ctx context.Context, addr string) (*types.Report, error) {
	return f(ctx, addr)
}

// Verifier verifies batches of addresses, one address after another, pausing
// between consecutive lookups. A Verifier has at most one active [Run]:
// starting a new run cancels and discards the previous one.
//
// Runs are processed by a single worker, so a new run's processing loop only
// begins after the processing loop of the previous run has fully terminated.
type Verifier struct {
	lookup Lookuper
	delay  time.Duration
	ctx    context.Context // base context for all lookups.

	workers  *workerpool.WorkerPool // single worker serializing processing loops.
	mu       sync.Mutex
	current  *Run
	runs     int
	stopped  bool
	stopOnce sync.Once
}

// VerifierOption can be passed to New when creating new Verifier objects.
type VerifierOption func(*Verifier)

// New returns a new [Verifier] using the specified Lookuper for looking up
// individual addresses. The verifier defaults to pausing [DefaultDelay]
// between lookups.
//
// The verifier can be configured during creation using these options:
//   - [WithDelay]
//   - [WithContext]
func New(lookup Lookuper, options ...VerifierOption) *Verifier {
	initMetrics()
	v := &Verifier{
		lookup:  lookup,
		delay:   DefaultDelay,
		ctx:     context.Background(),
		workers: workerpool.New(1),
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

// WithDelay sets the pause between consecutive lookups.
func WithDelay(delay time.Duration) VerifierOption {
	if delay < 0 {
		panic("Verifier: delay must not be negative")
	}
	return func(v *Verifier) {
		v.delay = delay
	}
}

// WithContext sets the base context passed to lookups. Cancelling a run never
// aborts a lookup in flight; only this base context does.
func WithContext(ctx context.Context) VerifierOption {
	return func(v *Verifier) {
		v.ctx = ctx
	}
}

// Start a new run verifying the specified addresses in order, returning the
// new run immediately. The addresses must be valid and unique, otherwise Start
// returns an [iplist.ValidationError] without touching the currently active
// run. A previously active run gets cancelled and discarded.
func (v *Verifier) Start(addrs []string) (*Run, error) {
	if err := iplist.Validate(addrs); err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.stopped {
		return nil, ErrStopped
	}
	if v.current != nil {
		v.current.Cancel()
	}
	v.runs++
	run := newRun(v.runs, addrs)
	v.current = run
	v.workers.Submit(func() { v.process(run) })
	return run, nil
}

// Current returns the most recently started run, or nil if there is none.
func (v *Verifier) Current() *Run {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Cancel the specified run; a nil run is ignored.
func (v *Verifier) Cancel(run *Run) {
	if run == nil {
		return
	}
	run.Cancel()
}

// StopWait cancels the current run and waits for the processing worker to
// wind down. Afterwards, the verifier refuses to start new runs.
func (v *Verifier) StopWait() {
	v.stopOnce.Do(func() {
		v.mu.Lock()
		v.stopped = true
		current := v.current
		v.mu.Unlock()
		v.Cancel(current)
		v.workers.StopWait()
	})
}

// process the items of the specified run strictly in order, until either all
// items have been processed or the run has been cancelled.
func (v *Verifier) process(run *Run) {
	running.Inc()
	defer running.Dec()
	defer run.finish()

	count := run.Len()
	for idx := 0; idx < count; idx++ {
		if run.CancelRequested() {
			run.stopRemaining(idx)
			break
		}
		addr := run.checking(idx)
		start := time.Now()
		report, err := v.lookup.Lookup(v.ctx, addr)
		lookupDuration.Observe(time.Since(start).Seconds())
		status := run.settle(idx, report, err)
		lookupsTotal.WithLabelValues(outcome(status, report)).Inc()
		if status == types.Stopped || idx == count-1 {
			continue
		}
		v.pause(run)
	}
	runsTotal.WithLabelValues(run.result()).Inc()
}

// pause between lookups, waking up early when the run gets cancelled.
func (v *Verifier) pause(run *Run) {
	if v.delay == 0 {
		return
	}
	timer := time.NewTimer(v.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-run.cancelCh:
	}
}

// outcome returns the metrics label for a settled item.
func outcome(status types.Status, report *types.Report) string {
	switch status {
	case types.Completed:
		return types.Classify(report.TotalReports).String()
	case types.Errored:
		return "error"
	}
	return "discarded"
}
