// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Yet another (braille) spinner.

package main

import (
	"sync"
	"time"
)

// brailleSpinner are the phases of the default spinner.
const brailleSpinner = "⠉⠘⠰⠤⠆⠃"

// spinner is yet another blindingly simple spinner; just enough to get the job
// done, no bells, no frills.
type spinner struct {
	phases   []string
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
	phase    int
}

// newSpinner returns a new spinner cycling through the runes of the specified
// phases; later call the Start method to make it spinning, and the Stop
// method to stop it and release background resources.
func newSpinner(phases string) *spinner {
	s := &spinner{done: make(chan struct{})}
	for _, r := range phases {
		s.phases = append(s.phases, string(r))
	}
	return s
}

// Spinner returns the spinner string for the current phase.
func (s *spinner) Spinner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phases[s.phase]
}

// advance the spinner to its next phase, wrapping around.
func (s *spinner) advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = (s.phase + 1) % len(s.phases)
}

// Start the spinner to spin in steps every specified interval.
func (s *spinner) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.advance()
			case <-s.done:
				return
			}
		}
	}()
}

// Stop the spinner and release the background resources; Stop can be called
// multiple times.
func (s *spinner) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
