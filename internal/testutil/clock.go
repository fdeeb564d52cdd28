// Package testutil provides deterministic helpers for harness execution.
package testutil

import "sync"

// DeterministicClock is a resettable monotonic logical clock.
//
// Harness runs stamp trace events and ledger entries with seq values from
// this clock, so the same scenario produces identical sequences on every
// run. Reset allows a scenario to be replayed with the same seq values.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock whose first Next() returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
// Safe for concurrent use; never decreases.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Reset rewinds the clock so the next call to Next() returns 1 again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
