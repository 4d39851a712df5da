// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package admission gates how many resolution runs may execute
// concurrently. The upstream bibliographic services are rate-limited per
// client, so aggregate load has to stay bounded no matter how many users
// share the process. Acquisition is non-blocking: callers are rejected,
// never queued.
package admission

import (
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrSystemBusy is returned when no admission token is available.
var ErrSystemBusy = eris.New("system busy: concurrent run capacity reached")

const (
	// DefaultCapacity is the token pool size when none is configured.
	DefaultCapacity = 3

	// DefaultStaleAfter is how long a run may hold a token before it is
	// presumed crashed and its token reclaimed.
	DefaultStaleAfter = 3 * time.Hour
)

// Controller is a fixed-capacity token pool with per-run tracking. All
// methods are safe for concurrent use.
type Controller struct {
	capacity   int
	staleAfter time.Duration

	mu     sync.Mutex
	active map[string]time.Time // run ID -> acquisition time

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// RunInfo describes one active run for status reporting.
type RunInfo struct {
	ID      string
	Started time.Time
}

// New creates a controller. Non-positive capacity or staleness values
// fall back to the defaults.
func New(capacity int, staleAfter time.Duration) *Controller {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Controller{
		capacity:   capacity,
		staleAfter: staleAfter,
		active:     make(map[string]time.Time),
		nowFunc:    time.Now,
	}
}

// Acquire claims a token for the given run. It never blocks: when the
// pool is exhausted it first reclaims tokens from stale runs, then
// rejects with ErrSystemBusy if still full.
func (c *Controller) Acquire(runID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.active) >= c.capacity {
		c.reclaimStale()
	}
	if len(c.active) >= c.capacity {
		return ErrSystemBusy
	}
	c.active[runID] = c.nowFunc()
	return nil
}

// Release returns the token held by the given run. Releasing an unknown
// run is a no-op, so a run that was reclaimed as stale can still shut
// down cleanly.
func (c *Controller) Release(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, runID)
}

// Reset clears all run-tracking state and restores the pool to full
// capacity. Operator escape hatch for runs that crashed while holding a
// token.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = make(map[string]time.Time)
}

// Active returns the number of runs currently holding tokens.
func (c *Controller) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

// Runs returns the active runs ordered by acquisition time.
func (c *Controller) Runs() []RunInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	runs := make([]RunInfo, 0, len(c.active))
	for id, started := range c.active {
		runs = append(runs, RunInfo{ID: id, Started: started})
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Started.Before(runs[j].Started)
	})
	return runs
}

// reclaimStale drops every run that has held its token longer than the
// staleness ceiling. Caller holds the mutex.
func (c *Controller) reclaimStale() {
	cutoff := c.nowFunc().Add(-c.staleAfter)
	for id, started := range c.active {
		if started.Before(cutoff) {
			delete(c.active, id)
		}
	}
}
