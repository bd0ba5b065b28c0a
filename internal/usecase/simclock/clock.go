// Package simclock provides the clock reports are stamped with. During
// a backtest the clock follows the replayed event stream instead of
// the wall clock.
package simclock

import (
	"sync"
	"time"
)

// Clock tracks simulation time. It is safe for concurrent use.
type Clock struct {
	mu         sync.RWMutex
	current    time.Time
	useSimTime bool
}

// New returns a clock. When useSimTime is false Now always reports
// wall clock time.
func New(useSimTime bool) *Clock {
	return &Clock{useSimTime: useSimTime}
}

// Set advances the clock to the transact time of the latest replayed
// event.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Now returns the current simulation time, falling back to the wall
// clock until the first replayed event arrives.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.useSimTime || c.current.IsZero() {
		return time.Now()
	}
	return c.current
}
