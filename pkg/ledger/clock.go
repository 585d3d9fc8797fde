package ledger

import (
	"sync"
	"time"
)

// stampPrecision is the resolution of stored timestamps. PostgreSQL keeps
// microseconds, so every backend rounds to that.
const stampPrecision = time.Microsecond

// Clock hands out non-decreasing record timestamps.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewClock creates a clock reading from now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Next returns the current time, or the last stamp handed out if the wall
// clock moved backwards.
func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(stampPrecision)
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}

// Observe raises the floor to t, typically the newest stamp already stored.
func (c *Clock) Observe(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t = t.UTC()
	if t.After(c.last) {
		c.last = t
	}
}
