package services

import (
	"sync"
	"time"
)

type Clock interface {
	// Now returns nanoseconds since the Unix epoch.
	Now() int64
}

// MonotonicClock never returns the same value twice and never goes
// backwards, even if the wall clock does.
type MonotonicClock struct {
	mu   sync.Mutex
	last int64
	wall func() time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{wall: time.Now}
}

func (c *MonotonicClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.wall().UnixNano()
	if now <= c.last {
		now = c.last + 1
	}
	c.last = now
	return now
}
