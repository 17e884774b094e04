package store

import (
	"sync/atomic"
	"time"
)

// monotonicClock hands out strictly increasing timestamps even if the wall
// clock stalls or steps backwards, so claimedAt order matches insert order.
type monotonicClock struct {
	last atomic.Int64
	now  func() time.Time
}

func newMonotonicClock(now func() time.Time) *monotonicClock {
	if now == nil {
		now = time.Now
	}
	return &monotonicClock{now: now}
}

func (c *monotonicClock) Now() time.Time {
	for {
		prev := c.last.Load()
		next := c.now().UnixNano()
		if next <= prev {
			next = prev + 1
		}
		if c.last.CompareAndSwap(prev, next) {
			return time.Unix(0, next).UTC()
		}
	}
}
