package testutil

import (
	"sync"
	"time"
)

// Clock 可手动推进的时钟
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock 创建时钟，起点固定便于断言
func NewClock() *Clock {
	return &Clock{t: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
}

// Now 当前时间
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance 推进时间
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
