package tracker

import (
	"sync"
	"time"
)

// Clock supplies the current time and periodic callbacks to a [Tracker].
type Clock interface {
	Now() time.Time
	// Every calls f with the tick time each interval d until the returned stop function is called.
	Every(d time.Duration, f func(time.Time)) (stop func())
}

// SystemClock is the wall [Clock], backed by [time.Ticker].
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Every runs f on its own goroutine. Stop does not wait for a callback already in progress.
func (SystemClock) Every(d time.Duration, f func(time.Time)) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case at := <-ticker.C:
				f(at)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// ManualClock is a virtual [Clock] that only moves when [ManualClock.Advance] is called.
//
// Periodic callbacks run synchronously on the goroutine calling Advance, in deadline order.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	tickers map[int]*manualTicker
}

type manualTicker struct {
	interval time.Duration
	next     time.Time
	f        func(time.Time)
}

// NewManualClock returns a [ManualClock] starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start, tickers: make(map[int]*manualTicker)}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Every(d time.Duration, f func(time.Time)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.tickers[id] = &manualTicker{interval: d, next: c.now.Add(d), f: f}

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.tickers, id)
	}
}

// Advance moves the clock forward by d, firing every callback whose deadline falls within the window.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	c.AdvanceTo(target)
}

// AdvanceTo moves the clock to target. Moving backwards is a no-op.
func (c *ManualClock) AdvanceTo(target time.Time) {
	for {
		c.mu.Lock()
		var due *manualTicker
		for _, t := range c.tickers {
			if t.next.After(target) {
				continue
			}
			if due == nil || t.next.Before(due.next) {
				due = t
			}
		}
		if due == nil {
			if target.After(c.now) {
				c.now = target
			}
			c.mu.Unlock()
			return
		}

		at := due.next
		c.now = at
		due.next = at.Add(due.interval)
		f := due.f
		c.mu.Unlock()

		f(at)
	}
}

// Tickers reports how many periodic callbacks are registered.
func (c *ManualClock) Tickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}
