package client

import (
	"sync"
	"time"

	"ticket-booking/pkg/clock"
)

// afterFunc schedules f after d and returns a stop function, like time.AfterFunc.
type afterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Countdown fires once when the hold deadline passes. It is advisory: the
// server decides whether a hold is still valid.
type Countdown struct {
	deadline time.Time
	clock    clock.Clock

	once sync.Once
	done chan struct{}
	stop func() bool
}

func startCountdown(clk clock.Clock, schedule afterFunc, deadline time.Time, onExpire func()) *Countdown {
	c := &Countdown{
		deadline: deadline,
		clock:    clk,
		done:     make(chan struct{}),
	}

	fire := func() {
		fired := false
		c.once.Do(func() {
			close(c.done)
			fired = true
		})
		if fired {
			onExpire()
		}
	}

	remaining := deadline.Sub(clk.Now())
	if remaining <= 0 {
		c.stop = func() bool { return false }
		go fire()
		return c
	}
	c.stop = schedule(remaining, fire)
	return c
}

// Remaining is never negative.
func (c *Countdown) Remaining() time.Duration {
	if d := c.deadline.Sub(c.clock.Now()); d > 0 {
		return d
	}
	return 0
}

func (c *Countdown) Deadline() time.Time { return c.deadline }

// Expired is closed once the countdown has fired.
func (c *Countdown) Expired() <-chan struct{} { return c.done }

// Stop cancels the countdown. It reports false if it already fired.
func (c *Countdown) Stop() bool {
	stopped := c.stop()
	if stopped {
		c.once.Do(func() {})
	}
	return stopped
}
