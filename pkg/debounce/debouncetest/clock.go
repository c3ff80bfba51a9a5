// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package debouncetest provides a manually driven timer factory for tests of
// code built on [debounce.Scheduler].
package debouncetest

import (
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/lector/pkg/debounce"
)

// Clock is a fake time source. Timers only fire when [Clock.Advance] moves
// the clock past their deadline.
type Clock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*timer
}

type timer struct {
	clock    *Clock
	deadline time.Duration
	fn       func()
	stopped  bool
	fired    bool
}

// Stop implements [debounce.Timer].
func (t *timer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// NewClock returns a clock positioned at zero.
func NewClock() *Clock {
	return &Clock{}
}

// AfterFunc is a [debounce.AfterFunc] bound to the fake clock.
func (c *Clock) AfterFunc(d time.Duration, f func()) debounce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &timer{clock: c, deadline: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and synchronously runs every timer whose
// deadline has been reached, in deadline order.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d

	var due []*timer
	remaining := c.timers[:0]
	for _, t := range c.timers {
		switch {
		case t.stopped:
		case t.deadline <= c.now:
			t.fired = true
			due = append(due, t)
		default:
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].deadline < due[j].deadline })
	for _, t := range due {
		t.fn()
	}
}

// Active returns the number of armed timers.
func (c *Clock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, t := range c.timers {
		if !t.stopped {
			count++
		}
	}
	return count
}
