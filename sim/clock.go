// Package sim provides reference implementations of the task-runtime and
// simulated-time boundaries consumed by the regression manager.
package sim

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/verilab/regress/types"
)

// toNS converts an amount in the given unit to nanoseconds. A step is the
// base precision of these clocks, one nanosecond.
func toNS(amount float64, unit types.TimeUnit) float64 {
	switch unit {
	case types.UnitUS:
		return amount * 1e3
	case types.UnitMS:
		return amount * 1e6
	case types.UnitSec:
		return amount * 1e9
	default: // step, ns
		return amount
	}
}

func fromNS(ns float64, unit types.TimeUnit) float64 {
	switch unit {
	case types.UnitUS:
		return ns / 1e3
	case types.UnitMS:
		return ns / 1e6
	case types.UnitSec:
		return ns / 1e9
	default:
		return ns
	}
}

// WallClock implements types.Clock on top of real time. Simulated time
// advances in lockstep with the wall clock.
type WallClock struct {
	start   time.Time
	stopped atomic.Bool
}

func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) Now(unit types.TimeUnit) float64 {
	return fromNS(float64(time.Since(c.start).Nanoseconds()), unit)
}

func (c *WallClock) After(amount float64, unit types.TimeUnit) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		time.Sleep(time.Duration(toNS(amount, unit)) * time.Nanosecond)
		close(ch)
	}()
	return ch
}

func (c *WallClock) Stop() {
	c.stopped.Store(true)
}

// Stopped reports whether the session stop signal was received.
func (c *WallClock) Stopped() bool {
	return c.stopped.Load()
}

type vtimer struct {
	deadline float64 // ns
	ch       chan struct{}
}

// VirtualClock is a manually advanced simulated-time source. Timers fire
// when Advance moves the clock past their deadline.
type VirtualClock struct {
	mu      sync.Mutex
	now     float64 // ns
	timers  []*vtimer
	stopped bool
}

func NewVirtualClock() *VirtualClock {
	return &VirtualClock{}
}

func (c *VirtualClock) Now(unit types.TimeUnit) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fromNS(c.now, unit)
}

func (c *VirtualClock) After(amount float64, unit types.TimeUnit) <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &vtimer{deadline: c.now + toNS(amount, unit), ch: make(chan struct{})}
	if toNS(amount, unit) <= 0 {
		close(t.ch)
		return t.ch
	}
	c.timers = append(c.timers, t)
	return t.ch
}

// Advance moves simulated time forward and fires every timer whose
// deadline has been reached.
func (c *VirtualClock) Advance(amount float64, unit types.TimeUnit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += toNS(amount, unit)

	sort.Slice(c.timers, func(i, j int) bool { return c.timers[i].deadline < c.timers[j].deadline })
	remaining := c.timers[:0]
	for _, t := range c.timers {
		if t.deadline <= c.now {
			close(t.ch)
		} else {
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
}

func (c *VirtualClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
}

// Stopped reports whether the session stop signal was received.
func (c *VirtualClock) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}
