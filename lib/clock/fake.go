// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time. Time stands
// still until Advance is called.
//
// FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	fake := &FakeClock{now: initial}
	fake.registered = sync.NewCond(&fake.mu)
	return fake
}

// FakeClock is a deterministic Clock for tests. Timers, tickers, and
// sleeps register pending events that fire only when Advance moves the
// clock past their deadline, in deadline order.
//
// AfterFunc callbacks run synchronously inside Advance. Do not call
// Advance or Sleep from within a callback; that deadlocks.
type FakeClock struct {
	mu         sync.Mutex
	now        time.Time
	pending    []*fakeEvent
	registered *sync.Cond
}

// fakeEvent is one pending timer, ticker, or sleep.
type fakeEvent struct {
	deadline time.Time
	// ch receives the fire time for After, Sleep, and Ticker events;
	// nil for AfterFunc events.
	ch chan time.Time
	// fn runs synchronously during Advance for AfterFunc events; nil
	// otherwise.
	fn func()
	// period is non-zero for tickers: after firing the event is
	// rescheduled at deadline + period.
	period time.Duration
	// cancelled is set by Timer.Stop / Ticker.Stop.
	cancelled bool
	// spent is set once a one-shot event has fired, so overlapping
	// Advance calls cannot fire it twice.
	spent bool
}

// Now returns the current fake time.
func (fake *FakeClock) Now() time.Time {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.now
}

// After returns a channel that receives once the clock advances past
// the deadline. If d <= 0, the channel receives immediately.
func (fake *FakeClock) After(d time.Duration) <-chan time.Time {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- fake.now
		return ch
	}
	fake.addLocked(&fakeEvent{deadline: fake.now.Add(d), ch: ch})
	return ch
}

// AfterFunc schedules f to run when the clock advances past the
// deadline. If d <= 0, f runs synchronously before AfterFunc returns.
func (fake *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{
			stop:  func() bool { return false },
			reset: func(time.Duration) bool { return false },
		}
	}

	fake.mu.Lock()
	event := &fakeEvent{deadline: fake.now.Add(d), fn: f}
	fake.addLocked(event)
	fake.mu.Unlock()

	return &Timer{
		stop: func() bool {
			fake.mu.Lock()
			defer fake.mu.Unlock()
			if event.cancelled || event.spent {
				return false
			}
			event.cancelled = true
			return true
		},
		reset: func(d time.Duration) bool {
			fake.mu.Lock()
			defer fake.mu.Unlock()
			wasActive := !event.cancelled && !event.spent
			event.deadline = fake.now.Add(d)
			event.cancelled = false
			event.spent = false
			if !wasActive {
				fake.addLocked(event)
			}
			return wasActive
		},
	}
}

// NewTicker returns a Ticker firing every d fake-time units. Panics
// if d <= 0, matching time.NewTicker.
func (fake *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	fake.mu.Lock()
	ch := make(chan time.Time, 1)
	event := &fakeEvent{deadline: fake.now.Add(d), ch: ch, period: d}
	fake.addLocked(event)
	fake.mu.Unlock()

	return &Ticker{
		C: ch,
		stop: func() {
			fake.mu.Lock()
			defer fake.mu.Unlock()
			event.cancelled = true
		},
		reset: func(d time.Duration) {
			fake.mu.Lock()
			defer fake.mu.Unlock()
			event.period = d
			event.deadline = fake.now.Add(d)
			event.cancelled = false
		},
	}
}

// Sleep blocks the calling goroutine until the clock advances past
// the deadline. Returns immediately if d <= 0.
func (fake *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-fake.After(d)
}

// Advance moves the clock forward by d and fires every pending event
// whose deadline falls within the new time, in deadline order.
// Channel sends are non-blocking (overflowing ticks are dropped,
// matching time.Ticker); AfterFunc callbacks run in the calling
// goroutine.
func (fake *FakeClock) Advance(d time.Duration) {
	fake.mu.Lock()
	fake.now = fake.now.Add(d)
	target := fake.now
	fake.mu.Unlock()

	for {
		event, ok := fake.nextExpired(target)
		if !ok {
			return
		}
		if event.fn != nil {
			event.fn()
			continue
		}
		select {
		case event.ch <- target:
		default:
		}
	}
}

// nextExpired removes and returns the earliest pending event whose
// deadline is at or before target, rescheduling tickers for their
// next period. Returns false when nothing else is due.
func (fake *FakeClock) nextExpired(target time.Time) (*fakeEvent, bool) {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	var earliest *fakeEvent
	for _, event := range fake.pending {
		if event.cancelled || event.deadline.After(target) {
			continue
		}
		if earliest == nil || event.deadline.Before(earliest.deadline) {
			earliest = event
		}
	}
	if earliest == nil {
		// Drop cancelled events while nothing is due.
		fake.pending = slices.DeleteFunc(fake.pending, func(event *fakeEvent) bool {
			return event.cancelled
		})
		return nil, false
	}

	if earliest.period > 0 {
		earliest.deadline = earliest.deadline.Add(earliest.period)
	} else {
		earliest.spent = true
		fake.pending = slices.DeleteFunc(fake.pending, func(event *fakeEvent) bool {
			return event == earliest
		})
	}
	return earliest, true
}

// WaitForTimers blocks until at least n events are pending. This
// removes the race between a goroutine registering a timer and the
// test advancing the clock:
//
//	go manager.Connect(ctx)
//	fakeClock.WaitForTimers(1)
//	fakeClock.Advance(3 * time.Second)
func (fake *FakeClock) WaitForTimers(n int) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	for fake.pendingLocked() < n {
		fake.registered.Wait()
	}
}

// PendingCount returns the number of active pending events. Useful
// for asserting that exactly one reconnect timer exists.
func (fake *FakeClock) PendingCount() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.pendingLocked()
}

func (fake *FakeClock) addLocked(event *fakeEvent) {
	fake.pending = append(fake.pending, event)
	fake.registered.Broadcast()
}

func (fake *FakeClock) pendingLocked() int {
	count := 0
	for _, event := range fake.pending {
		if !event.cancelled && !event.spent {
			count++
		}
	}
	return count
}
