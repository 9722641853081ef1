package sched

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by explicit calls to Advance. Callbacks run
// synchronously on the goroutine calling Advance, in deadline order, so
// tests observe a deterministic event sequence.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*manualTimer
	tickers []*manualTicker
}

// NewManual creates a manual scheduler starting at an arbitrary fixed time
func NewManual() *Manual {
	return &Manual{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

type manualTimer struct {
	deadline time.Time
	fn       func()
	stopped  bool
	fired    bool
	owner    *Manual
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

type manualTicker struct {
	interval time.Duration
	next     time.Time
	fn       func()
	stopped  bool
	owner    *Manual
}

func (t *manualTicker) Stop() {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	t.stopped = true
}

// AfterFunc registers fn to run once the virtual clock passes d
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{deadline: m.now.Add(d), fn: fn, owner: m}
	m.timers = append(m.timers, t)
	return t
}

// Every registers fn to run each time the virtual clock passes a multiple of d
func (m *Manual) Every(d time.Duration, fn func()) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{interval: d, next: m.now.Add(d), fn: fn, owner: m}
	m.tickers = append(m.tickers, t)
	return t
}

// Now returns the current virtual time
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the virtual clock forward, firing due timers and ticker
// ticks in deadline order. Callbacks may schedule or stop other work.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		fn, at, ok := m.popNextEvent(target)
		if !ok {
			break
		}
		m.mu.Lock()
		m.now = at
		m.mu.Unlock()
		fn()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// popNextEvent finds the earliest pending event at or before target,
// marks it consumed, and returns its callback. Ticker events reschedule
// themselves by their interval.
func (m *Manual) popNextEvent(target time.Time) (func(), time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Keep the timer slice tidy as fired entries accumulate
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	m.timers = live
	sort.SliceStable(m.timers, func(i, j int) bool {
		return m.timers[i].deadline.Before(m.timers[j].deadline)
	})

	var bestTimer *manualTimer
	var bestTicker *manualTicker
	var bestAt time.Time
	found := false

	for _, t := range m.timers {
		if t.deadline.After(target) {
			continue
		}
		if !found || t.deadline.Before(bestAt) {
			found = true
			bestAt = t.deadline
			bestTimer = t
			bestTicker = nil
		}
	}

	for _, t := range m.tickers {
		if t.stopped || t.next.After(target) {
			continue
		}
		if !found || t.next.Before(bestAt) {
			found = true
			bestAt = t.next
			bestTimer = nil
			bestTicker = t
		}
	}

	if !found {
		return nil, time.Time{}, false
	}

	// Consume the event under the lock so it cannot be selected twice;
	// the callback itself runs in Advance without the lock held.
	if bestTimer != nil {
		bestTimer.fired = true
		return bestTimer.fn, bestAt, true
	}
	bestTicker.next = bestTicker.next.Add(bestTicker.interval)
	return bestTicker.fn, bestAt, true
}
