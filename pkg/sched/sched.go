// Package sched abstracts timer scheduling so components that rely on
// delays and periodic ticks (the export progress ticker, the preview
// debounce) can be driven deterministically in tests. The wall-clock
// implementation is a thin wrapper over the time package; Manual advances
// virtual time by hand.
package sched

import (
	"sync"
	"time"
)

// Timer is a single pending callback that can be cancelled
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// callback from firing.
	Stop() bool
}

// Ticker is a repeating callback that runs until stopped
type Ticker interface {
	Stop()
}

// Scheduler schedules one-shot and repeating callbacks
type Scheduler interface {
	// AfterFunc runs fn once after d has elapsed
	AfterFunc(d time.Duration, fn func()) Timer
	// Every runs fn repeatedly every d until the ticker is stopped
	Every(d time.Duration, fn func()) Ticker
	// Now returns the scheduler's current time
	Now() time.Time
}

// New returns a Scheduler backed by wall-clock timers
func New() Scheduler {
	return wallClock{}
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, fn func()) Timer {
	return wallTimer{t: time.AfterFunc(d, fn)}
}

func (wallClock) Every(d time.Duration, fn func()) Ticker {
	t := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-t.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	return &wallTicker{t: t, done: done}
}

func (wallClock) Now() time.Time { return time.Now() }

type wallTimer struct {
	t *time.Timer
}

func (w wallTimer) Stop() bool { return w.t.Stop() }

type wallTicker struct {
	t    *time.Ticker
	done chan struct{}
	once sync.Once
}

func (w *wallTicker) Stop() {
	w.once.Do(func() {
		w.t.Stop()
		close(w.done)
	})
}
