// Package clock abstracts delayed callbacks so schedulers can be driven
// by hand in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

type Timer interface {
	// Stop prevents the callback from running. It reports whether the
	// call stopped the timer; false means it already fired or was stopped.
	Stop() bool
}

type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Real returns a Clock backed by time.AfterFunc.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Fake is a manual clock. Callbacks run synchronously inside Advance,
// on the caller's goroutine, in deadline order.
type Fake struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

func NewFake() *Fake { return &Fake{} }

type fakeTimer struct {
	c       *Fake
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	t := &fakeTimer{c: f, at: f.now + d, seq: f.seq, f: fn}
	f.timers = append(f.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward by d and fires every timer that falls due,
// including timers scheduled by callbacks within the window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now + d
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.nextDue(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = next.at
		next.fired = true
		f.mu.Unlock()

		next.f()
	}
}

// Pending reports how many timers are scheduled and not yet fired or stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, t := range f.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

func (f *Fake) nextDue(target time.Duration) *fakeTimer {
	live := f.timers[:0]
	for _, t := range f.timers {
		if !t.fired && !t.stopped {
			live = append(live, t)
		}
	}
	f.timers = live

	sort.Slice(f.timers, func(i, j int) bool {
		if f.timers[i].at != f.timers[j].at {
			return f.timers[i].at < f.timers[j].at
		}
		return f.timers[i].seq < f.timers[j].seq
	})
	if len(f.timers) == 0 || f.timers[0].at > target {
		return nil
	}
	return f.timers[0]
}
