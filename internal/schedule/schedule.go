// Package schedule abstracts delayed callbacks so that simulated latency can
// be driven by real timers in production and by a virtual clock in tests.
package schedule

import (
	"sort"
	"sync"
	"time"
)

// Scheduler runs f once, after d has elapsed. There is no cancellation:
// once scheduled, a callback always fires.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func())
}

// Real schedules on the wall clock. Callbacks run on timer goroutines, so
// whatever they touch must be guarded by the caller.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

type pending struct {
	at  time.Time
	seq uint64
	f   func()
}

// Manual is a virtual clock. Time only moves on Advance, and due callbacks
// fire synchronously on the goroutine calling Advance, in deadline order
// (ties in scheduling order).
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []pending
}

// NewManual returns a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.seq++
	m.pending = append(m.pending, pending{at: m.now.Add(d), seq: m.seq, f: f})
}

// Pending reports how many callbacks have not fired yet.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Advance moves the clock forward by d, firing every callback that becomes
// due. Callbacks scheduled by a firing callback are honored if they fall
// inside the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next, ok := m.popDue(target)
		if !ok {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.at
		m.mu.Unlock()

		next.f()
	}
}

// popDue removes and returns the earliest callback due at or before target.
// Caller holds m.mu.
func (m *Manual) popDue(target time.Time) (pending, bool) {
	if len(m.pending) == 0 {
		return pending{}, false
	}
	sort.Slice(m.pending, func(i, j int) bool {
		if m.pending[i].at.Equal(m.pending[j].at) {
			return m.pending[i].seq < m.pending[j].seq
		}
		return m.pending[i].at.Before(m.pending[j].at)
	})
	head := m.pending[0]
	if head.at.After(target) {
		return pending{}, false
	}
	m.pending = m.pending[1:]
	return head, true
}
