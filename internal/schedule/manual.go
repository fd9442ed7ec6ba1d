// Package schedule provides timer implementations for trackers.
package schedule

import (
	"sort"
	"time"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the call prevented a firing.
	Stop() bool
}

// Manual is a virtual clock. Callbacks only run inside Advance, on the caller's goroutine.
type Manual struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	clock *Manual
	due   time.Duration
	seq   int
	fn    func()
	done  bool
}

// NewManual returns a Manual clock at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Now returns the elapsed virtual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Schedule registers fn to run once d has elapsed on the virtual clock.
func (m *Manual) Schedule(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{clock: m, due: m.now + d, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Pending returns the number of live timers.
func (m *Manual) Pending() int {
	return len(m.timers)
}

// Advance moves the clock forward by d, firing due timers in due-time order.
// Timers scheduled by a callback fire in the same call when they fall due.
func (m *Manual) Advance(d time.Duration) {
	m.AdvanceTo(m.now + d)
}

// AdvanceTo moves the clock to target. Moving backwards is a no-op.
func (m *Manual) AdvanceTo(target time.Duration) {
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		m.now = next.due
		m.remove(next)
		next.done = true
		next.fn()
	}
	if target > m.now {
		m.now = target
	}
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].due == m.timers[j].due {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].due < m.timers[j].due
	})
	if m.timers[0].due > target {
		return nil
	}
	return m.timers[0]
}

func (m *Manual) remove(t *manualTimer) {
	for i, candidate := range m.timers {
		if candidate == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

func (t *manualTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	t.clock.remove(t)
	return true
}
