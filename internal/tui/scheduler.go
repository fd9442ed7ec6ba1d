package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/readtrack/internal/schedule"
)

type timerFiredMsg struct {
	id int
}

// teaScheduler turns timers into tea.Tick commands so callbacks run inside Update.
type teaScheduler struct {
	next    int
	pending map[int]func()
	queued  []tea.Cmd
}

func newTeaScheduler() *teaScheduler {
	return &teaScheduler{pending: map[int]func(){}}
}

func (s *teaScheduler) Schedule(d time.Duration, fn func()) schedule.Timer {
	s.next++
	id := s.next
	s.pending[id] = fn
	s.queued = append(s.queued, tea.Tick(d, func(time.Time) tea.Msg {
		return timerFiredMsg{id: id}
	}))
	return teaTimer{scheduler: s, id: id}
}

// fire runs the callback for id unless it was stopped.
func (s *teaScheduler) fire(id int) bool {
	fn, ok := s.pending[id]
	if !ok {
		return false
	}
	delete(s.pending, id)
	fn()
	return true
}

// drain returns the tick commands queued since the last drain.
func (s *teaScheduler) drain() tea.Cmd {
	if len(s.queued) == 0 {
		return nil
	}
	cmds := s.queued
	s.queued = nil
	return tea.Batch(cmds...)
}

type teaTimer struct {
	scheduler *teaScheduler
	id        int
}

func (t teaTimer) Stop() bool {
	if _, ok := t.scheduler.pending[t.id]; !ok {
		return false
	}
	delete(t.scheduler.pending, t.id)
	return true
}
