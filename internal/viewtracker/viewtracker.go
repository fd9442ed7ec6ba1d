// Package viewtracker reports view and sustained-read analytics events for a region.
//
// A Tracker watches one region through a Visibility source. The first time
// the region is visible at or above the configured threshold it pushes a
// "view" event. If the region then stays visible for the configured read
// time it pushes a "read_confirmation" event. Both events fire at most once
// per mount. Leaving the viewport before the read time cancels the pending
// confirmation; it is armed again on the next entry.
//
// All callbacks are expected on a single goroutine (the host's event loop).
package viewtracker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/readtrack/internal/datalayer"
	"github.com/verte-zerg/readtrack/internal/model"
	"github.com/verte-zerg/readtrack/internal/schedule"
)

const (
	// DefaultThreshold is the visible ratio that counts as a view.
	DefaultThreshold = 0.5
	// DefaultReadTime is how long a region must stay visible to confirm a read.
	DefaultReadTime = 5 * time.Second
)

// Config is the immutable per-tracker configuration.
type Config struct {
	EventName string
	Category  string
	Label     string
	Threshold float64
	ReadTime  time.Duration
	Debug     bool
}

// DefaultConfig returns a Config with default threshold and read time.
func DefaultConfig(eventName string) Config {
	return Config{
		EventName: eventName,
		Threshold: DefaultThreshold,
		ReadTime:  DefaultReadTime,
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if c.EventName == "" {
		return errors.New("event name is required")
	}
	if !(c.Threshold >= 0 && c.Threshold <= 1) {
		return fmt.Errorf("threshold must be between 0 and 1, got %g", c.Threshold)
	}
	if c.ReadTime < 0 {
		return fmt.Errorf("read time must be >= 0, got %v", c.ReadTime)
	}
	return nil
}

// Scheduler runs a callback once after a delay.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) schedule.Timer
}

// Options carries the tracker's collaborators.
type Options struct {
	Sink       datalayer.Sink
	Scheduler  Scheduler
	Visibility Visibility // nil means the host cannot observe visibility.
	Logger     *slog.Logger
}

// Tracker is a ViewTracker instance. It is not safe for concurrent use.
type Tracker struct {
	cfg    Config
	sink   datalayer.Sink
	sched  Scheduler
	vis    Visibility
	logger *slog.Logger

	state *state
}

// state is owned by one mount and dropped on Unmount.
type state struct {
	id            string
	viewTriggered bool
	readTriggered bool
	pending       schedule.Timer
	observation   Observation
}

// Snapshot is a read-only view of the current mount.
type Snapshot struct {
	Mounted       bool
	MountID       string
	ViewTriggered bool
	ReadTriggered bool
	TimerArmed    bool
	Observing     bool
}

// New constructs a Tracker. The tracker does nothing until Mount.
func New(cfg Config, opts Options) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Sink == nil {
		return nil, errors.New("sink is required")
	}
	if opts.Scheduler == nil {
		return nil, errors.New("scheduler is required")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cfg.Debug && opts.Logger != nil {
		logger = opts.Logger
	}
	return &Tracker{
		cfg:    cfg,
		sink:   opts.Sink,
		sched:  opts.Scheduler,
		vis:    opts.Visibility,
		logger: logger.With("event", cfg.EventName),
	}, nil
}

// Config returns the tracker configuration.
func (t *Tracker) Config() Config {
	return t.cfg
}

// Mount starts tracking region with fresh state. A mounted tracker is unmounted first.
func (t *Tracker) Mount(region Region) {
	if t.state != nil {
		t.Unmount()
	}
	st := &state{id: uuid.NewString()}
	t.state = st
	log := t.logger.With("mount", st.id)

	if !Supported(t.vis) {
		log.Debug("visibility observation unavailable; firing view and scheduling read immediately")
		t.triggerView(st)
		t.armRead(st)
		return
	}

	target := observationTarget(region, log)
	st.observation = t.vis.Observe(target, t.cfg.Threshold, func(entry Entry) {
		t.handleEntry(st, entry)
	})
	log.Debug("observing region", "threshold", t.cfg.Threshold, "read_time", t.cfg.ReadTime)
}

// Unmount stops observation and cancels any pending read confirmation. Calling it
// on an unmounted tracker is a no-op.
func (t *Tracker) Unmount() {
	st := t.state
	if st == nil {
		return
	}
	t.state = nil
	t.disconnect(st)
	t.cancelRead(st)
	t.logger.Debug("unmounted", "mount", st.id)
}

// Snapshot returns the current mount state.
func (t *Tracker) Snapshot() Snapshot {
	st := t.state
	if st == nil {
		return Snapshot{}
	}
	return Snapshot{
		Mounted:       true,
		MountID:       st.id,
		ViewTriggered: st.viewTriggered,
		ReadTriggered: st.readTriggered,
		TimerArmed:    st.pending != nil,
		Observing:     st.observation != nil,
	}
}

func (t *Tracker) handleEntry(st *state, entry Entry) {
	if t.state != st {
		return
	}
	if st.viewTriggered && st.readTriggered {
		return
	}
	if t.visible(entry) {
		t.triggerView(st)
		if !st.readTriggered && st.pending == nil {
			t.armRead(st)
		}
		return
	}
	if st.pending != nil {
		t.logger.Debug("left viewport before read time", "mount", st.id, "ratio", entry.Ratio)
		t.cancelRead(st)
	}
}

func (t *Tracker) visible(entry Entry) bool {
	if !entry.Intersecting {
		return false
	}
	return entry.Ratio >= t.cfg.Threshold
}

func (t *Tracker) triggerView(st *state) {
	if st.viewTriggered {
		return
	}
	st.viewTriggered = true
	t.sink.Push(model.Event{
		Event:    t.cfg.EventName,
		Category: t.cfg.Category,
		Label:    t.cfg.Label,
		Type:     model.EventView,
	})
	t.logger.Debug("view", "mount", st.id)
}

func (t *Tracker) armRead(st *state) {
	if st.readTriggered || st.pending != nil {
		return
	}
	st.pending = t.sched.Schedule(t.cfg.ReadTime, func() {
		t.fireRead(st)
	})
}

func (t *Tracker) fireRead(st *state) {
	if t.state != st || st.readTriggered {
		return
	}
	st.pending = nil
	st.readTriggered = true
	t.sink.Push(model.Event{
		Event:    t.cfg.EventName + model.ReadConfirmationSuffix,
		Category: t.cfg.Category,
		Label:    t.cfg.Label,
		Type:     model.EventReadConfirmation,
	})
	t.logger.Debug("read confirmation", "mount", st.id)
	if st.viewTriggered {
		t.disconnect(st)
	}
}

func (t *Tracker) cancelRead(st *state) {
	if st.pending == nil {
		return
	}
	st.pending.Stop()
	st.pending = nil
}

func (t *Tracker) disconnect(st *state) {
	if st.observation == nil {
		return
	}
	st.observation.Disconnect()
	st.observation = nil
}
