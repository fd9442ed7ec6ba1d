// Package simulate drives a tracker against a scripted visibility timeline.
package simulate

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/readtrack/internal/datalayer"
	"github.com/verte-zerg/readtrack/internal/model"
	"github.com/verte-zerg/readtrack/internal/schedule"
	"github.com/verte-zerg/readtrack/internal/viewtracker"
)

// Step sets the visible ratio of the simulated region at a point in virtual time.
type Step struct {
	At    time.Duration
	Ratio float64
}

// ParseStep parses "at=ratio", where at is milliseconds or a Go duration.
func ParseStep(raw string) (Step, error) {
	at, ratio, ok := strings.Cut(strings.TrimSpace(raw), "=")
	if !ok {
		return Step{}, fmt.Errorf("invalid step %q (expected at=ratio)", raw)
	}
	d, err := parseAt(strings.TrimSpace(at))
	if err != nil {
		return Step{}, fmt.Errorf("invalid step time %q: %w", at, err)
	}
	r, err := strconv.ParseFloat(strings.TrimSpace(ratio), 64)
	if err != nil {
		return Step{}, fmt.Errorf("invalid step ratio %q: %w", ratio, err)
	}
	if !(r >= 0 && r <= 1) {
		return Step{}, fmt.Errorf("step ratio must be between 0 and 1, got %g", r)
	}
	return Step{At: d, Ratio: r}, nil
}

func parseAt(raw string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("must be >= 0")
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must be >= 0")
	}
	return d, nil
}

// Run mounts one tracker at t=0, replays steps on a virtual clock and returns
// every pushed event with its push time. The run ends at cfg.Until, or one read
// time after the last step when Until is zero. A non-nil UnmountAt unmounts the
// tracker at that time, after any timer due at the same instant.
func Run(cfg model.SimulateConfig, steps []Step, logger *slog.Logger) ([]model.TimedEvent, error) {
	clock := schedule.NewManual()
	var events []model.TimedEvent
	sink := datalayer.SinkFunc(func(e model.Event) {
		events = append(events, model.TimedEvent{At: clock.Now(), Event: e})
	})

	var vis *scriptedVisibility
	opts := viewtracker.Options{Sink: sink, Scheduler: clock, Logger: logger}
	if !cfg.NoObserver {
		vis = &scriptedVisibility{}
		opts.Visibility = vis
	}
	tracker, err := viewtracker.New(viewtracker.Config{
		EventName: cfg.EventName,
		Category:  cfg.Category,
		Label:     cfg.Label,
		Threshold: cfg.Threshold,
		ReadTime:  cfg.ReadTime,
		Debug:     cfg.Debug,
	}, opts)
	if err != nil {
		return nil, err
	}

	ordered := append([]Step(nil), steps...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].At < ordered[j].At })

	until := cfg.Until
	if until <= 0 {
		if len(ordered) > 0 {
			until = ordered[len(ordered)-1].At
		}
		until += cfg.ReadTime
	}

	end := until
	if cfg.UnmountAt != nil && *cfg.UnmountAt < until {
		end = *cfg.UnmountAt
	}

	tracker.Mount(scriptedRegion{})
	for _, step := range ordered {
		if step.At > end || (cfg.UnmountAt != nil && step.At >= *cfg.UnmountAt) {
			break
		}
		clock.AdvanceTo(step.At)
		if vis != nil {
			vis.set(step.Ratio)
		}
	}
	clock.AdvanceTo(end)
	tracker.Unmount()
	clock.AdvanceTo(until)
	return events, nil
}

type scriptedRegion struct{}

func (scriptedRegion) Display() (viewtracker.Display, error) { return viewtracker.DisplayBlock, nil }

func (scriptedRegion) FirstChild() (viewtracker.Region, bool) { return nil, false }

// scriptedVisibility notifies on threshold crossings, like a browser intersection observer.
type scriptedVisibility struct {
	obs []*scriptedObservation
}

type scriptedObservation struct {
	threshold float64
	onChange  func(viewtracker.Entry)
	last      *bool
	closed    bool
}

func (v *scriptedVisibility) Observe(_ viewtracker.Region, threshold float64, onChange func(viewtracker.Entry)) viewtracker.Observation {
	o := &scriptedObservation{threshold: threshold, onChange: onChange}
	v.obs = append(v.obs, o)
	o.notify(0)
	return o
}

func (v *scriptedVisibility) set(ratio float64) {
	for _, o := range v.obs {
		o.notify(ratio)
	}
}

func (o *scriptedObservation) notify(ratio float64) {
	if o.closed {
		return
	}
	above := ratio > 0 && ratio >= o.threshold
	if o.last != nil && *o.last == above {
		return
	}
	o.last = &above
	o.onChange(viewtracker.Entry{Ratio: ratio, Intersecting: ratio > 0})
}

func (o *scriptedObservation) Disconnect() {
	o.closed = true
}
