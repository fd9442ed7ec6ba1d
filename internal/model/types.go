// Package model defines shared data structures.
package model

import (
	"strings"
	"time"
)

// EventType distinguishes the two analytics events a tracker emits.
type EventType string

const (
	// EventView is pushed the first time a region becomes visible.
	EventView EventType = "view"
	// EventReadConfirmation is pushed once a region stayed visible for the read time.
	EventReadConfirmation EventType = "read_confirmation"
)

// ReadConfirmationSuffix is appended to the event name of read confirmations.
const ReadConfirmationSuffix = "_read_confirmation"

// Event is the record pushed into the data layer.
type Event struct {
	Event    string    `json:"event"`
	Category string    `json:"category,omitempty"`
	Label    string    `json:"label,omitempty"`
	Type     EventType `json:"type"`
}

// BaseName returns the event name without the read confirmation suffix.
func (e Event) BaseName() string {
	if e.Type != EventReadConfirmation {
		return e.Event
	}
	return strings.TrimSuffix(e.Event, ReadConfirmationSuffix)
}

// TrackConfig defines tracking settings resolved from flags, env, config and documents.
type TrackConfig struct {
	Category   string
	Threshold  float64
	ReadTime   time.Duration
	Debug      bool
	NoObserver bool
	EventsPath string
}

// SimulateConfig defines a headless tracker run.
type SimulateConfig struct {
	EventName  string
	Category   string
	Label      string
	Threshold  float64
	ReadTime   time.Duration
	Debug      bool
	NoObserver bool
	UnmountAt  *time.Duration
	Until      time.Duration
}

// TimedEvent pairs a pushed event with the virtual time it was pushed at.
type TimedEvent struct {
	At    time.Duration
	Event Event
}

// EventSummary aggregates view and read counts for one event name.
type EventSummary struct {
	Event    string
	Category string
	Views    int
	Reads    int
}
