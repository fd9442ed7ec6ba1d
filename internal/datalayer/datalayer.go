// Package datalayer provides the append-only analytics event queue.
package datalayer

import (
	"sort"
	"sync"

	"github.com/verte-zerg/readtrack/internal/model"
)

// Sink receives analytics events. Push is fire-and-forget.
type Sink interface {
	Push(event model.Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(model.Event)

// Push implements Sink.
func (f SinkFunc) Push(event model.Event) {
	f(event)
}

// Layer is an append-only, order-preserving event queue with optional consumers.
type Layer struct {
	mu        sync.Mutex
	events    []model.Event
	listeners map[int]func(model.Event)
	nextID    int
}

// Default is the process-wide data layer.
var Default = New()

// New returns an empty Layer.
func New() *Layer {
	return &Layer{listeners: map[int]func(model.Event){}}
}

// Push appends the event and notifies subscribers in subscription order.
func (l *Layer) Push(event model.Event) {
	l.mu.Lock()
	l.events = append(l.events, event)
	listeners := l.snapshotListeners()
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
}

// Events returns a copy of all pushed events.
func (l *Layer) Events() []model.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of pushed events.
func (l *Layer) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Subscribe registers a consumer for subsequent pushes. The returned func removes it.
func (l *Layer) Subscribe(fn func(model.Event)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.listeners, id)
	}
}

func (l *Layer) snapshotListeners() []func(model.Event) {
	if len(l.listeners) == 0 {
		return nil
	}
	ids := make([]int, 0, len(l.listeners))
	for id := range l.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(model.Event), 0, len(ids))
	for _, id := range ids {
		out = append(out, l.listeners[id])
	}
	return out
}

// Push appends the event to the Default layer.
func Push(event model.Event) {
	Default.Push(event)
}
