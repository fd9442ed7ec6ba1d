package tui

import (
	"sort"

	"github.com/verte-zerg/readtrack/internal/viewtracker"
)

// sectionNode is the rendered box of one section, spanning lines [start, end).
type sectionNode struct {
	index int
	start int
	end   int
}

func (n *sectionNode) Display() (viewtracker.Display, error) {
	return viewtracker.DisplayBlock, nil
}

func (n *sectionNode) FirstChild() (viewtracker.Region, bool) {
	return nil, false
}

// wrapperNode wraps a section for tracking without adding any lines of its own.
type wrapperNode struct {
	child *sectionNode
}

func (w *wrapperNode) Display() (viewtracker.Display, error) {
	return viewtracker.DisplayContents, nil
}

func (w *wrapperNode) FirstChild() (viewtracker.Region, bool) {
	if w.child == nil {
		return nil, false
	}
	return w.child, true
}

// viewportObserver reports how much of each observed node is inside the visible
// line window. Callbacks fire once on Observe and then on every threshold crossing.
type viewportObserver struct {
	disabled bool
	top      int
	height   int
	nextID   int
	watches  map[int]*watch
}

type watch struct {
	observer  *viewportObserver
	id        int
	target    viewtracker.Region
	threshold float64
	onChange  func(viewtracker.Entry)
	above     *bool
}

func newViewportObserver(disabled bool) *viewportObserver {
	return &viewportObserver{disabled: disabled, watches: map[int]*watch{}}
}

// Supported implements viewtracker.Prober.
func (o *viewportObserver) Supported() bool {
	return !o.disabled
}

func (o *viewportObserver) Observe(target viewtracker.Region, threshold float64, onChange func(viewtracker.Entry)) viewtracker.Observation {
	o.nextID++
	w := &watch{observer: o, id: o.nextID, target: target, threshold: threshold, onChange: onChange}
	o.watches[w.id] = w
	o.notify(w)
	return w
}

// setWindow updates the visible line window and re-evaluates every watch.
func (o *viewportObserver) setWindow(top, height int) {
	o.top = top
	o.height = height
	o.check()
}

func (o *viewportObserver) check() {
	ids := make([]int, 0, len(o.watches))
	for id := range o.watches {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		// A callback may disconnect later watches.
		if w, ok := o.watches[id]; ok {
			o.notify(w)
		}
	}
}

func (o *viewportObserver) notify(w *watch) {
	ratio := o.ratio(w.target)
	above := ratio > 0 && ratio >= w.threshold
	if w.above != nil && *w.above == above {
		return
	}
	w.above = &above
	w.onChange(viewtracker.Entry{Ratio: ratio, Intersecting: ratio > 0})
}

func (o *viewportObserver) ratio(target viewtracker.Region) float64 {
	node, ok := target.(*sectionNode)
	if !ok || node.end <= node.start || o.height <= 0 {
		return 0
	}
	start := max(node.start, o.top)
	end := min(node.end, o.top+o.height)
	if end <= start {
		return 0
	}
	return float64(end-start) / float64(node.end-node.start)
}

func (w *watch) Disconnect() {
	delete(w.observer.watches, w.id)
}
