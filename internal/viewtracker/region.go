package viewtracker

import "log/slog"

// Display is the computed layout mode of a region.
type Display int

const (
	// DisplayBlock regions have their own box and can be measured.
	DisplayBlock Display = iota
	// DisplayContents regions contribute no box; only their children are laid out.
	DisplayContents
)

func (d Display) String() string {
	switch d {
	case DisplayBlock:
		return "block"
	case DisplayContents:
		return "contents"
	default:
		return "unknown"
	}
}

// Region is a rendered node that can be observed.
type Region interface {
	// Display returns the computed layout mode. Hosts may fail to compute it.
	Display() (Display, error)
	// FirstChild returns the first rendered child, if any.
	FirstChild() (Region, bool)
}

// Entry is one visibility notification.
type Entry struct {
	Ratio        float64
	Intersecting bool
}

// Observation is a live subscription returned by Visibility.Observe.
type Observation interface {
	Disconnect()
}

// Visibility delivers intersection updates for a region. Implementations call
// onChange once after Observe and again whenever the ratio crosses threshold.
type Visibility interface {
	Observe(target Region, threshold float64, onChange func(Entry)) Observation
}

// Prober is implemented by Visibility sources whose availability is only known at runtime.
type Prober interface {
	Supported() bool
}

// Supported reports whether v can observe visibility.
func Supported(v Visibility) bool {
	if v == nil {
		return false
	}
	if p, ok := v.(Prober); ok {
		return p.Supported()
	}
	return true
}

// observationTarget picks the node to observe. A layout-transparent region has
// no box to intersect, so its first child stands in for it.
func observationTarget(region Region, log *slog.Logger) Region {
	display, err := region.Display()
	if err != nil {
		log.Debug("failed to read region display; observing region itself", "err", err)
		return region
	}
	if display != DisplayContents {
		return region
	}
	child, ok := region.FirstChild()
	if !ok || child == nil {
		return region
	}
	return child
}
