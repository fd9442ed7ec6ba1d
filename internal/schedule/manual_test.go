package schedule

import (
	"testing"
	"time"
)

func TestManualFiresInDueOrder(t *testing.T) {
	clock := NewManual()
	var order []string
	clock.Schedule(300*time.Millisecond, func() { order = append(order, "c") })
	clock.Schedule(100*time.Millisecond, func() { order = append(order, "a") })
	clock.Schedule(100*time.Millisecond, func() { order = append(order, "b") })

	clock.Advance(99 * time.Millisecond)
	if len(order) != 0 {
		t.Fatalf("expected nothing to fire yet, got %v", order)
	}
	clock.Advance(time.Second)
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("unexpected order: %v", order)
	}
	if clock.Now() != 1099*time.Millisecond {
		t.Fatalf("unexpected clock: %v", clock.Now())
	}
}

func TestManualCallbackSeesDueTime(t *testing.T) {
	clock := NewManual()
	var firedAt time.Duration
	clock.Schedule(2*time.Second, func() { firedAt = clock.Now() })
	clock.Advance(5 * time.Second)
	if firedAt != 2*time.Second {
		t.Fatalf("expected callback at 2s, got %v", firedAt)
	}
}

func TestManualStopIsIdempotent(t *testing.T) {
	clock := NewManual()
	fired := 0
	timer := clock.Schedule(time.Second, func() { fired++ })
	if !timer.Stop() {
		t.Fatalf("expected first Stop to cancel")
	}
	if timer.Stop() {
		t.Fatalf("expected second Stop to be a no-op")
	}
	clock.Advance(2 * time.Second)
	if fired != 0 {
		t.Fatalf("stopped timer fired")
	}

	fireOnce := clock.Schedule(time.Second, func() { fired++ })
	clock.Advance(time.Second)
	if fireOnce.Stop() {
		t.Fatalf("Stop after firing must report false")
	}
	if fired != 1 || clock.Pending() != 0 {
		t.Fatalf("unexpected state: fired=%d pending=%d", fired, clock.Pending())
	}
}

func TestManualNestedSchedule(t *testing.T) {
	clock := NewManual()
	var at []time.Duration
	clock.Schedule(time.Second, func() {
		at = append(at, clock.Now())
		clock.Schedule(time.Second, func() { at = append(at, clock.Now()) })
	})
	clock.Advance(3 * time.Second)
	if len(at) != 2 || at[0] != time.Second || at[1] != 2*time.Second {
		t.Fatalf("unexpected firing times: %v", at)
	}
}
