package tui

import (
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/readtrack/internal/datalayer"
	"github.com/verte-zerg/readtrack/internal/document"
	"github.com/verte-zerg/readtrack/internal/model"
)

func testDocument(t *testing.T) document.Document {
	t.Helper()
	var b strings.Builder
	b.WriteString("# One\nFirst section.\n\n# Two\nSecond section.\n\n# Three\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "Paragraph %d.\n\n", i)
	}
	doc, err := document.Parse(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func newTestModel(t *testing.T, noObserver bool) (*Model, *datalayer.Layer) {
	t.Helper()
	layer := datalayer.New()
	cfg := model.TrackConfig{
		Category:   "docs",
		Threshold:  0.5,
		ReadTime:   2 * time.Second,
		NoObserver: noObserver,
	}
	m, err := NewModel(testDocument(t), cfg, layer, nil)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	// Window [0,6) shows all of "One" and two thirds of "Two".
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 8})
	return m, layer
}

func pendingIDs(m *Model) []int {
	ids := make([]int, 0, len(m.sched.pending))
	for id := range m.sched.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func eventNames(layer *datalayer.Layer) []string {
	var names []string
	for _, e := range layer.Events() {
		names = append(names, e.Event)
	}
	return names
}

func TestModelTracksVisibleSections(t *testing.T) {
	m, layer := newTestModel(t, false)

	if got := eventNames(layer); strings.Join(got, ",") != "one,two" {
		t.Fatalf("expected views for visible sections, got %v", got)
	}
	if len(pendingIDs(m)) != 2 {
		t.Fatalf("expected two read timers, got %d", len(pendingIDs(m)))
	}
	for _, id := range pendingIDs(m) {
		m.Update(timerFiredMsg{id: id})
	}
	want := "one,two,one_read_confirmation,two_read_confirmation"
	if got := eventNames(layer); strings.Join(got, ",") != want {
		t.Fatalf("expected %s, got %v", want, got)
	}
	events := layer.Events()
	if events[0].Category != "docs" || events[0].Label != "One" || events[0].Type != model.EventView {
		t.Fatalf("unexpected view payload: %+v", events[0])
	}
	if !m.trackers[0].Snapshot().ReadTriggered || m.trackers[2].Snapshot().ViewTriggered {
		t.Fatalf("unexpected tracker state")
	}
}

func TestModelScrollingAwayCancelsReads(t *testing.T) {
	m, layer := newTestModel(t, false)
	ids := pendingIDs(m)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("G")})
	if len(pendingIDs(m)) != 0 {
		t.Fatalf("expected timers cancelled after scrolling away, got %v", pendingIDs(m))
	}
	for _, id := range ids {
		m.Update(timerFiredMsg{id: id})
	}
	if got := eventNames(layer); len(got) != 2 {
		t.Fatalf("expected only the initial views, got %v", got)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	if len(pendingIDs(m)) != 2 {
		t.Fatalf("expected read timers re-armed on return, got %v", pendingIDs(m))
	}
	if got := eventNames(layer); len(got) != 2 {
		t.Fatalf("views must not repeat, got %v", got)
	}
}

func TestModelQuitUnmountsTrackers(t *testing.T) {
	m, layer := newTestModel(t, false)
	ids := pendingIDs(m)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if len(pendingIDs(m)) != 0 {
		t.Fatalf("expected no pending timers after quit")
	}
	for _, id := range ids {
		m.Update(timerFiredMsg{id: id})
	}
	if layer.Len() != 2 {
		t.Fatalf("nothing may fire after unmount, got %v", eventNames(layer))
	}
	m.Close()
}

func TestModelKeepsProgressAfterQuit(t *testing.T) {
	m, _ := newTestModel(t, false)
	ids := pendingIDs(m)
	m.Update(timerFiredMsg{id: ids[0]})

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	for _, tracker := range m.trackers {
		if tracker.Snapshot().Mounted {
			t.Fatalf("expected trackers to be unmounted")
		}
	}
	// Any later message re-renders the content.
	m.Update(timerFiredMsg{id: ids[1]})
	if out := m.renderFooter(); !containsAll(out, []string{"Viewed 2/3", "Read 1/3", "Events 3"}) {
		t.Fatalf("footer lost progress after quit: %s", out)
	}
	if !strings.Contains(m.View(), markerRead) {
		t.Fatalf("expected read marker in final frame")
	}
}

func TestModelWithoutObserverFiresEverySection(t *testing.T) {
	m, layer := newTestModel(t, true)
	if layer.Len() != 3 {
		t.Fatalf("expected immediate views for every section, got %v", eventNames(layer))
	}
	for _, id := range pendingIDs(m) {
		m.Update(timerFiredMsg{id: id})
	}
	if layer.Len() != 6 {
		t.Fatalf("expected reads for every section, got %v", eventNames(layer))
	}
}

func TestRenderFooterFormats(t *testing.T) {
	m, _ := newTestModel(t, false)
	out := m.renderFooter()
	if !containsAll(out, []string{"Viewed 2/3", "Read 0/3", "Events 2", "Last two"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
	if m.View() == "" {
		t.Fatalf("expected a rendered view")
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
