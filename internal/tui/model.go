// Package tui provides the Bubble Tea reading interface.
package tui

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/readtrack/internal/datalayer"
	"github.com/verte-zerg/readtrack/internal/document"
	"github.com/verte-zerg/readtrack/internal/model"
	"github.com/verte-zerg/readtrack/internal/viewtracker"
)

const (
	markerUnseen = "○"
	markerViewed = "●"
	markerRead   = "✓"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	bodyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	unseenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	viewedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	readStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FB35F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// line is one rendered content line before styling.
type line struct {
	section int
	heading bool
	text    string
}

// Model implements the Bubble Tea reading UI.
type Model struct {
	doc    document.Document
	config model.TrackConfig
	layer  *datalayer.Layer
	logger *slog.Logger

	sched    *teaScheduler
	observer *viewportObserver
	sections []*sectionNode
	wrappers []*wrapperNode
	trackers []*viewtracker.Tracker
	final    []viewtracker.Snapshot

	viewport viewport.Model
	lines    []line
	margin   int
	width    int
	height   int
	mounted  bool
	closed   bool

	eventCount  int
	lastEvent   model.Event
	unsubscribe func()
}

// NewModel constructs a reading TUI model with one tracker per section.
func NewModel(doc document.Document, cfg model.TrackConfig, layer *datalayer.Layer, logger *slog.Logger) (*Model, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Model{
		doc:      doc,
		config:   cfg,
		layer:    layer,
		logger:   logger,
		sched:    newTeaScheduler(),
		observer: newViewportObserver(cfg.NoObserver),
		viewport: viewport.New(0, 0),
	}
	for i, section := range doc.Sections {
		node := &sectionNode{index: i}
		m.sections = append(m.sections, node)
		m.wrappers = append(m.wrappers, &wrapperNode{child: node})

		label := section.Heading
		if label == "" {
			label = doc.Title()
		}
		tracker, err := viewtracker.New(viewtracker.Config{
			EventName: doc.EventName(section),
			Category:  cfg.Category,
			Label:     label,
			Threshold: cfg.Threshold,
			ReadTime:  cfg.ReadTime,
			Debug:     cfg.Debug,
		}, viewtracker.Options{
			Sink:       layer,
			Scheduler:  m.sched,
			Visibility: m.observer,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", section.Slug, err)
		}
		m.trackers = append(m.trackers, tracker)
	}
	m.unsubscribe = layer.Subscribe(func(e model.Event) {
		m.eventCount++
		m.lastEvent = e
	})
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		if !m.mounted {
			m.mount()
		}
	case timerFiredMsg:
		m.sched.fire(msg.id)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.Close()
			return m, tea.Quit
		case "g", "home":
			m.viewport.GotoTop()
		case "G", "end":
			m.viewport.GotoBottom()
		default:
			m.viewport, cmd = m.viewport.Update(msg)
		}
		m.observer.setWindow(m.viewport.YOffset, m.viewport.Height)
	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		m.observer.setWindow(m.viewport.YOffset, m.viewport.Height)
	}
	m.render()
	return m, tea.Batch(cmd, m.sched.drain())
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	title := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, titleStyle.Render(m.doc.Title()))
	footer := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.renderFooter())
	return title + "\n" + m.viewport.View() + "\n" + footer
}

// Close unmounts every tracker. It is safe to call more than once. The last
// frame keeps showing the state each section reached before unmounting.
func (m *Model) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.final = make([]viewtracker.Snapshot, len(m.trackers))
	for i, tracker := range m.trackers {
		m.final[i] = tracker.Snapshot()
		tracker.Unmount()
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Model) mount() {
	m.mounted = true
	for i, tracker := range m.trackers {
		tracker.Mount(m.wrappers[i])
	}
	m.logger.Debug("mounted trackers", "sections", len(m.trackers), "observer", m.observer.Supported())
}

// layout wraps the document for the current size and updates section line ranges.
func (m *Model) layout() {
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	m.margin = (m.width - contentWidth) / 2
	headingWidth := contentWidth - lipgloss.Width(markerUnseen) - 1
	if headingWidth < 1 {
		headingWidth = 1
	}

	m.lines = m.lines[:0]
	for i, section := range m.doc.Sections {
		if i > 0 {
			m.lines = append(m.lines, line{section: -1})
		}
		node := m.sections[i]
		node.start = len(m.lines)
		if section.Heading != "" {
			for _, text := range wrapText(section.Heading, headingWidth) {
				m.lines = append(m.lines, line{section: i, heading: true, text: text})
			}
		}
		for p, paragraph := range section.Body {
			if p > 0 || section.Heading != "" {
				m.lines = append(m.lines, line{section: i})
			}
			for _, text := range wrapText(paragraph, contentWidth) {
				m.lines = append(m.lines, line{section: i, text: text})
			}
		}
		node.end = len(m.lines)
	}

	bodyHeight := m.height - 2
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = bodyHeight
	m.render()
	m.observer.setWindow(m.viewport.YOffset, m.viewport.Height)
}

// render restyles content so heading markers follow tracker state.
func (m *Model) render() {
	if len(m.lines) == 0 {
		return
	}
	pad := strings.Repeat(" ", m.margin)
	var b strings.Builder
	prevHeading := -1
	for i, l := range m.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if l.text == "" {
			continue
		}
		b.WriteString(pad)
		if !l.heading {
			b.WriteString(bodyStyle.Render(l.text))
			continue
		}
		if prevHeading != l.section {
			b.WriteString(m.marker(l.section))
			prevHeading = l.section
		} else {
			b.WriteString(" ")
		}
		b.WriteString(" ")
		b.WriteString(headingStyle.Render(l.text))
	}
	m.viewport.SetContent(b.String())
}

func (m *Model) marker(section int) string {
	snap := m.snapshot(section)
	switch {
	case snap.ReadTriggered:
		return readStyle.Render(markerRead)
	case snap.ViewTriggered:
		return viewedStyle.Render(markerViewed)
	default:
		return unseenStyle.Render(markerUnseen)
	}
}

func (m *Model) snapshot(section int) viewtracker.Snapshot {
	if m.final != nil {
		return m.final[section]
	}
	return m.trackers[section].Snapshot()
}

func (m *Model) renderFooter() string {
	viewed, read := 0, 0
	for i := range m.trackers {
		snap := m.snapshot(i)
		if snap.ViewTriggered {
			viewed++
		}
		if snap.ReadTriggered {
			read++
		}
	}
	segments := []string{
		fmt.Sprintf("Viewed %d/%d", viewed, len(m.trackers)),
		fmt.Sprintf("Read %d/%d", read, len(m.trackers)),
		fmt.Sprintf("Events %d", m.eventCount),
	}
	if m.eventCount > 0 {
		segments = append(segments, fmt.Sprintf("Last %s", m.lastEvent.Event))
	}
	segments = append(segments, fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100)))
	return footerStyle.Render(strings.Join(segments, "  "))
}
