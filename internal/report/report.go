// Package report summarizes analytics events pushed by trackers.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/verte-zerg/readtrack/internal/model"
)

var headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)

// Summarize groups events by base event name.
func Summarize(events []model.Event) []model.EventSummary {
	byName := map[string]*model.EventSummary{}
	for _, e := range events {
		name := e.BaseName()
		s, ok := byName[name]
		if !ok {
			s = &model.EventSummary{Event: name, Category: e.Category}
			byName[name] = s
		}
		if s.Category == "" {
			s.Category = e.Category
		}
		switch e.Type {
		case model.EventView:
			s.Views++
		case model.EventReadConfirmation:
			s.Reads++
		}
	}
	out := make([]model.EventSummary, 0, len(byName))
	for _, s := range byName {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Event < out[j].Event
	})
	return out
}

// ReadRate returns reads per view, or 0 without views.
func ReadRate(s model.EventSummary) float64 {
	if s.Views == 0 {
		return 0
	}
	return float64(s.Reads) / float64(s.Views)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Render prints the summary table. The title is styled when styled is true.
func Render(w io.Writer, rows []model.EventSummary, styled bool) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No events found.")
		return err
	}
	title := "Tracked Events"
	if styled {
		title = headerStyle.Render(title)
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}

	headers := []string{"Event", "Category", "Views", "Reads", "Read rate"}
	tableRows := make([][]string, 0, len(rows)+1)
	totalViews, totalReads := 0, 0
	for _, r := range rows {
		category := r.Category
		if category == "" {
			category = "-"
		}
		tableRows = append(tableRows, []string{
			r.Event,
			category,
			fmt.Sprintf("%d", r.Views),
			fmt.Sprintf("%d", r.Reads),
			fmt.Sprintf("%.1f%%", ReadRate(r)*100),
		})
		totalViews += r.Views
		totalReads += r.Reads
	}
	total := model.EventSummary{Views: totalViews, Reads: totalReads}
	tableRows = append(tableRows, []string{
		"total",
		"",
		fmt.Sprintf("%d", totalViews),
		fmt.Sprintf("%d", totalReads),
		fmt.Sprintf("%.1f%%", ReadRate(total)*100),
	})
	rightAlign := map[int]bool{2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
