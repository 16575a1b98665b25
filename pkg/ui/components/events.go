// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// EventRow is one contract event in the feed.
type EventRow struct {
	Timestamp   string
	Name        string
	BlockNumber uint64
	TxHash      string
	Summary     string
	Removed     bool
}

// EventsComponent renders the most recent contract events, newest first.
type EventsComponent struct {
	rows    []EventRow
	maxRows int
	offset  int
	visible int
}

// NewEventsComponent creates an events component keeping maxRows rows.
func NewEventsComponent(maxRows int) *EventsComponent {
	return &EventsComponent{
		rows:    make([]EventRow, 0, maxRows),
		maxRows: maxRows,
		visible: 10,
	}
}

// Add prepends an event.
func (e *EventsComponent) Add(row EventRow) {
	e.rows = append([]EventRow{row}, e.rows...)
	if len(e.rows) > e.maxRows {
		e.rows = e.rows[:e.maxRows]
	}
}

// Clear drops every row.
func (e *EventsComponent) Clear() {
	e.rows = e.rows[:0]
	e.offset = 0
}

// Len returns the number of stored rows.
func (e *EventsComponent) Len() int {
	return len(e.rows)
}

func (e *EventsComponent) ScrollUp() {
	if e.offset > 0 {
		e.offset--
	}
}

func (e *EventsComponent) ScrollDown() {
	if e.offset < len(e.rows)-e.visible {
		e.offset++
	}
}

// View renders the events table.
func (e *EventsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	removedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	result := headerStyle.Render(fmt.Sprintf("CONTRACT EVENTS (last %d)", e.maxRows)) + "\n"
	if len(e.rows) == 0 {
		return result + mutedStyle.Render("  Waiting for Design, Mint or TransferObject...")
	}

	end := e.offset + e.visible
	if end > len(e.rows) {
		end = len(e.rows)
	}

	for _, row := range e.rows[e.offset:end] {
		line := fmt.Sprintf("[%s] %-15s #%-8d %s  %s",
			row.Timestamp, row.Name, row.BlockNumber, shortHash(row.TxHash), row.Summary)
		if row.Removed {
			result += removedStyle.Render(line+" (removed)") + "\n"
			continue
		}
		result += line + "\n"
	}

	return result
}

func shortHash(h string) string {
	if len(h) <= 14 {
		return h
	}
	return h[:8] + "…" + h[len(h)-4:]
}
