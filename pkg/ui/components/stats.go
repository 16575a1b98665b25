// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds event delivery counters for display.
type Stats struct {
	Designs   uint64
	Mints     uint64
	Transfers uint64
	Emitted   uint64
	Dropped   uint64
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current counters.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	dropped := valueStyle.Render(fmt.Sprintf("%d", s.stats.Dropped))
	if s.stats.Dropped > 0 {
		dropped = errorStyle.Render(fmt.Sprintf("%d", s.stats.Dropped))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Designs: %s  │  Mints: %s  │  Transfers: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Designs)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Mints)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Transfers)),
		) +
		fmt.Sprintf("Delivered: %s  │  Dropped: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Emitted)),
			dropped,
		)
}
