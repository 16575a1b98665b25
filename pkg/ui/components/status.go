// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus is the view of the ledger connection.
type ConnectionStatus struct {
	Connected   bool
	Endpoint    string
	Role        string
	Failovers   uint64
	Consecutive uint64
	LastProbe   time.Time
	LastError   string
}

// StatusComponent renders the ledger connection.
type StatusComponent struct {
	status ConnectionStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{}
}

// Update replaces the connection status.
func (s *StatusComponent) Update(status ConnectionStatus) {
	s.status = status
}

// Connected reports the last known state.
func (s *StatusComponent) Connected() bool {
	return s.status.Connected
}

// View renders the status component.
func (s *StatusComponent) View() string {
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	downStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	state := okStyle.Render("● Connected")
	if !s.status.Connected {
		state = downStyle.Render("○ Disconnected")
	}

	result := fmt.Sprintf("├─ Ledger: %s\n", state)
	result += fmt.Sprintf("├─ Endpoint: %s %s\n", s.status.Endpoint, mutedStyle.Render("("+s.status.Role+")"))
	result += fmt.Sprintf("├─ Failovers: %d", s.status.Failovers)
	if s.status.Consecutive > 0 {
		result += downStyle.Render(fmt.Sprintf("  (%d failed in a row)", s.status.Consecutive))
	}
	result += "\n"

	if !s.status.LastProbe.IsZero() {
		ago := time.Since(s.status.LastProbe).Round(time.Second)
		result += mutedStyle.Render(fmt.Sprintf("└─ Last probe: %s ago", ago)) + "\n"
	}
	if s.status.LastError != "" && !s.status.Connected {
		result += downStyle.Render("   "+s.status.LastError) + "\n"
	}

	return result
}
