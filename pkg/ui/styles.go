// Package ui provides the Bubble Tea dashboard for the ledger gateway.
package ui

import "github.com/charmbracelet/lipgloss"

// Palette. Green and red track node health, amber marks the secondary
// endpoint and paused views.
var (
	ColorBrand    = lipgloss.Color("#0EA5E9")
	ColorHealthy  = lipgloss.Color("#22C55E")
	ColorDown     = lipgloss.Color("#DC2626")
	ColorFailover = lipgloss.Color("#EAB308")
	ColorMuted    = lipgloss.Color("#94A3B8")
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0B1120")).
			Background(ColorBrand).
			Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1)

	connectedBadge    = lipgloss.NewStyle().Bold(true).Foreground(ColorHealthy)
	disconnectedBadge = lipgloss.NewStyle().Bold(true).Foreground(ColorDown)
	secondaryBadge    = lipgloss.NewStyle().Bold(true).Foreground(ColorFailover)

	mutedText = lipgloss.NewStyle().Foreground(ColorMuted)
	helpText  = mutedText.Padding(0, 1)
)
