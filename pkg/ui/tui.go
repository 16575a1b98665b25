// Package ui provides the Bubble Tea dashboard for the ledger gateway.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
	"github.com/fd1az/contentnft-gateway/pkg/ui/components"
)

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Connecting to the ledger
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	keys   KeyMap
	status *components.StatusComponent
	events *components.EventsComponent
	stats  *components.StatsComponent

	phase        Phase
	welcomeStart time.Time
	startupTime  time.Time

	ready      bool
	quitting   bool
	paused     bool
	width      int
	height     int
	lastStatus *domain.HealthStatus
	lastUpdate time.Time
	errors     []ErrorEntry
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		keys:         DefaultKeyMap(),
		status:       components.NewStatusComponent(),
		events:       components.NewEventsComponent(50),
		stats:        components.NewStatsComponent(),
		phase:        PhaseWelcome,
		welcomeStart: now,
		startupTime:  now,
		errors:       make([]ErrorEntry, 0, 3),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// During welcome phase, any other key skips to startup
		if m.phase == PhaseWelcome {
			m = m.enterStartup()
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Clear):
			m.events.Clear()
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Up):
			m.events.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.events.ScrollDown()
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = make([]ErrorEntry, 0, 3)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m = m.enterStartup()
		}
		return m, tickCmd()

	case StatusMsg:
		st := msg.Status
		m.lastStatus = &st
		m.status.Update(components.ConnectionStatus{
			Connected:   st.Healthy(),
			Endpoint:    string(st.ActiveEndpoint),
			Role:        string(st.ActiveRole),
			Failovers:   st.Failovers,
			Consecutive: st.ConsecutiveFailures,
			LastProbe:   st.LastProbe,
			LastError:   st.LastError,
		})
		if m.phase == PhaseStartup && st.Healthy() {
			m.phase = PhaseDashboard
		}
		m.lastUpdate = time.Now()

	case EventMsg:
		stats := m.stats.Stats()
		switch msg.Event.Name {
		case domain.EventDesign:
			stats.Designs++
		case domain.EventMint:
			stats.Mints++
		case domain.EventTransferObject:
			stats.Transfers++
		}
		m.stats.Update(stats)

		if !m.paused {
			m.events.Add(eventRow(msg.Event))
		}
		m.lastUpdate = time.Now()

	case DeliveryMsg:
		stats := m.stats.Stats()
		stats.Emitted = msg.Emitted
		stats.Dropped = msg.Dropped
		m.stats.Update(stats)

	case ErrorMsg:
		m.errors = append(m.errors, ErrorEntry{
			Message:   msg.Error.Error(),
			Timestamp: time.Now(),
		})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}
	}

	return m, nil
}

func (m Model) enterStartup() Model {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Trigger callback directly (don't use Send() from within Update)
	if OnStartModules != nil {
		go OnStartModules()
	}
	return m
}

func eventRow(ev domain.Event) components.EventRow {
	return components.EventRow{
		Timestamp:   time.Now().Format("15:04:05"),
		Name:        ev.Name,
		BlockNumber: ev.BlockNumber,
		TxHash:      ev.TxHash.Hex(),
		Summary:     summarize(ev),
		Removed:     ev.Removed,
	}
}

// summarize renders the interesting fields of each event kind.
func summarize(ev domain.Event) string {
	field := func(name string) string {
		v, ok := ev.Field(name)
		if !ok {
			return "?"
		}
		if addr, ok := v.(common.Address); ok {
			return shortAddress(addr)
		}
		return fmt.Sprint(v)
	}

	switch ev.Name {
	case domain.EventDesign:
		return fmt.Sprintf("spec %s %q (%s) by %s", field("specId"), field("name"), field("symbol"), field("owner"))
	case domain.EventMint:
		return fmt.Sprintf("object %s of spec %s to %s", field("objectId"), field("specId"), field("owner"))
	case domain.EventTransferObject:
		return fmt.Sprintf("object %s %s → %s", field("objectId"), field("from"), field("to"))
	}
	return ""
}

func shortAddress(a common.Address) string {
	h := a.Hex()
	return h[:6] + "…" + h[len(h)-4:]
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(bannerStyle.Render(" ContentNFT Ledger Gateway "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.status.View() + "\n" + m.stats.View()
	rightCol := m.events.View()

	if m.width > 100 {
		left := panelStyle.Width(m.width/3 - 2).Render(leftCol)
		right := panelStyle.Width(2*m.width/3 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		width := m.width - 4
		if width < 20 {
			width = 80
		}
		b.WriteString(panelStyle.Width(width).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(panelStyle.Width(width).Render(rightCol))
	}

	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDown)
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorDown)

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(mutedText.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(mutedText.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		pauseStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorFailover)
		b.WriteString(pauseStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(helpText.Render(m.keys.helpLine()))

	return b.String()
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorBrand)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	greenStyle := lipgloss.NewStyle().Foreground(ColorHealthy)

	elapsed := time.Since(m.welcomeStart)
	dots := strings.Repeat(".", int(elapsed.Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
    ██████╗ ███╗   ██╗███████╗████████╗
   ██╔════╝ ████╗  ██║██╔════╝╚══██╔══╝
   ██║      ██╔██╗ ██║█████╗     ██║
   ██║      ██║╚██╗██║██╔══╝     ██║
   ╚██████╗ ██║ ╚████║██║        ██║
    ╚═════╝ ╚═╝  ╚═══╝╚═╝        ╚═╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("        L E D G E R   G A T E W A Y"))
	sb.WriteString("\n\n\n")
	sb.WriteString(greenStyle.Render(fmt.Sprintf("              Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("        Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

// renderStartupScreen renders the connecting screen.
func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorBrand).MarginBottom(1)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	connectingStyle := lipgloss.NewStyle().Foreground(ColorFailover)
	failedStyle := lipgloss.NewStyle().Foreground(ColorDown)

	spinners := []string{"◐", "◓", "◑", "◒"}
	idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  ContentNFT Ledger Gateway"))
	sb.WriteString("\n\n")

	endpoint := "ledger"
	if m.lastStatus != nil {
		endpoint = fmt.Sprintf("%s (%s)", m.lastStatus.ActiveEndpoint, m.lastStatus.ActiveRole)
	}
	sb.WriteString(fmt.Sprintf("  %s %s %s\n",
		connectingStyle.Render(spinners[idx]),
		mutedStyle.Render("Connecting to"),
		connectingStyle.Render(endpoint),
	))

	if m.lastStatus != nil && m.lastStatus.LastError != "" {
		sb.WriteString(failedStyle.Render("  ✗ " + m.lastStatus.LastError))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.status.Connected() {
		parts = append(parts, connectedBadge.Render("● Connected"))
	} else {
		parts = append(parts, disconnectedBadge.Render("○ Disconnected"))
	}

	if m.lastStatus != nil {
		role := string(m.lastStatus.ActiveRole)
		if m.lastStatus.ActiveRole == domain.RoleSecondary {
			parts = append(parts, secondaryBadge.Render(role))
		} else {
			parts = append(parts, role)
		}
	}

	parts = append(parts, fmt.Sprintf("Events: %d", m.events.Len()))

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, mutedText.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
// This is set by main.go to signal when to begin loading modules.
var OnStartModules func()

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
