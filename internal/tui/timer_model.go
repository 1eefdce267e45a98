package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mpetrov/fieldclock/internal/timer"
)

// TimerModel renders the running timer. The display re-queries the
// controller every tick and shows now minus the stored start time; the
// model never accumulates elapsed time itself, so suspending the
// terminal or losing ticks cannot make the clock drift.
type TimerModel struct {
	width  int
	height int

	controller *timer.Controller
	clientName string

	elapsed time.Duration

	stopping bool // user pressed S, stop on exit
	exiting  bool // user pressed ESC/Q, leave the timer running
}

// timerTickMsg is sent every second to refresh the display
type timerTickMsg struct{}

// NewTimerModel creates a timer view over a running controller.
func NewTimerModel(controller *timer.Controller, clientName string) TimerModel {
	status := controller.Status()
	return TimerModel{
		controller: controller,
		clientName: clientName,
		elapsed:    time.Duration(status.ElapsedSeconds(time.Now())) * time.Second,
	}
}

// Init starts the display ticker
func (m TimerModel) Init() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg{}
	})
}

// Update handles messages
func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		status := m.controller.Status()
		if !status.Running {
			// stopped underneath us (geofence exit, another process)
			m.exiting = true
			return m, tea.Quit
		}
		m.elapsed = time.Duration(status.ElapsedSeconds(time.Now())) * time.Second

		if !m.stopping && !m.exiting {
			return m, tea.Tick(time.Second, func(t time.Time) tea.Msg {
				return timerTickMsg{}
			})
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "s", "S":
			m.stopping = true
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			m.exiting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the timer
func (m TimerModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	status := m.controller.Status()

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true).
		Align(lipgloss.Center).
		Width(m.width)

	clientStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Bold(true).
		Align(lipgloss.Center).
		Width(m.width)

	clockStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentMain)).
		Bold(true).
		Align(lipgloss.Center).
		Width(m.width)

	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render("⏱  TRACKING TIME"),
		"",
		clientStyle.Render(m.clientName),
		"",
		clockStyle.Render(formatClock(m.elapsed)),
		"",
		infoStyle.Render(fmt.Sprintf("Started at %s", status.StartedAt.Format("15:04:05"))),
	)

	panel := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height - 2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, panel, m.renderHelpBar())
}

// formatClock renders elapsed time as HH:MM:SS (or MM:SS under an hour)
func formatClock(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// renderHelpBar renders the help bar at the bottom
func (m TimerModel) renderHelpBar() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width)

	return helpStyle.Render("s stop & save · esc/q exit (keep running) · ctrl+c force quit")
}
