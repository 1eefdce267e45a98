package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mpetrov/fieldclock/internal/db"
	"github.com/mpetrov/fieldclock/internal/timer"
)

// RunTimerTUI shows the running timer until the user stops it or exits.
func RunTimerTUI(controller *timer.Controller, clientName string) error {
	model := NewTimerModel(controller, clientName)

	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	timerModel := finalModel.(TimerModel)
	if timerModel.stopping {
		session, err := controller.StopTimer("")
		if err != nil {
			return fmt.Errorf("failed to stop session: %w", err)
		}
		duration := time.Duration(session.DurationSeconds) * time.Second
		fmt.Printf("⏹️  Stopped tracking time for client #%d: %s\n", session.ClientID, session.Client.Name)
		fmt.Printf("📊 Session duration: %s\n", formatDuration(duration))
	} else if timerModel.exiting {
		status := controller.Status()
		if status.Running {
			fmt.Printf("\n💡 Timer is still running for %s.\n", clientName)
			fmt.Printf("   Use 'fieldclock status' to check it or 'fieldclock stop' to stop it.\n")
		}
	}

	return nil
}

// RunClientWizard starts the interactive add-client wizard.
func RunClientWizard(clients *db.ClientStore) error {
	model := NewClientWizardModel(clients)

	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	if m, ok := finalModel.(ClientWizardModel); ok {
		switch {
		case m.cancelled:
			fmt.Println("❌ Client creation cancelled.")
		case m.err != nil:
			fmt.Printf("❌ Error: %v\n", m.err)
		case m.created != nil:
			fmt.Printf("✅ Added client #%d: %s (%.2f %s/h)\n",
				m.created.ID, m.created.Name, m.created.HourlyRate, m.created.Currency)
		}
	}

	return nil
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d.Hours() >= 1 {
		return fmt.Sprintf("%.1fh", d.Hours())
	} else if d.Minutes() >= 1 {
		return fmt.Sprintf("%.0fm", d.Minutes())
	} else {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
}
