package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpetrov/fieldclock/internal/apperrors"
	"github.com/mpetrov/fieldclock/internal/tui"
)

var startCmd = &cobra.Command{
	Use:   "start [client-id]",
	Short: "Start tracking time for a client",
	Long: `Start tracking time for a client. Opens the interactive timer by default,
use --no-ui for a simple start.

If a timer is already running for another client, the start fails; pass
--switch to explicitly stop the running timer and start the new one.

Examples:
  fieldclock start 3           # Start timer with interactive UI
  fieldclock start 3 --no-ui   # Start timer without UI
  fieldclock start 3 --switch  # Stop the running timer, then start`,
	Args: cobra.ExactArgs(1),
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		clientID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Printf("Error: invalid client ID '%s'\n", args[0])
			return
		}

		switchTimer, _ := cmd.Flags().GetBool("switch")
		notes, _ := cmd.Flags().GetString("notes")

		session, err := app.Timer.StartTimer(uint(clientID))
		if err != nil && apperrors.IsConflict(err) && switchTimer {
			session, err = app.Timer.SwitchTimer(uint(clientID), notes)
		}
		if err != nil {
			if apperrors.IsConflict(err) {
				fmt.Printf("Error: %v\n", err)
				fmt.Println("Use 'fieldclock stop' first, or 'fieldclock start --switch' to switch clients.")
				return
			}
			fmt.Printf("Error: %v\n", err)
			return
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		if noUI {
			fmt.Printf("⏱️  Started tracking time for client #%d: %s\n", session.ClientID, session.Client.Name)
			fmt.Printf("Started at: %s\n", session.StartedAt.Format("15:04:05"))
		} else {
			if err := tui.RunTimerTUI(app.Timer, session.Client.Name); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		}
	}),
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop tracking time",
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		notes, _ := cmd.Flags().GetString("notes")

		session, err := app.Timer.StopTimer(notes)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		duration := time.Duration(session.DurationSeconds) * time.Second
		fmt.Printf("⏹️  Stopped tracking time for client #%d: %s\n", session.ClientID, session.Client.Name)
		fmt.Printf("Session duration: %s\n", formatDuration(duration))
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current time tracking status",
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		status := app.Timer.Status()
		if !status.Running {
			fmt.Println("No active time tracking session")
			return
		}

		client, err := app.Clients.GetClient(status.ClientID)
		name := fmt.Sprintf("#%d", status.ClientID)
		if err == nil {
			name = client.Name
		}

		elapsed := time.Duration(status.ElapsedSeconds(time.Now())) * time.Second
		fmt.Printf("⏱️  Currently tracking: %s\n", name)
		fmt.Printf("Started at: %s\n", status.StartedAt.Format("15:04:05"))
		fmt.Printf("Elapsed time: %s\n", formatDuration(elapsed))
	}),
}

func init() {
	startCmd.Flags().Bool("no-ui", false, "Start timer without interactive UI")
	startCmd.Flags().Bool("switch", false, "Stop the running timer first, then start")
	startCmd.Flags().String("notes", "", "Notes for the stopped session when switching")
	stopCmd.Flags().String("notes", "", "Notes to attach to the stopped session")
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
