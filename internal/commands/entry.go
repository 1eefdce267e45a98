package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var entryCmd = &cobra.Command{
	Use:   "entry [client-id] [duration]",
	Short: "Add a manual time entry",
	Long: `Add an already-closed session without touching the running timer.
Duration accepts Go syntax like 90m, 1h30m or 5400s.

Examples:
  fieldclock entry 3 2h
  fieldclock entry 3 45m --date 2025-06-12 --notes "callout"`,
	Args: cobra.ExactArgs(2),
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		clientID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Printf("Error: invalid client ID '%s'\n", args[0])
			return
		}

		duration, err := time.ParseDuration(args[1])
		if err != nil {
			fmt.Printf("Error: invalid duration '%s' (try 90m or 1h30m)\n", args[1])
			return
		}

		dateStr, _ := cmd.Flags().GetString("date")
		notes, _ := cmd.Flags().GetString("notes")

		session, err := app.Sessions.CreateManualEntry(uint(clientID), int(duration.Seconds()), dateStr, notes)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("✅ Added %s for client #%d: %s on %s\n",
			formatDuration(duration), session.ClientID, session.Client.Name, session.Date)
	}),
}

func init() {
	entryCmd.Flags().String("date", "", "Calendar date for the entry (YYYY-MM-DD, default today)")
	entryCmd.Flags().String("notes", "", "Notes to attach to the entry")
}
