package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpetrov/fieldclock/internal/db"
	"github.com/mpetrov/fieldclock/internal/tui"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Manage clients",
}

var clientAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a client",
	Long: `Add a client. With no arguments an interactive wizard opens; pass a
name and flags for a non-interactive add.

Examples:
  fieldclock client add                      # interactive wizard
  fieldclock client add "Baker St Bakery" --rate 65 --currency GBP`,
	Args: cobra.MaximumNArgs(1),
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			if err := tui.RunClientWizard(app.Clients); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			return
		}

		rate, _ := cmd.Flags().GetFloat64("rate")
		currency, _ := cmd.Flags().GetString("currency")
		notes, _ := cmd.Flags().GetString("notes")

		client, err := app.Clients.CreateClient(db.CreateClientRequest{
			Name:       args[0],
			HourlyRate: rate,
			Currency:   currency,
			Notes:      notes,
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("✅ Added client #%d: %s (%.2f %s/h)\n",
			client.ID, client.Name, client.HourlyRate, client.Currency)
	}),
}

var clientListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List clients",
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		includeArchived, _ := cmd.Flags().GetBool("all")

		clients, err := app.Clients.GetClients(includeArchived)
		if err != nil {
			fmt.Printf("Error fetching clients: %v\n", err)
			return
		}

		if len(clients) == 0 {
			fmt.Println("No clients found. Use 'fieldclock client add' to create your first client.")
			return
		}

		fmt.Printf("%-4s %-30s %-10s %-8s %s\n", "ID", "NAME", "RATE", "CURRENCY", "STATUS")
		fmt.Println(strings.Repeat("-", 64))
		for _, client := range clients {
			name := client.Name
			if len(name) > 28 {
				name = name[:25] + "..."
			}
			status := "active"
			if client.Archived {
				status = "archived"
			}
			fmt.Printf("%-4d %-30s %-10.2f %-8s %s\n",
				client.ID, name, client.HourlyRate, client.Currency, status)
		}
	}),
}

var clientArchiveCmd = &cobra.Command{
	Use:   "archive [client-id]",
	Short: "Archive a client",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		clientID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Printf("Error: invalid client ID '%s'\n", args[0])
			return
		}
		if err := app.Clients.ArchiveClient(uint(clientID)); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("📦 Archived client #%d\n", clientID)
	}),
}

func init() {
	clientAddCmd.Flags().Float64("rate", 0, "Hourly rate")
	clientAddCmd.Flags().String("currency", "EUR", "Billing currency")
	clientAddCmd.Flags().String("notes", "", "Notes")
	clientListCmd.Flags().Bool("all", false, "Include archived clients")

	clientCmd.AddCommand(clientAddCmd)
	clientCmd.AddCommand(clientListCmd)
	clientCmd.AddCommand(clientArchiveCmd)
}
