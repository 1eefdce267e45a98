package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpetrov/fieldclock/internal/db"
	"github.com/mpetrov/fieldclock/internal/logging"
	"github.com/mpetrov/fieldclock/internal/models"
)

var invoiceCmd = &cobra.Command{
	Use:     "invoice",
	Aliases: []string{"invoices"},
	Short:   "Manage invoices",
}

var invoiceListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List invoices",
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		invoices, err := app.Invoices.GetInvoices()
		if err != nil {
			fmt.Printf("Error fetching invoices: %v\n", err)
			return
		}
		if len(invoices) == 0 {
			fmt.Println("No invoices yet.")
			return
		}

		fmt.Printf("%-4s %-25s %-8s %-12s %-9s %s\n", "ID", "CLIENT", "HOURS", "AMOUNT", "CURRENCY", "SESSIONS")
		fmt.Println(strings.Repeat("-", 70))
		for _, invoice := range invoices {
			name := invoice.Client.Name
			if len(name) > 23 {
				name = name[:20] + "..."
			}
			fmt.Printf("%-4d %-25s %-8.2f %-12.2f %-9s %d\n",
				invoice.ID, name, invoice.TotalHours, invoice.TotalAmount,
				invoice.Currency, len(invoice.SessionIDs))
		}
	}),
}

var invoiceCreateCmd = &cobra.Command{
	Use:   "create [client-id]",
	Short: "Create an invoice from a client's sessions in a date range",
	Long: `Create an invoice covering all of a client's closed sessions dated
within the range. The amount is total hours times the client's rate.

Example:
  fieldclock invoice create 3 --from 2025-01-01 --to 2025-01-31`,
	Args: cobra.ExactArgs(1),
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		clientID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Printf("Error: invalid client ID '%s'\n", args[0])
			return
		}

		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		client, err := app.Clients.GetClient(uint(clientID))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		sessions, err := app.Sessions.GetSessionsInRange(client.ID, from, to)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if len(sessions) == 0 {
			fmt.Printf("No closed sessions for %s between %s and %s.\n", client.Name, from, to)
			return
		}

		totalSeconds := 0
		sessionIDs := make([]uint, 0, len(sessions))
		for _, session := range sessions {
			totalSeconds += session.DurationSeconds
			sessionIDs = append(sessionIDs, session.ID)
		}
		hours := float64(totalSeconds) / 3600

		invoice, err := app.Invoices.CreateInvoice(db.CreateInvoiceRequest{
			ClientID:    client.ID,
			TotalHours:  hours,
			TotalAmount: hours * client.HourlyRate,
			Currency:    client.Currency,
			SessionIDs:  sessionIDs,
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		logging.WithClient(client.ID).Info("invoice created",
			"invoice_id", invoice.ID, "sessions", len(sessionIDs), "amount", invoice.TotalAmount)
		fmt.Printf("🧾 Invoice #%d for %s: %.2f %s (%.2fh over %d session(s))\n",
			invoice.ID, client.Name, invoice.TotalAmount, invoice.Currency, hours, len(sessionIDs))
	}),
}

func init() {
	invoiceCreateCmd.Flags().String("from", time.Now().AddDate(0, -1, 0).Format(models.DateLayout), "Start of the date range (YYYY-MM-DD)")
	invoiceCreateCmd.Flags().String("to", time.Now().Format(models.DateLayout), "End of the date range (YYYY-MM-DD)")

	invoiceCmd.AddCommand(invoiceListCmd)
	invoiceCmd.AddCommand(invoiceCreateCmd)
}
