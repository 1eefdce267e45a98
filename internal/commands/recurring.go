package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpetrov/fieldclock/internal/db"
)

var recurringCmd = &cobra.Command{
	Use:   "recurring",
	Short: "Manage recurring jobs",
}

var recurringAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a recurring job",
	Long: `Add a recurring job that generates sessions on a schedule.

Examples:
  fieldclock recurring add "Garden maintenance" --client 3 --freq weekly --day-of-week 2 --duration 2h
  fieldclock recurring add "Office clean" --client 5 --freq monthly --day-of-month 1 --duration 4h --auto-invoice`,
	Args: cobra.ExactArgs(1),
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		clientID, _ := cmd.Flags().GetUint("client")
		freq, _ := cmd.Flags().GetString("freq")
		dayOfWeek, _ := cmd.Flags().GetInt("day-of-week")
		dayOfMonth, _ := cmd.Flags().GetInt("day-of-month")
		durationStr, _ := cmd.Flags().GetString("duration")
		startDate, _ := cmd.Flags().GetString("start")
		endDate, _ := cmd.Flags().GetString("end")
		notes, _ := cmd.Flags().GetString("notes")
		autoInvoice, _ := cmd.Flags().GetBool("auto-invoice")

		duration, err := time.ParseDuration(durationStr)
		if err != nil {
			fmt.Printf("Error: invalid duration '%s' (try 2h or 90m)\n", durationStr)
			return
		}
		if startDate == "" {
			startDate = time.Now().Format("2006-01-02")
		}

		job, err := app.Jobs.CreateRecurringJob(db.CreateRecurringJobRequest{
			ClientID:        clientID,
			Title:           args[0],
			Frequency:       freq,
			DayOfWeek:       dayOfWeek,
			DayOfMonth:      dayOfMonth,
			DurationSeconds: int(duration.Seconds()),
			Notes:           notes,
			AutoInvoice:     autoInvoice,
			StartDate:       startDate,
			EndDate:         endDate,
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("🔁 Added recurring job #%d: %s (%s)\n", job.ID, job.Title, job.Frequency)
	}),
}

var recurringListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List recurring jobs",
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		jobs, err := app.Jobs.GetRecurringJobs(false)
		if err != nil {
			fmt.Printf("Error fetching recurring jobs: %v\n", err)
			return
		}

		if len(jobs) == 0 {
			fmt.Println("No recurring jobs found. Use 'fieldclock recurring add' to create one.")
			return
		}

		fmt.Printf("%-4s %-30s %-9s %-10s %-12s %s\n", "ID", "TITLE", "FREQ", "DURATION", "WATERMARK", "STATUS")
		fmt.Println(strings.Repeat("-", 78))
		for _, job := range jobs {
			title := job.Title
			if len(title) > 28 {
				title = title[:25] + "..."
			}
			watermark := "-"
			if job.LastGeneratedDate != nil {
				watermark = *job.LastGeneratedDate
			}
			status := "active"
			if !job.Active {
				status = "paused"
			}
			duration := time.Duration(job.DurationSeconds) * time.Second
			fmt.Printf("%-4d %-30s %-9s %-10s %-12s %s\n",
				job.ID, title, job.Frequency, formatDuration(duration), watermark, status)
		}
	}),
}

var recurringPauseCmd = &cobra.Command{
	Use:   "pause [job-id]",
	Short: "Pause a recurring job",
	Args:  cobra.ExactArgs(1),
	Run:   withApp(setRecurringActive(false)),
}

var recurringResumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume a paused recurring job",
	Args:  cobra.ExactArgs(1),
	Run:   withApp(setRecurringActive(true)),
}

func setRecurringActive(active bool) func(*App, *cobra.Command, []string) {
	return func(app *App, cmd *cobra.Command, args []string) {
		jobID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Printf("Error: invalid job ID '%s'\n", args[0])
			return
		}
		if err := app.Jobs.SetRecurringJobActive(uint(jobID), active); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if active {
			fmt.Printf("▶️  Resumed recurring job #%d\n", jobID)
		} else {
			fmt.Printf("⏸️  Paused recurring job #%d\n", jobID)
		}
	}
}

var recurringRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and process due occurrences now",
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		generated, completed, failed, err := app.Processor.ProcessRecurringJobs()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("🔁 Generated %d occurrence(s), completed %d, %d left pending\n",
			generated, completed, failed)
	}),
}

var recurringSkipCmd = &cobra.Command{
	Use:   "skip [occurrence-id]",
	Short: "Skip a pending occurrence",
	Long: `Mark a pending occurrence as skipped so no session or invoice is
created for it. Use 'fieldclock recurring occurrences' to find the ID.`,
	Args: cobra.ExactArgs(1),
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		occurrenceID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Printf("Error: invalid occurrence ID '%s'\n", args[0])
			return
		}
		if err := app.Jobs.SkipOccurrence(uint(occurrenceID)); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("⏭️  Skipped occurrence #%d\n", occurrenceID)
	}),
}

var recurringOccurrencesCmd = &cobra.Command{
	Use:   "occurrences [job-id]",
	Short: "Show the occurrence ledger for a job",
	Args:  cobra.ExactArgs(1),
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		jobID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Printf("Error: invalid job ID '%s'\n", args[0])
			return
		}

		occurrences, err := app.Jobs.GetOccurrences(uint(jobID))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if len(occurrences) == 0 {
			fmt.Println("No occurrences generated yet.")
			return
		}

		fmt.Printf("%-12s %-10s %-8s %s\n", "DATE", "STATUS", "SESSION", "INVOICE")
		fmt.Println(strings.Repeat("-", 44))
		for _, occ := range occurrences {
			session := "-"
			if occ.SessionID != nil {
				session = fmt.Sprintf("#%d", *occ.SessionID)
			}
			invoice := "-"
			if occ.InvoiceID != nil {
				invoice = fmt.Sprintf("#%d", *occ.InvoiceID)
			}
			fmt.Printf("%-12s %-10s %-8s %s\n", occ.ScheduledDate, occ.Status, session, invoice)
		}
	}),
}

func init() {
	recurringAddCmd.Flags().Uint("client", 0, "Client ID (required)")
	recurringAddCmd.Flags().String("freq", "weekly", "Frequency: weekly, biweekly or monthly")
	recurringAddCmd.Flags().Int("day-of-week", 1, "Day of week for weekly/biweekly jobs (0=Sunday)")
	recurringAddCmd.Flags().Int("day-of-month", 1, "Day of month for monthly jobs")
	recurringAddCmd.Flags().String("duration", "1h", "Duration of each generated session")
	recurringAddCmd.Flags().String("start", "", "Start date (YYYY-MM-DD, default today)")
	recurringAddCmd.Flags().String("end", "", "Optional end date (YYYY-MM-DD)")
	recurringAddCmd.Flags().String("notes", "", "Notes for generated sessions")
	recurringAddCmd.Flags().Bool("auto-invoice", false, "Create an invoice for each generated session")
	recurringAddCmd.MarkFlagRequired("client")

	recurringCmd.AddCommand(recurringAddCmd)
	recurringCmd.AddCommand(recurringListCmd)
	recurringCmd.AddCommand(recurringPauseCmd)
	recurringCmd.AddCommand(recurringResumeCmd)
	recurringCmd.AddCommand(recurringRunCmd)
	recurringCmd.AddCommand(recurringSkipCmd)
	recurringCmd.AddCommand(recurringOccurrencesCmd)
}
