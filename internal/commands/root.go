package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/mpetrov/fieldclock/internal/config"
	"github.com/mpetrov/fieldclock/internal/db"
	"github.com/mpetrov/fieldclock/internal/geofence"
	"github.com/mpetrov/fieldclock/internal/logging"
	"github.com/mpetrov/fieldclock/internal/notify"
	"github.com/mpetrov/fieldclock/internal/recurring"
	"github.com/mpetrov/fieldclock/internal/timer"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "fieldclock",
	Short: "Time tracking and invoicing for freelancers",
	Long: `fieldclock tracks billable time per client, generates sessions for
recurring jobs, and can start or stop the timer automatically when you
arrive at or leave a client's site.`,
}

// App wires the engine together for one command invocation. Built once
// per process; the timer controller runs startup recovery during
// construction.
type App struct {
	Config    *config.Config
	DB        *gorm.DB
	Sessions  *db.SessionStore
	Clients   *db.ClientStore
	Invoices  *db.InvoiceStore
	Jobs      *db.RecurringJobStore
	Fences    *db.GeofenceStore
	Timer     *timer.Controller
	Trigger   *geofence.Trigger
	Scheduler *recurring.Scheduler
	Processor *recurring.Processor
	Sink      notify.Sink
}

func newApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       database,
		Sessions: db.NewSessionStore(database),
		Clients:  db.NewClientStore(database),
		Invoices: db.NewInvoiceStore(database),
		Jobs:     db.NewRecurringJobStore(database),
		Fences:   db.NewGeofenceStore(database),
		Sink:     notify.NewLogSink(),
	}

	app.Timer, err = timer.NewController(app.Sessions)
	if err != nil {
		db.Close(database)
		return nil, err
	}

	app.Trigger = geofence.NewTrigger(app.Fences, app.Timer, app.Sink)
	app.Scheduler = recurring.NewScheduler(app.Jobs)
	app.Processor = recurring.NewProcessor(app.Jobs, app.Scheduler, app.Sessions, app.Clients, app.Invoices)
	return app, nil
}

// withApp wraps a command function with app construction and teardown
func withApp(fn func(*App, *cobra.Command, []string)) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close(app.DB)
		fn(app, cmd, args)
	}
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fieldclock %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(entryCmd)
	rootCmd.AddCommand(clientCmd)
	rootCmd.AddCommand(recurringCmd)
	rootCmd.AddCommand(geofenceCmd)
	rootCmd.AddCommand(invoiceCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
