package commands

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/mpetrov/fieldclock/internal/geofence"
	"github.com/mpetrov/fieldclock/internal/logging"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the background engine",
	Long: `Run the engine in the foreground: process recurring jobs on the coarse
schedule from the config (default every 15 minutes, and once immediately
on startup), and optionally follow location updates.

With --follow-location, lines of "latitude longitude" read from stdin
are fed through the geofence trigger as if they came from a location
stack, e.g.:

  gpspipe -w | jq -r '[.lat,.lon]|@tsv' | fieldclock run --follow-location`,
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		pass := func() {
			generated, completed, failed, err := app.Processor.ProcessRecurringJobs()
			if err != nil {
				logging.Logger.Error("recurring pass failed", "error", err)
				return
			}
			logging.Logger.Info("recurring pass",
				"generated", generated, "completed", completed, "pending", failed)
			surfaceRunningTimer(app)
		}

		scheduler := cron.New()
		if _, err := scheduler.AddFunc(app.Config.RecurringCron, pass); err != nil {
			fmt.Printf("Error: invalid recurring_cron %q: %v\n", app.Config.RecurringCron, err)
			return
		}

		pass() // foreground start counts as a coarse-schedule tick
		scheduler.Start()
		defer scheduler.Stop()

		followLocation, _ := cmd.Flags().GetBool("follow-location")
		if followLocation {
			go followLocations(app)
		}

		// Re-evaluate the last known position on the poll interval, so a
		// fence added or re-enabled while stationary still fires.
		poll := time.NewTicker(time.Duration(app.Config.GeofencePollSeconds) * time.Second)
		defer poll.Stop()
		go func() {
			for range poll.C {
				if err := app.Trigger.Reevaluate(); err != nil {
					logging.Logger.Error("geofence re-evaluation failed", "error", err)
				}
			}
		}()

		fmt.Printf("fieldclock engine running (recurring: %s). Ctrl+C to stop.\n", app.Config.RecurringCron)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		fmt.Println("\nShutting down.")
	}),
}

// surfaceRunningTimer keeps the notification surface in sync with the
// timer: shown with fresh elapsed time while running, dismissed when idle.
func surfaceRunningTimer(app *App) {
	status := app.Timer.Status()
	if !status.Running {
		app.Sink.Dismiss()
		return
	}
	name := fmt.Sprintf("#%d", status.ClientID)
	if client, err := app.Clients.GetClient(status.ClientID); err == nil {
		name = client.Name
	}
	app.Sink.ShowRunningTimer(name, status.ElapsedSeconds(time.Now()))
}

// followLocations reads "lat lon" lines from stdin and evaluates each
// position against the configured geofences.
func followLocations(app *App) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		lat, err1 := strconv.ParseFloat(fields[0], 64)
		lon, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if err := app.Trigger.Evaluate(geofence.Coordinates{Latitude: lat, Longitude: lon}); err != nil {
			logging.Logger.Error("geofence evaluation failed", "error", err)
		}
	}
}

func init() {
	runCmd.Flags().Bool("follow-location", false, "Read 'lat lon' lines from stdin and feed the geofence trigger")
}
