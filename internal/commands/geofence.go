package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpetrov/fieldclock/internal/db"
	"github.com/mpetrov/fieldclock/internal/geofence"
)

var geofenceCmd = &cobra.Command{
	Use:   "geofence",
	Short: "Manage per-client geofences",
}

var geofenceSetCmd = &cobra.Command{
	Use:   "set [client-id]",
	Short: "Create or replace a client's geofence",
	Long: `Create or replace the single geofence for a client. The timer starts
automatically on arrival when --auto-start is set, and stops on leaving
when --auto-stop is set.

Example:
  fieldclock geofence set 3 --lat 51.5237 --lon -0.1585 --radius 150 --auto-start --auto-stop`,
	Args: cobra.ExactArgs(1),
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		clientID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			fmt.Printf("Error: invalid client ID '%s'\n", args[0])
			return
		}

		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		radius, _ := cmd.Flags().GetFloat64("radius")
		autoStart, _ := cmd.Flags().GetBool("auto-start")
		autoStop, _ := cmd.Flags().GetBool("auto-stop")

		fence, err := app.Fences.UpsertGeofence(db.UpsertGeofenceRequest{
			ClientID:     uint(clientID),
			Latitude:     lat,
			Longitude:    lon,
			RadiusMeters: radius,
			AutoStart:    autoStart,
			AutoStop:     autoStop,
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("📍 Geofence for client #%d: %.5f,%.5f r=%.0fm auto-start=%v auto-stop=%v\n",
			fence.ClientID, fence.Latitude, fence.Longitude, fence.RadiusMeters, fence.AutoStart, fence.AutoStop)
	}),
}

var geofenceListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List geofences",
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		fences, err := app.Fences.GetActiveGeofences()
		if err != nil {
			fmt.Printf("Error fetching geofences: %v\n", err)
			return
		}
		if len(fences) == 0 {
			fmt.Println("No geofences configured. Use 'fieldclock geofence set' to add one.")
			return
		}

		fmt.Printf("%-4s %-25s %-22s %-8s %-6s %s\n", "ID", "CLIENT", "CENTER", "RADIUS", "START", "STOP")
		fmt.Println(strings.Repeat("-", 76))
		for _, fence := range fences {
			center := fmt.Sprintf("%.5f,%.5f", fence.Latitude, fence.Longitude)
			name := fence.Client.Name
			if len(name) > 23 {
				name = name[:20] + "..."
			}
			fmt.Printf("%-4d %-25s %-22s %-8.0f %-6v %v\n",
				fence.ID, name, center, fence.RadiusMeters, fence.AutoStart, fence.AutoStop)
		}
	}),
}

var geofenceSimulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Feed a device position through the geofence trigger",
	Long: `Feed a position through the real trigger, exactly as a location update
from the OS would be. Useful for verifying auto-start/auto-stop behavior
without leaving your desk. Run it twice (inside, then outside) to see an
enter followed by an exit.`,
	Run: withApp(func(app *App, cmd *cobra.Command, args []string) {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")

		if err := app.Trigger.Evaluate(geofence.Coordinates{Latitude: lat, Longitude: lon}); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		status := app.Timer.Status()
		if status.Running {
			fmt.Printf("⏱️  Timer running for client #%d\n", status.ClientID)
		} else {
			fmt.Println("No timer running")
		}
	}),
}

func init() {
	geofenceSetCmd.Flags().Float64("lat", 0, "Latitude of the fence center")
	geofenceSetCmd.Flags().Float64("lon", 0, "Longitude of the fence center")
	geofenceSetCmd.Flags().Float64("radius", 100, "Radius in meters")
	geofenceSetCmd.Flags().Bool("auto-start", false, "Start the timer on arrival")
	geofenceSetCmd.Flags().Bool("auto-stop", false, "Stop the timer on leaving")
	geofenceSetCmd.MarkFlagRequired("lat")
	geofenceSetCmd.MarkFlagRequired("lon")

	geofenceSimulateCmd.Flags().Float64("lat", 0, "Latitude")
	geofenceSimulateCmd.Flags().Float64("lon", 0, "Longitude")
	geofenceSimulateCmd.MarkFlagRequired("lat")
	geofenceSimulateCmd.MarkFlagRequired("lon")

	geofenceCmd.AddCommand(geofenceSetCmd)
	geofenceCmd.AddCommand(geofenceListCmd)
	geofenceCmd.AddCommand(geofenceSimulateCmd)
}
