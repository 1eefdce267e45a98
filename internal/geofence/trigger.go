// Package geofence evaluates device location against per-client fences
// and turns enter/exit transitions into timer start/stop intents. It
// never touches storage directly; everything goes through the same
// timer controller the manual commands use.
package geofence

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/mpetrov/fieldclock/internal/apperrors"
	"github.com/mpetrov/fieldclock/internal/db"
	"github.com/mpetrov/fieldclock/internal/logging"
	"github.com/mpetrov/fieldclock/internal/models"
	"github.com/mpetrov/fieldclock/internal/notify"
	"github.com/mpetrov/fieldclock/internal/timer"
)

// Coordinates is a device position.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(a, b Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Contains reports whether pos falls inside the fence.
func Contains(fence *models.ClientGeofence, pos Coordinates) bool {
	center := Coordinates{Latitude: fence.Latitude, Longitude: fence.Longitude}
	return HaversineMeters(center, pos) <= fence.RadiusMeters
}

// TimerAPI is the slice of the timer controller the trigger drives.
type TimerAPI interface {
	StartTimer(clientID uint) (*models.TimeSession, error)
	StopTimer(notes string) (*models.TimeSession, error)
	Status() timer.Status
}

// EventSource delivers enter/exit callbacks from a location stack. The
// trigger implements it, so an OS integration (or a test) can feed
// transitions straight in without going through Evaluate.
type EventSource interface {
	OnEnter(fence *models.ClientGeofence)
	OnExit(fence *models.ClientGeofence)
}

// Trigger reacts to geofence transitions. Location callbacks arrive on
// OS goroutines, so the containment bookkeeping is mutex-guarded.
type Trigger struct {
	fences *db.GeofenceStore
	timer  TimerAPI
	sink   notify.Sink
	log    *slog.Logger

	mu      sync.Mutex
	inside  map[uint]bool // fence id -> last observed containment
	lastPos *Coordinates  // most recent evaluated position
}

// NewTrigger creates a Trigger.
func NewTrigger(fences *db.GeofenceStore, timerAPI TimerAPI, sink notify.Sink) *Trigger {
	return &Trigger{
		fences: fences,
		timer:  timerAPI,
		sink:   sink,
		log:    logging.Logger,
		inside: make(map[uint]bool),
	}
}

// Evaluate checks the position against every active fence and fires
// enter/exit handling for fences whose containment changed since the
// last evaluation. Used by the polling daemon and by simulation; an OS
// location stack that detects transitions itself calls OnEnter/OnExit
// directly instead.
func (t *Trigger) Evaluate(pos Coordinates) error {
	fences, err := t.fences.GetActiveGeofences()
	if err != nil {
		return err
	}

	type transition struct {
		fence   models.ClientGeofence
		entered bool
	}
	var transitions []transition

	t.mu.Lock()
	t.lastPos = &pos
	for i := range fences {
		fence := fences[i]
		now := Contains(&fence, pos)
		was := t.inside[fence.ID]
		if now != was {
			transitions = append(transitions, transition{fence: fence, entered: now})
			t.inside[fence.ID] = now
		}
	}
	t.mu.Unlock()

	for _, tr := range transitions {
		if tr.entered {
			t.OnEnter(&tr.fence)
		} else {
			t.OnExit(&tr.fence)
		}
	}
	return nil
}

// Reevaluate re-runs fence evaluation against the most recent position.
// The polling daemon calls this on its interval so fences added or
// re-enabled after the last location update still take effect. A no-op
// until a position has been seen.
func (t *Trigger) Reevaluate() error {
	t.mu.Lock()
	pos := t.lastPos
	t.mu.Unlock()
	if pos == nil {
		return nil
	}
	return t.Evaluate(*pos)
}

// OnEnter handles an enter transition. An auto-start fence starts the
// timer through the regular conflict rules: if another client's timer is
// running the start is dropped and a passive notification is surfaced.
// Location changes never switch sessions silently.
func (t *Trigger) OnEnter(fence *models.ClientGeofence) {
	if !fence.AutoStart {
		return
	}

	session, err := t.timer.StartTimer(fence.ClientID)
	if err != nil {
		if apperrors.IsConflict(err) {
			t.log.Info("geofence auto-start dropped, another timer is running",
				"client_id", fence.ClientID)
			t.sink.Notify(fmt.Sprintf(
				"Arrived at client #%d, but a timer is already running. Stop it to switch.",
				fence.ClientID))
			return
		}
		t.log.Error("geofence auto-start failed", "client_id", fence.ClientID, "error", err)
		return
	}

	logging.WithSession(session.ID).Info("geofence auto-start", "client_id", fence.ClientID)
	t.sink.Notify(fmt.Sprintf("Timer started for client #%d (arrived on site).", fence.ClientID))
}

// OnExit handles an exit transition. An auto-stop fence stops the timer
// only when the running session belongs to that fence's client.
func (t *Trigger) OnExit(fence *models.ClientGeofence) {
	if !fence.AutoStop {
		return
	}

	status := t.timer.Status()
	if !status.Running || status.ClientID != fence.ClientID {
		return
	}

	session, err := t.timer.StopTimer("")
	if err != nil {
		t.log.Error("geofence auto-stop failed", "client_id", fence.ClientID, "error", err)
		return
	}

	logging.WithSession(session.ID).Info("geofence auto-stop", "client_id", fence.ClientID)
	t.sink.Notify(fmt.Sprintf("Timer stopped for client #%d (left the site).", fence.ClientID))
}
