// Package timer holds the state machine that decides when a billable
// session is open. It is the single authority that flips a session
// between open and closed; manual commands, the geofence trigger and the
// recurring-job processor all call into the same primitives.
package timer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mpetrov/fieldclock/internal/apperrors"
	"github.com/mpetrov/fieldclock/internal/db"
	"github.com/mpetrov/fieldclock/internal/logging"
	"github.com/mpetrov/fieldclock/internal/models"
)

// Status is a point-in-time snapshot of the controller state.
type Status struct {
	Running   bool
	ClientID  uint
	SessionID uint
	StartedAt time.Time
}

// ElapsedSeconds computes elapsed time from the stored start timestamp.
// Always recomputed from now, never an incrementing counter, so a display
// layer that pauses and resumes never drifts.
func (s Status) ElapsedSeconds(now time.Time) int {
	if !s.Running {
		return 0
	}
	elapsed := int(now.Sub(s.StartedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}

// Controller owns the running/idle timer state. Constructed once at app
// start; geofence events arrive on other goroutines, so all transitions
// are serialized through the controller mutex.
type Controller struct {
	mu       sync.Mutex
	sessions *db.SessionStore
	log      *slog.Logger
	now      func() time.Time

	running   bool
	clientID  uint
	sessionID uint
	startedAt time.Time
}

// NewController creates a Controller over the session store and runs
// startup recovery against persisted state.
func NewController(sessions *db.SessionStore) (*Controller, error) {
	c := &Controller{
		sessions: sessions,
		log:      logging.Logger,
		now:      time.Now,
	}
	if err := c.Recover(); err != nil {
		return nil, err
	}
	return c, nil
}

// Recover reconciles in-memory state with the persisted marker after a
// process restart. A marker and a matching active session resume the
// running timer without creating a new session. A marker and session
// that disagree are corrupted state: the marker is cleared, any orphaned
// open session is closed, and the controller stays idle. This is the
// only path allowed to repair the marker/session invariant silently.
func (c *Controller) Recover() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	marker, err := c.sessions.GetActiveTimerMarker()
	if err != nil {
		return err
	}
	active, err := c.sessions.GetActiveSession()
	if err != nil {
		return err
	}

	switch {
	case marker == nil && active == nil:
		c.setIdle()
		return nil

	case marker != nil && active != nil &&
		marker.SessionID == active.ID && marker.ClientID == active.ClientID:
		c.running = true
		c.clientID = active.ClientID
		c.sessionID = active.ID
		c.startedAt = active.StartedAt
		c.log.Info("resumed running timer",
			"client_id", c.clientID,
			"session_id", c.sessionID,
			"elapsed_seconds", c.statusLocked().ElapsedSeconds(c.now()))
		return nil

	default:
		c.log.Warn("marker and session disagree, repairing",
			"marker_running", marker != nil,
			"active_session", active != nil)
		if active != nil {
			if _, err := c.sessions.StopSession(active.ID, ""); err != nil {
				return err
			}
		}
		if err := c.sessions.ClearActiveTimerMarker(); err != nil {
			return err
		}
		c.setIdle()
		return nil
	}
}

// StartTimer starts tracking time for a client. If a timer is already
// running, it fails with a conflict error regardless of which client it
// belongs to; the controller never silently switches clients.
func (c *Controller) StartTimer(clientID uint) (*models.TimeSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil, apperrors.Conflict("timer already running for client #%d", c.clientID)
	}

	session, err := c.sessions.StartSession(clientID)
	if err != nil {
		return nil, err
	}

	c.running = true
	c.clientID = session.ClientID
	c.sessionID = session.ID
	c.startedAt = session.StartedAt
	c.log.Info("timer started", "client_id", clientID, "session_id", session.ID)
	return session, nil
}

// StopTimer stops the running timer. The in-memory state is cleared even
// if the storage write fails: a stop request must never leave a caller
// believing a timer is running when storage disagrees.
func (c *Controller) StopTimer(notes string) (*models.TimeSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked(notes)
}

func (c *Controller) stopLocked(notes string) (*models.TimeSession, error) {
	if !c.running {
		return nil, apperrors.NotFound("no timer is running")
	}

	sessionID := c.sessionID
	c.setIdle()

	session, err := c.sessions.StopSession(sessionID, notes)
	if err != nil {
		// Best-effort repair so the marker does not outlive the state we
		// just dropped; the next startup recovery finishes the job.
		if clearErr := c.sessions.ClearActiveTimerMarker(); clearErr != nil {
			c.log.Error("failed to clear marker after stop failure", "error", clearErr)
		}
		return nil, err
	}

	c.log.Info("timer stopped",
		"client_id", session.ClientID,
		"session_id", session.ID,
		"duration_seconds", session.DurationSeconds)
	return session, nil
}

// SwitchTimer is the explicit stop-then-start composite used when the
// user chooses to move the running timer to another client. Both steps
// are individually durable, so an interruption between them is repaired
// by the next startup recovery.
func (c *Controller) SwitchTimer(clientID uint, notes string) (*models.TimeSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		if _, err := c.stopLocked(notes); err != nil {
			return nil, err
		}
	}

	session, err := c.sessions.StartSession(clientID)
	if err != nil {
		return nil, err
	}

	c.running = true
	c.clientID = session.ClientID
	c.sessionID = session.ID
	c.startedAt = session.StartedAt
	c.log.Info("timer switched", "client_id", clientID, "session_id", session.ID)
	return session, nil
}

// Status returns a snapshot of the current timer state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() Status {
	return Status{
		Running:   c.running,
		ClientID:  c.clientID,
		SessionID: c.sessionID,
		StartedAt: c.startedAt,
	}
}

func (c *Controller) setIdle() {
	c.running = false
	c.clientID = 0
	c.sessionID = 0
	c.startedAt = time.Time{}
}
