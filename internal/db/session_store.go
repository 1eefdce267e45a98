package db

import (
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"

	"github.com/mpetrov/fieldclock/internal/apperrors"
	"github.com/mpetrov/fieldclock/internal/models"
)

// SessionStore owns the time_sessions table and the active-timer marker.
// Every caller that opens or closes a session goes through it; nothing
// else writes those rows.
//
// Reading the marker and writing the marker/session pair is a critical
// section: background geofence events arrive outside the UI goroutine,
// so the store serializes StartSession/StopSession with a mutex and
// makes the session+marker writes a single transaction.
type SessionStore struct {
	db  *gorm.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSessionStore creates a SessionStore over db.
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

// StartSession opens a new session for a client and sets the active-timer
// marker. Fails with a conflict error if the marker already shows a
// running session.
func (s *SessionStore) StartSession(clientID uint) (*models.TimeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var client models.Client
	if err := s.db.First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("client #%d not found", clientID)
		}
		return nil, apperrors.TransientIO("failed to load client", eris.Wrap(err, "query client"))
	}

	marker, err := s.loadMarker(s.db)
	if err != nil {
		return nil, err
	}
	if marker.Running {
		return nil, apperrors.Conflict("timer already running for client #%d", marker.ClientID)
	}

	now := s.now()
	session := models.TimeSession{
		ClientID:  clientID,
		StartedAt: now,
		Date:      now.Format(models.DateLayout),
		Active:    true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		return tx.Model(&models.ActiveTimerMarker{}).
			Where("id = ?", models.ActiveTimerMarkerID).
			Updates(map[string]any{
				"client_id":  clientID,
				"session_id": session.ID,
				"started_at": now,
				"running":    true,
			}).Error
	})
	if err != nil {
		return nil, apperrors.TransientIO("failed to start session", eris.Wrap(err, "insert session and marker"))
	}

	session.Client = client
	return &session, nil
}

// StopSession closes the session, computing its duration as now minus the
// stored start time (whole seconds, floored, clamped at zero), and clears
// the active-timer marker. Stopping an already-closed session clears the
// marker and returns the session unchanged.
func (s *SessionStore) StopSession(sessionID uint, notes string) (*models.TimeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var session models.TimeSession
	if err := s.db.Preload("Client").First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("session #%d not found", sessionID)
		}
		return nil, apperrors.TransientIO("failed to load session", eris.Wrap(err, "query session"))
	}

	if !session.Active {
		if err := s.clearMarker(s.db); err != nil {
			return nil, err
		}
		return &session, nil
	}

	now := s.now()
	duration := int(now.Sub(session.StartedAt).Seconds())
	if duration < 0 {
		duration = 0 // clock skew
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"ended_at":         now,
			"duration_seconds": duration,
			"active":           false,
		}
		if notes != "" {
			updates["notes"] = notes
		}
		if err := tx.Model(&models.TimeSession{}).Where("id = ?", sessionID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Model(&models.ActiveTimerMarker{}).
			Where("id = ?", models.ActiveTimerMarkerID).
			Updates(map[string]any{
				"client_id":  0,
				"session_id": 0,
				"started_at": time.Time{},
				"running":    false,
			}).Error
	})
	if err != nil {
		return nil, apperrors.TransientIO("failed to stop session", eris.Wrap(err, "close session and clear marker"))
	}

	session.EndedAt = &now
	session.DurationSeconds = duration
	session.Active = false
	if notes != "" {
		session.Notes = notes
	}
	return &session, nil
}

// CreateManualEntry inserts an already-closed session. It never touches
// the active-timer marker, so it is safe while a timer is running. date
// may be empty, in which case the entry is dated today.
func (s *SessionStore) CreateManualEntry(clientID uint, durationSeconds int, date, notes string) (*models.TimeSession, error) {
	if durationSeconds < 0 {
		return nil, apperrors.Validation("duration must not be negative")
	}
	if date != "" {
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			return nil, apperrors.Validation("invalid date %q, want YYYY-MM-DD", date)
		}
	}

	var client models.Client
	if err := s.db.First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("client #%d not found", clientID)
		}
		return nil, apperrors.TransientIO("failed to load client", eris.Wrap(err, "query client"))
	}

	now := s.now()
	start := now.Add(-time.Duration(durationSeconds) * time.Second)
	if date == "" {
		date = start.Format(models.DateLayout)
	}

	session := models.TimeSession{
		ClientID:        clientID,
		StartedAt:       start,
		EndedAt:         &now,
		DurationSeconds: durationSeconds,
		Date:            date,
		Active:          false,
		Notes:           notes,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, apperrors.TransientIO("failed to create manual entry", eris.Wrap(err, "insert session"))
	}

	session.Client = client
	return &session, nil
}

// GetActiveSession returns the open session, or nil if none is open.
func (s *SessionStore) GetActiveSession() (*models.TimeSession, error) {
	var session models.TimeSession
	err := s.db.Where("active = ?", true).Preload("Client").First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.TransientIO("failed to query active session", eris.Wrap(err, "query active session"))
	}
	return &session, nil
}

// GetActiveTimerMarker returns the marker when it shows a running timer,
// or nil when idle.
func (s *SessionStore) GetActiveTimerMarker() (*models.ActiveTimerMarker, error) {
	marker, err := s.loadMarker(s.db)
	if err != nil {
		return nil, err
	}
	if !marker.Running {
		return nil, nil
	}
	return marker, nil
}

// ClearActiveTimerMarker resets the marker to idle. Idempotent; used as
// the repair step during startup recovery.
func (s *SessionStore) ClearActiveTimerMarker() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearMarker(s.db)
}

// CountActiveSessions reports how many sessions are currently open.
// Anything above one is an invariant violation.
func (s *SessionStore) CountActiveSessions() (int64, error) {
	var count int64
	err := s.db.Model(&models.TimeSession{}).Where("active = ?", true).Count(&count).Error
	if err != nil {
		return 0, apperrors.TransientIO("failed to count active sessions", eris.Wrap(err, "count sessions"))
	}
	return count, nil
}

// GetSessionsInRange returns a client's closed sessions dated between
// fromDate and toDate, both inclusive ("2006-01-02"). Dates compare on
// the stored calendar date, so backdated manual entries and materialized
// occurrences land in the period they were worked, not the day they were
// recorded.
func (s *SessionStore) GetSessionsInRange(clientID uint, fromDate, toDate string) ([]models.TimeSession, error) {
	if _, err := time.Parse(models.DateLayout, fromDate); err != nil {
		return nil, apperrors.Validation("invalid from date %q, want YYYY-MM-DD", fromDate)
	}
	if _, err := time.Parse(models.DateLayout, toDate); err != nil {
		return nil, apperrors.Validation("invalid to date %q, want YYYY-MM-DD", toDate)
	}

	var sessions []models.TimeSession
	err := s.db.Where("client_id = ? AND date >= ? AND date <= ? AND active = ?", clientID, fromDate, toDate, false).
		Order("date ASC, id ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, apperrors.TransientIO("failed to query sessions", eris.Wrap(err, "query range"))
	}
	return sessions, nil
}

func (s *SessionStore) loadMarker(db *gorm.DB) (*models.ActiveTimerMarker, error) {
	var marker models.ActiveTimerMarker
	if err := db.First(&marker, models.ActiveTimerMarkerID).Error; err != nil {
		return nil, apperrors.TransientIO("failed to load active-timer marker", eris.Wrap(err, "query marker"))
	}
	return &marker, nil
}

func (s *SessionStore) clearMarker(db *gorm.DB) error {
	err := db.Model(&models.ActiveTimerMarker{}).
		Where("id = ?", models.ActiveTimerMarkerID).
		Updates(map[string]any{
			"client_id":  0,
			"session_id": 0,
			"started_at": time.Time{},
			"running":    false,
		}).Error
	if err != nil {
		return apperrors.TransientIO("failed to clear active-timer marker", eris.Wrap(err, "update marker"))
	}
	return nil
}
