package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mpetrov/fieldclock/internal/apperrors"
	"github.com/mpetrov/fieldclock/internal/models"
)

func newTestSessionStore(t *testing.T) (*gorm.DB, *SessionStore, *models.Client) {
	t.Helper()
	database, err := OpenMemory()
	require.NoError(t, err)

	client, err := NewClientStore(database).CreateClient(CreateClientRequest{Name: "Baker St Bakery", HourlyRate: 50})
	require.NoError(t, err)

	return database, NewSessionStore(database), client
}

func TestStartSessionSetsMarkerAtomically(t *testing.T) {
	_, store, client := newTestSessionStore(t)

	session, err := store.StartSession(client.ID)
	require.NoError(t, err)
	assert.True(t, session.Active)
	assert.Nil(t, session.EndedAt)
	assert.Equal(t, session.StartedAt.Format(models.DateLayout), session.Date)

	marker, err := store.GetActiveTimerMarker()
	require.NoError(t, err)
	require.NotNil(t, marker)
	assert.True(t, marker.Running)
	assert.Equal(t, client.ID, marker.ClientID)
	assert.Equal(t, session.ID, marker.SessionID)

	count, err := store.CountActiveSessions()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestStartSessionConflictsWhileRunning(t *testing.T) {
	database, store, client := newTestSessionStore(t)

	other, err := NewClientStore(database).CreateClient(CreateClientRequest{Name: "Gasworks"})
	require.NoError(t, err)

	_, err = store.StartSession(client.ID)
	require.NoError(t, err)

	_, err = store.StartSession(other.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	// The invariant held through the refused start.
	count, err := store.CountActiveSessions()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestStartSessionUnknownClient(t *testing.T) {
	_, store, _ := newTestSessionStore(t)

	_, err := store.StartSession(9999)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStopSessionComputesDurationAndClearsMarker(t *testing.T) {
	_, store, client := newTestSessionStore(t)

	started := time.Now().Add(-90 * time.Second)
	store.now = func() time.Time { return started }
	session, err := store.StartSession(client.ID)
	require.NoError(t, err)

	store.now = time.Now
	stopped, err := store.StopSession(session.ID, "swapped the boiler valve")
	require.NoError(t, err)
	assert.False(t, stopped.Active)
	require.NotNil(t, stopped.EndedAt)
	assert.InDelta(t, 90, stopped.DurationSeconds, 2)
	assert.Equal(t, "swapped the boiler valve", stopped.Notes)

	marker, err := store.GetActiveTimerMarker()
	require.NoError(t, err)
	assert.Nil(t, marker)

	count, err := store.CountActiveSessions()
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestStopSessionClampsNegativeDuration(t *testing.T) {
	_, store, client := newTestSessionStore(t)

	// Clock skew: the stored start is in the future.
	store.now = func() time.Time { return time.Now().Add(5 * time.Minute) }
	session, err := store.StartSession(client.ID)
	require.NoError(t, err)

	store.now = time.Now
	stopped, err := store.StopSession(session.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 0, stopped.DurationSeconds)
}

func TestStopSessionNotFound(t *testing.T) {
	_, store, _ := newTestSessionStore(t)

	_, err := store.StopSession(424242, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStopSessionAlreadyClosedIsIdempotent(t *testing.T) {
	_, store, client := newTestSessionStore(t)

	session, err := store.StartSession(client.ID)
	require.NoError(t, err)
	first, err := store.StopSession(session.ID, "")
	require.NoError(t, err)

	second, err := store.StopSession(session.ID, "ignored")
	require.NoError(t, err)
	assert.Equal(t, first.DurationSeconds, second.DurationSeconds)
	assert.Equal(t, first.Notes, second.Notes)
}

func TestCreateManualEntryNeverTouchesMarker(t *testing.T) {
	_, store, client := newTestSessionStore(t)

	running, err := store.StartSession(client.ID)
	require.NoError(t, err)

	entry, err := store.CreateManualEntry(client.ID, 5400, "2025-06-12", "callout")
	require.NoError(t, err)
	assert.False(t, entry.Active)
	require.NotNil(t, entry.EndedAt)
	assert.Equal(t, 5400, entry.DurationSeconds)
	assert.Equal(t, "2025-06-12", entry.Date)
	assert.InDelta(t, 5400, entry.EndedAt.Sub(entry.StartedAt).Seconds(), 1)

	// The running timer is unaffected.
	marker, err := store.GetActiveTimerMarker()
	require.NoError(t, err)
	require.NotNil(t, marker)
	assert.Equal(t, running.ID, marker.SessionID)
}

func TestCreateManualEntryValidation(t *testing.T) {
	_, store, client := newTestSessionStore(t)

	_, err := store.CreateManualEntry(client.ID, -60, "", "")
	assert.Error(t, err)

	_, err = store.CreateManualEntry(client.ID, 60, "12.06.2025", "")
	assert.Error(t, err)

	_, err = store.CreateManualEntry(77777, 60, "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestClearActiveTimerMarkerIsIdempotent(t *testing.T) {
	_, store, client := newTestSessionStore(t)

	_, err := store.StartSession(client.ID)
	require.NoError(t, err)

	require.NoError(t, store.ClearActiveTimerMarker())
	require.NoError(t, store.ClearActiveTimerMarker())

	marker, err := store.GetActiveTimerMarker()
	require.NoError(t, err)
	assert.Nil(t, marker)
}

func TestGetSessionsInRange(t *testing.T) {
	database, store, client := newTestSessionStore(t)

	other, err := NewClientStore(database).CreateClient(CreateClientRequest{Name: "Gasworks"})
	require.NoError(t, err)

	_, err = store.CreateManualEntry(client.ID, 3600, "2025-01-07", "")
	require.NoError(t, err)
	_, err = store.CreateManualEntry(client.ID, 7200, "2025-01-14", "")
	require.NoError(t, err)
	_, err = store.CreateManualEntry(client.ID, 3600, "2025-02-03", "") // outside the range
	require.NoError(t, err)
	_, err = store.CreateManualEntry(other.ID, 3600, "2025-01-07", "") // other client
	require.NoError(t, err)

	// An open session never shows up, whatever its date.
	_, err = store.StartSession(client.ID)
	require.NoError(t, err)

	sessions, err := store.GetSessionsInRange(client.ID, "2025-01-01", "2025-01-31")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "2025-01-07", sessions[0].Date)
	assert.Equal(t, "2025-01-14", sessions[1].Date)

	_, err = store.GetSessionsInRange(client.ID, "01/01/2025", "2025-01-31")
	assert.Error(t, err)
}

func TestGetActiveSessionWhenIdle(t *testing.T) {
	_, store, _ := newTestSessionStore(t)

	session, err := store.GetActiveSession()
	require.NoError(t, err)
	assert.Nil(t, session)
}
