package geofence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mpetrov/fieldclock/internal/db"
	"github.com/mpetrov/fieldclock/internal/models"
	"github.com/mpetrov/fieldclock/internal/timer"
)

// recordingSink captures notifications for assertions.
type recordingSink struct {
	messages []string
}

func (s *recordingSink) ShowRunningTimer(string, int) {}
func (s *recordingSink) Notify(message string)        { s.messages = append(s.messages, message) }
func (s *recordingSink) Dismiss()                     {}

func newTestTrigger(t *testing.T) (*gorm.DB, *db.SessionStore, *db.GeofenceStore, *timer.Controller, *recordingSink, *Trigger) {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)

	sessions := db.NewSessionStore(database)
	fences := db.NewGeofenceStore(database)
	controller, err := timer.NewController(sessions)
	require.NoError(t, err)

	sink := &recordingSink{}
	trigger := NewTrigger(fences, controller, sink)
	return database, sessions, fences, controller, sink, trigger
}

func createFencedClient(t *testing.T, database *gorm.DB, fences *db.GeofenceStore, name string, lat, lon float64) (*models.Client, *models.ClientGeofence) {
	t.Helper()
	client, err := db.NewClientStore(database).CreateClient(db.CreateClientRequest{Name: name, HourlyRate: 50})
	require.NoError(t, err)

	fence, err := fences.UpsertGeofence(db.UpsertGeofenceRequest{
		ClientID:     client.ID,
		Latitude:     lat,
		Longitude:    lon,
		RadiusMeters: 100,
		AutoStart:    true,
		AutoStop:     true,
	})
	require.NoError(t, err)
	return client, fence
}

func TestHaversineMeters(t *testing.T) {
	// Nelson's Column to St Paul's Cathedral, roughly 2.3 km.
	trafalgar := Coordinates{Latitude: 51.5080, Longitude: -0.1281}
	stPauls := Coordinates{Latitude: 51.5138, Longitude: -0.0984}
	assert.InDelta(t, 2160, HaversineMeters(trafalgar, stPauls), 100)

	// Symmetric and zero at identity.
	assert.Equal(t, HaversineMeters(trafalgar, stPauls), HaversineMeters(stPauls, trafalgar))
	assert.InDelta(t, 0, HaversineMeters(trafalgar, trafalgar), 0.001)

	// One degree of latitude is about 111 km anywhere.
	a := Coordinates{Latitude: 10, Longitude: 20}
	b := Coordinates{Latitude: 11, Longitude: 20}
	assert.InDelta(t, 111195, HaversineMeters(a, b), 200)
}

func TestContains(t *testing.T) {
	fence := &models.ClientGeofence{Latitude: 51.5080, Longitude: -0.1281, RadiusMeters: 100}

	assert.True(t, Contains(fence, Coordinates{Latitude: 51.5080, Longitude: -0.1281}))
	assert.True(t, Contains(fence, Coordinates{Latitude: 51.5085, Longitude: -0.1281})) // ~56 m north
	assert.False(t, Contains(fence, Coordinates{Latitude: 51.5100, Longitude: -0.1281})) // ~222 m north
}

func TestEnterAutoStartsTimer(t *testing.T) {
	database, _, fences, controller, _, trigger := newTestTrigger(t)
	client, _ := createFencedClient(t, database, fences, "Baker St Bakery", 51.5080, -0.1281)

	require.NoError(t, trigger.Evaluate(Coordinates{Latitude: 51.5080, Longitude: -0.1281}))

	status := controller.Status()
	assert.True(t, status.Running)
	assert.Equal(t, client.ID, status.ClientID)
}

func TestEnterDropsStartOnConflict(t *testing.T) {
	database, sessions, fences, controller, sink, trigger := newTestTrigger(t)
	running, _ := createFencedClient(t, database, fences, "Baker St Bakery", 51.5080, -0.1281)
	_, _ = createFencedClient(t, database, fences, "Gasworks", 52.0000, 0.0000)

	_, err := controller.StartTimer(running.ID)
	require.NoError(t, err)

	// Arriving at the other client's site must not switch the session.
	require.NoError(t, trigger.Evaluate(Coordinates{Latitude: 52.0000, Longitude: 0.0000}))

	status := controller.Status()
	assert.True(t, status.Running)
	assert.Equal(t, running.ID, status.ClientID)

	count, err := sessions.CountActiveSessions()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// The drop is surfaced passively.
	require.Len(t, sink.messages, 1)
	assert.Contains(t, sink.messages[0], "already running")
}

func TestExitAutoStopsOwningClientOnly(t *testing.T) {
	database, _, fences, controller, _, trigger := newTestTrigger(t)
	client, _ := createFencedClient(t, database, fences, "Baker St Bakery", 51.5080, -0.1281)

	// Walk in, then walk out.
	require.NoError(t, trigger.Evaluate(Coordinates{Latitude: 51.5080, Longitude: -0.1281}))
	require.True(t, controller.Status().Running)

	require.NoError(t, trigger.Evaluate(Coordinates{Latitude: 51.6000, Longitude: -0.1281}))
	assert.False(t, controller.Status().Running)

	var closed models.TimeSession
	require.NoError(t, database.Where("client_id = ?", client.ID).First(&closed).Error)
	assert.False(t, closed.Active)
}

func TestExitIgnoresOtherClientsTimer(t *testing.T) {
	database, _, fences, controller, _, trigger := newTestTrigger(t)
	_, fence := createFencedClient(t, database, fences, "Baker St Bakery", 51.5080, -0.1281)

	other, err := db.NewClientStore(database).CreateClient(db.CreateClientRequest{Name: "Gasworks"})
	require.NoError(t, err)
	session, err := controller.StartTimer(other.ID)
	require.NoError(t, err)

	// Leaving the bakery's fence must not stop the gasworks timer.
	trigger.OnExit(fence)

	status := controller.Status()
	assert.True(t, status.Running)
	assert.Equal(t, session.ID, status.SessionID)
}

func TestEnterIgnoredWithoutAutoStart(t *testing.T) {
	database, _, fences, controller, sink, trigger := newTestTrigger(t)
	client, err := db.NewClientStore(database).CreateClient(db.CreateClientRequest{Name: "Baker St Bakery"})
	require.NoError(t, err)

	fence, err := fences.UpsertGeofence(db.UpsertGeofenceRequest{
		ClientID:     client.ID,
		Latitude:     51.5080,
		Longitude:    -0.1281,
		RadiusMeters: 100,
		AutoStart:    false,
		AutoStop:     false,
	})
	require.NoError(t, err)

	trigger.OnEnter(fence)
	assert.False(t, controller.Status().Running)
	assert.Empty(t, sink.messages)
}

func TestReevaluateUsesLastKnownPosition(t *testing.T) {
	database, _, fences, controller, _, trigger := newTestTrigger(t)

	// Standing on site before the fence is configured: nothing fires.
	pos := Coordinates{Latitude: 51.5080, Longitude: -0.1281}
	require.NoError(t, trigger.Evaluate(pos))
	require.False(t, controller.Status().Running)

	// The poll after the fence is added picks the position back up.
	client, _ := createFencedClient(t, database, fences, "Baker St Bakery", 51.5080, -0.1281)
	require.NoError(t, trigger.Reevaluate())

	status := controller.Status()
	assert.True(t, status.Running)
	assert.Equal(t, client.ID, status.ClientID)
}

func TestReevaluateBeforeAnyPositionIsNoOp(t *testing.T) {
	_, _, _, controller, sink, trigger := newTestTrigger(t)

	require.NoError(t, trigger.Reevaluate())
	assert.False(t, controller.Status().Running)
	assert.Empty(t, sink.messages)
}

func TestEvaluateFiresOnlyOnTransitions(t *testing.T) {
	database, sessions, fences, controller, _, trigger := newTestTrigger(t)
	client, _ := createFencedClient(t, database, fences, "Baker St Bakery", 51.5080, -0.1281)

	inside := Coordinates{Latitude: 51.5080, Longitude: -0.1281}
	require.NoError(t, trigger.Evaluate(inside))
	first := controller.Status()
	require.True(t, first.Running)

	// Repeated positions inside the fence are not re-entries.
	require.NoError(t, trigger.Evaluate(inside))
	require.NoError(t, trigger.Evaluate(inside))

	status := controller.Status()
	assert.Equal(t, first.SessionID, status.SessionID)

	var count int64
	require.NoError(t, database.Model(&models.TimeSession{}).
		Where("client_id = ?", client.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	active, err := sessions.CountActiveSessions()
	require.NoError(t, err)
	assert.EqualValues(t, 1, active)
}
