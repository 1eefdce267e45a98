package recurring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpetrov/fieldclock/internal/apperrors"
	"github.com/mpetrov/fieldclock/internal/db"
	"github.com/mpetrov/fieldclock/internal/models"
)

func TestProcessPendingOccurrencesMaterializesSessions(t *testing.T) {
	database, clients, jobs := newTestStores(t)
	sessions := db.NewSessionStore(database)
	invoices := db.NewInvoiceStore(database)
	client := createTestClient(t, clients, 50)

	job, err := jobs.CreateRecurringJob(db.CreateRecurringJobRequest{
		ClientID:        client.ID,
		Title:           "Garden maintenance",
		Frequency:       models.FrequencyWeekly,
		DayOfWeek:       2,
		DurationSeconds: 7200,
		StartDate:       "2025-01-01",
	})
	require.NoError(t, err)

	scheduler := NewScheduler(jobs)
	scheduler.now = fixedNow("2025-01-14")
	processor := NewProcessor(jobs, scheduler, sessions, clients, invoices)
	processor.now = fixedNow("2025-01-14")

	generated, completed, failed, err := processor.ProcessRecurringJobs()
	require.NoError(t, err)
	assert.Equal(t, 2, generated) // Jan 7 and Jan 14
	assert.Equal(t, 2, completed)
	assert.Equal(t, 0, failed)

	occurrences, err := jobs.GetOccurrences(job.ID)
	require.NoError(t, err)
	require.Len(t, occurrences, 2)
	for _, occ := range occurrences {
		assert.Equal(t, models.OccurrenceStatusCompleted, occ.Status)
		require.NotNil(t, occ.SessionID)
		assert.Nil(t, occ.InvoiceID) // no auto-invoice on this job
	}

	// The materialized session has the same shape as a manual entry:
	// closed, dated on the occurrence, duration from the job.
	var session models.TimeSession
	require.NoError(t, database.First(&session, *occurrences[0].SessionID).Error)
	assert.False(t, session.Active)
	assert.NotNil(t, session.EndedAt)
	assert.Equal(t, "2025-01-07", session.Date)
	assert.Equal(t, 7200, session.DurationSeconds)

	// The open-timer marker is untouched by materialization.
	marker, err := sessions.GetActiveTimerMarker()
	require.NoError(t, err)
	assert.Nil(t, marker)
}

func TestProcessPendingOccurrencesAutoInvoices(t *testing.T) {
	database, clients, jobs := newTestStores(t)
	sessions := db.NewSessionStore(database)
	invoiceStore := db.NewInvoiceStore(database)
	client := createTestClient(t, clients, 50) // 50 GBP/h

	_, err := jobs.CreateRecurringJob(db.CreateRecurringJobRequest{
		ClientID:        client.ID,
		Title:           "Office clean",
		Frequency:       models.FrequencyWeekly,
		DayOfWeek:       2,
		DurationSeconds: 7200, // 2h
		StartDate:       "2025-01-07",
		AutoInvoice:     true,
	})
	require.NoError(t, err)

	scheduler := NewScheduler(jobs)
	scheduler.now = fixedNow("2025-01-07")
	processor := NewProcessor(jobs, scheduler, sessions, clients, invoiceStore)
	processor.now = fixedNow("2025-01-07")

	_, completed, failed, err := processor.ProcessRecurringJobs()
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 0, failed)

	invoices, err := invoiceStore.GetInvoices()
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, client.ID, invoices[0].ClientID)
	assert.InDelta(t, 2.0, invoices[0].TotalHours, 0.001)
	assert.InDelta(t, 100.0, invoices[0].TotalAmount, 0.001) // 2h * 50
	assert.Equal(t, "GBP", invoices[0].Currency)
	assert.Len(t, invoices[0].SessionIDs, 1)
}

func TestProcessPendingOccurrencesIsolatesFailures(t *testing.T) {
	database, clients, jobs := newTestStores(t)
	sessions := db.NewSessionStore(database)
	invoices := db.NewInvoiceStore(database)

	good := createTestClient(t, clients, 50)
	doomed, err := clients.CreateClient(db.CreateClientRequest{Name: "Gone Ltd"})
	require.NoError(t, err)

	goodJob, err := jobs.CreateRecurringJob(db.CreateRecurringJobRequest{
		ClientID:        good.ID,
		Title:           "Garden maintenance",
		Frequency:       models.FrequencyWeekly,
		DayOfWeek:       2,
		DurationSeconds: 3600,
		StartDate:       "2025-01-07",
	})
	require.NoError(t, err)
	doomedJob, err := jobs.CreateRecurringJob(db.CreateRecurringJobRequest{
		ClientID:        doomed.ID,
		Title:           "Orphaned job",
		Frequency:       models.FrequencyWeekly,
		DayOfWeek:       2,
		DurationSeconds: 3600,
		StartDate:       "2025-01-07",
	})
	require.NoError(t, err)

	scheduler := NewScheduler(jobs)
	scheduler.now = fixedNow("2025-01-07")
	processor := NewProcessor(jobs, scheduler, sessions, clients, invoices)
	processor.now = fixedNow("2025-01-07")

	generated, err := scheduler.GenerateOccurrences()
	require.NoError(t, err)
	require.Equal(t, 2, generated)

	// The client disappears between generation and processing.
	require.NoError(t, database.Delete(&models.Client{}, doomed.ID).Error)

	completed, failed, err := processor.ProcessPendingOccurrences()
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, failed)

	goodOccs, err := jobs.GetOccurrences(goodJob.ID)
	require.NoError(t, err)
	require.Len(t, goodOccs, 1)
	assert.Equal(t, models.OccurrenceStatusCompleted, goodOccs[0].Status)
	assert.NotNil(t, goodOccs[0].SessionID)

	// The failed occurrence stays pending for a later retry, with no
	// session attached.
	doomedOccs, err := jobs.GetOccurrences(doomedJob.ID)
	require.NoError(t, err)
	require.Len(t, doomedOccs, 1)
	assert.Equal(t, models.OccurrenceStatusPending, doomedOccs[0].Status)
	assert.Nil(t, doomedOccs[0].SessionID)
}

func TestSkippedOccurrencesAreNotProcessed(t *testing.T) {
	database, clients, jobs := newTestStores(t)
	sessions := db.NewSessionStore(database)
	invoices := db.NewInvoiceStore(database)
	client := createTestClient(t, clients, 50)

	job, err := jobs.CreateRecurringJob(db.CreateRecurringJobRequest{
		ClientID:        client.ID,
		Title:           "Garden maintenance",
		Frequency:       models.FrequencyWeekly,
		DayOfWeek:       2,
		DurationSeconds: 3600,
		StartDate:       "2025-01-01",
	})
	require.NoError(t, err)

	scheduler := NewScheduler(jobs)
	scheduler.now = fixedNow("2025-01-14")
	processor := NewProcessor(jobs, scheduler, sessions, clients, invoices)
	processor.now = fixedNow("2025-01-14")

	generated, err := scheduler.GenerateOccurrences()
	require.NoError(t, err)
	require.Equal(t, 2, generated)

	occurrences, err := jobs.GetOccurrences(job.ID)
	require.NoError(t, err)
	require.NoError(t, jobs.SkipOccurrence(occurrences[0].ID))

	completed, failed, err := processor.ProcessPendingOccurrences()
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 0, failed)

	occurrences, err = jobs.GetOccurrences(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OccurrenceStatusSkipped, occurrences[0].Status)
	assert.Nil(t, occurrences[0].SessionID)
	assert.Equal(t, models.OccurrenceStatusCompleted, occurrences[1].Status)

	// Completed occurrences cannot be skipped after the fact.
	err = jobs.SkipOccurrence(occurrences[1].ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	// A second pass has nothing left to do; the skip is permanent.
	completed, failed, err = processor.ProcessPendingOccurrences()
	require.NoError(t, err)
	assert.Equal(t, 0, completed)
	assert.Equal(t, 0, failed)
}

func TestProcessPendingOccurrencesSkipsFutureDates(t *testing.T) {
	database, clients, jobs := newTestStores(t)
	sessions := db.NewSessionStore(database)
	invoices := db.NewInvoiceStore(database)
	client := createTestClient(t, clients, 50)

	job, err := jobs.CreateRecurringJob(db.CreateRecurringJobRequest{
		ClientID:        client.ID,
		Title:           "Garden maintenance",
		Frequency:       models.FrequencyWeekly,
		DayOfWeek:       2,
		DurationSeconds: 3600,
		StartDate:       "2025-01-07",
	})
	require.NoError(t, err)

	_, err = jobs.CreateOccurrence(job.ID, "2025-02-04") // not due yet
	require.NoError(t, err)

	scheduler := NewScheduler(jobs)
	scheduler.now = fixedNow("2025-01-07")
	processor := NewProcessor(jobs, scheduler, sessions, clients, invoices)
	processor.now = fixedNow("2025-01-07")

	completed, failed, err := processor.ProcessPendingOccurrences()
	require.NoError(t, err)
	assert.Equal(t, 0, completed)
	assert.Equal(t, 0, failed)
}
