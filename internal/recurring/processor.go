package recurring

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mpetrov/fieldclock/internal/db"
	"github.com/mpetrov/fieldclock/internal/logging"
	"github.com/mpetrov/fieldclock/internal/models"
)

// ClientDirectory is the narrow slice of the client store the processor
// needs for auto-invoicing.
type ClientDirectory interface {
	GetClient(id uint) (*models.Client, error)
}

// InvoiceCreator is the narrow slice of the invoice store the processor
// needs for auto-invoicing.
type InvoiceCreator interface {
	CreateInvoice(req db.CreateInvoiceRequest) (*models.Invoice, error)
}

// SessionCreator materializes occurrences into closed sessions. The
// processor uses the exact same primitive as manual entry, so sessions
// created here are indistinguishable in storage from hand-entered ones.
type SessionCreator interface {
	CreateManualEntry(clientID uint, durationSeconds int, date, notes string) (*models.TimeSession, error)
}

// Processor consumes pending occurrences and materializes each into a
// session, plus an invoice when the job auto-invoices.
type Processor struct {
	jobs      *db.RecurringJobStore
	scheduler *Scheduler
	sessions  SessionCreator
	clients   ClientDirectory
	invoices  InvoiceCreator
	log       *slog.Logger
	now       func() time.Time
}

// NewProcessor creates a Processor.
func NewProcessor(jobs *db.RecurringJobStore, scheduler *Scheduler, sessions SessionCreator, clients ClientDirectory, invoices InvoiceCreator) *Processor {
	return &Processor{
		jobs:      jobs,
		scheduler: scheduler,
		sessions:  sessions,
		clients:   clients,
		invoices:  invoices,
		log:       logging.Logger,
		now:       time.Now,
	}
}

// ProcessPendingOccurrences materializes every pending occurrence due on
// or before today. Occurrences are processed in isolation: a failure is
// logged and leaves that occurrence pending for a future retry without
// aborting the batch. Returns how many completed and how many failed.
func (p *Processor) ProcessPendingOccurrences() (completed, failed int, err error) {
	today := DateOf(p.now()).String()
	occurrences, err := p.jobs.GetPendingOccurrencesDue(today)
	if err != nil {
		return 0, 0, err
	}

	for i := range occurrences {
		occ := &occurrences[i]
		if err := p.processOne(occ); err != nil {
			p.log.Error("failed to process occurrence, leaving pending",
				"occurrence_id", occ.ID,
				"job_id", occ.JobID,
				"date", occ.ScheduledDate,
				"error", err)
			failed++
			continue
		}
		completed++
	}
	return completed, failed, nil
}

func (p *Processor) processOne(occ *models.RecurringJobOccurrence) error {
	job := occ.Job

	notes := job.Title
	if job.Notes != "" {
		notes = fmt.Sprintf("%s - %s", job.Title, job.Notes)
	}

	session, err := p.sessions.CreateManualEntry(job.ClientID, job.DurationSeconds, occ.ScheduledDate, notes)
	if err != nil {
		return err
	}

	var invoiceID *uint
	if job.AutoInvoice {
		client, err := p.clients.GetClient(job.ClientID)
		if err != nil {
			return err
		}
		hours := float64(job.DurationSeconds) / 3600
		invoice, err := p.invoices.CreateInvoice(db.CreateInvoiceRequest{
			ClientID:    job.ClientID,
			TotalHours:  hours,
			TotalAmount: hours * client.HourlyRate,
			Currency:    client.Currency,
			SessionIDs:  []uint{session.ID},
		})
		if err != nil {
			return err
		}
		invoiceID = &invoice.ID
	}

	if err := p.jobs.CompleteOccurrence(occ.ID, session.ID, invoiceID); err != nil {
		return err
	}

	logging.WithJob(job.ID).Info("occurrence completed",
		"date", occ.ScheduledDate,
		"session_id", session.ID,
		"auto_invoice", job.AutoInvoice)
	return nil
}

// ProcessRecurringJobs runs a full pass: generate due occurrences, then
// materialize everything pending. Invoked on a coarse schedule, not a
// tight loop.
func (p *Processor) ProcessRecurringJobs() (generated, completed, failed int, err error) {
	generated, err = p.scheduler.GenerateOccurrences()
	if err != nil {
		return 0, 0, 0, err
	}
	completed, failed, err = p.ProcessPendingOccurrences()
	return generated, completed, failed, err
}
