package db

import (
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"

	"github.com/mpetrov/fieldclock/internal/apperrors"
	"github.com/mpetrov/fieldclock/internal/models"
)

// RecurringJobStore persists recurring jobs and their occurrence ledger.
type RecurringJobStore struct {
	db *gorm.DB
}

// NewRecurringJobStore creates a RecurringJobStore over db.
func NewRecurringJobStore(db *gorm.DB) *RecurringJobStore {
	return &RecurringJobStore{db: db}
}

// CreateRecurringJobRequest holds the data needed to create a recurring job
type CreateRecurringJobRequest struct {
	ClientID        uint
	Title           string
	Frequency       string
	DayOfWeek       int
	DayOfMonth      int
	DurationSeconds int
	Notes           string
	AutoInvoice     bool
	StartDate       string
	EndDate         string
}

// CreateRecurringJob validates and creates a recurring job
func (s *RecurringJobStore) CreateRecurringJob(req CreateRecurringJobRequest) (*models.RecurringJob, error) {
	switch req.Frequency {
	case models.FrequencyWeekly, models.FrequencyBiweekly:
		if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
			return nil, apperrors.Validation("day of week must be 0-6, got %d", req.DayOfWeek)
		}
	case models.FrequencyMonthly:
		if req.DayOfMonth < 1 || req.DayOfMonth > 31 {
			return nil, apperrors.Validation("day of month must be 1-31, got %d", req.DayOfMonth)
		}
	default:
		return nil, apperrors.Validation("unknown frequency %q", req.Frequency)
	}
	if req.Title == "" {
		return nil, apperrors.Validation("job title must not be empty")
	}
	if req.DurationSeconds <= 0 {
		return nil, apperrors.Validation("job duration must be positive")
	}
	if _, err := time.Parse(models.DateLayout, req.StartDate); err != nil {
		return nil, apperrors.Validation("invalid start date %q, want YYYY-MM-DD", req.StartDate)
	}
	var endDate *string
	if req.EndDate != "" {
		if _, err := time.Parse(models.DateLayout, req.EndDate); err != nil {
			return nil, apperrors.Validation("invalid end date %q, want YYYY-MM-DD", req.EndDate)
		}
		endDate = &req.EndDate
	}

	job := models.RecurringJob{
		ClientID:        req.ClientID,
		Title:           req.Title,
		Frequency:       req.Frequency,
		DayOfWeek:       req.DayOfWeek,
		DayOfMonth:      req.DayOfMonth,
		DurationSeconds: req.DurationSeconds,
		Notes:           req.Notes,
		AutoInvoice:     req.AutoInvoice,
		Active:          true,
		StartDate:       req.StartDate,
		EndDate:         endDate,
	}
	if err := s.db.Create(&job).Error; err != nil {
		return nil, apperrors.TransientIO("failed to create recurring job", eris.Wrap(err, "insert job"))
	}
	return &job, nil
}

// GetRecurringJob retrieves a job by ID
func (s *RecurringJobStore) GetRecurringJob(id uint) (*models.RecurringJob, error) {
	var job models.RecurringJob
	if err := s.db.First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("recurring job #%d not found", id)
		}
		return nil, apperrors.TransientIO("failed to query recurring job", eris.Wrap(err, "query job"))
	}
	return &job, nil
}

// GetRecurringJobs retrieves jobs, optionally only active ones
func (s *RecurringJobStore) GetRecurringJobs(activeOnly bool) ([]models.RecurringJob, error) {
	var jobs []models.RecurringJob
	q := s.db.Preload("Client").Order("id ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, apperrors.TransientIO("failed to query recurring jobs", eris.Wrap(err, "query jobs"))
	}
	return jobs, nil
}

// SetRecurringJobActive pauses or resumes a job
func (s *RecurringJobStore) SetRecurringJobActive(id uint, active bool) error {
	res := s.db.Model(&models.RecurringJob{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return apperrors.TransientIO("failed to update recurring job", eris.Wrap(res.Error, "update job"))
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("recurring job #%d not found", id)
	}
	return nil
}

// AdvanceWatermark moves the job's last-generated-date forward to date.
// The watermark never regresses; an older date is a no-op.
func (s *RecurringJobStore) AdvanceWatermark(jobID uint, date string) error {
	err := s.db.Model(&models.RecurringJob{}).
		Where("id = ? AND (last_generated_date IS NULL OR last_generated_date < ?)", jobID, date).
		Update("last_generated_date", date).Error
	if err != nil {
		return apperrors.TransientIO("failed to advance watermark", eris.Wrap(err, "update watermark"))
	}
	return nil
}

// CreateOccurrence inserts one pending occurrence row. The (job, date)
// unique index backstops the scheduler: inserting an already-generated
// date fails with a conflict instead of duplicating it.
func (s *RecurringJobStore) CreateOccurrence(jobID uint, scheduledDate string) (*models.RecurringJobOccurrence, error) {
	occurrence := models.RecurringJobOccurrence{
		JobID:         jobID,
		ScheduledDate: scheduledDate,
		Status:        models.OccurrenceStatusPending,
	}
	if err := s.db.Create(&occurrence).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("occurrence already exists for job #%d on %s", jobID, scheduledDate)
		}
		return nil, apperrors.TransientIO("failed to create occurrence", eris.Wrap(err, "insert occurrence"))
	}
	return &occurrence, nil
}

// GetPendingOccurrencesDue returns pending occurrences scheduled on or
// before the given date, oldest first.
func (s *RecurringJobStore) GetPendingOccurrencesDue(date string) ([]models.RecurringJobOccurrence, error) {
	var occurrences []models.RecurringJobOccurrence
	err := s.db.Where("status = ? AND scheduled_date <= ?", models.OccurrenceStatusPending, date).
		Preload("Job").
		Order("scheduled_date ASC, id ASC").
		Find(&occurrences).Error
	if err != nil {
		return nil, apperrors.TransientIO("failed to query pending occurrences", eris.Wrap(err, "query occurrences"))
	}
	return occurrences, nil
}

// GetOccurrences returns all occurrences for a job, oldest first.
func (s *RecurringJobStore) GetOccurrences(jobID uint) ([]models.RecurringJobOccurrence, error) {
	var occurrences []models.RecurringJobOccurrence
	err := s.db.Where("job_id = ?", jobID).
		Order("scheduled_date ASC, id ASC").
		Find(&occurrences).Error
	if err != nil {
		return nil, apperrors.TransientIO("failed to query occurrences", eris.Wrap(err, "query occurrences"))
	}
	return occurrences, nil
}

// CompleteOccurrence marks an occurrence completed, recording the session
// it materialized into and, when auto-invoicing, the invoice.
func (s *RecurringJobStore) CompleteOccurrence(id, sessionID uint, invoiceID *uint) error {
	updates := map[string]any{
		"status":     models.OccurrenceStatusCompleted,
		"session_id": sessionID,
	}
	if invoiceID != nil {
		updates["invoice_id"] = *invoiceID
	}
	res := s.db.Model(&models.RecurringJobOccurrence{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return apperrors.TransientIO("failed to complete occurrence", eris.Wrap(res.Error, "update occurrence"))
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("occurrence #%d not found", id)
	}
	return nil
}

// SkipOccurrence marks a pending occurrence skipped without creating a
// session. Completed or already-skipped occurrences are left alone.
func (s *RecurringJobStore) SkipOccurrence(id uint) error {
	res := s.db.Model(&models.RecurringJobOccurrence{}).
		Where("id = ? AND status = ?", id, models.OccurrenceStatusPending).
		Update("status", models.OccurrenceStatusSkipped)
	if res.Error != nil {
		return apperrors.TransientIO("failed to skip occurrence", eris.Wrap(res.Error, "update occurrence"))
	}
	if res.RowsAffected == 0 {
		var occ models.RecurringJobOccurrence
		if err := s.db.First(&occ, id).Error; err == nil {
			return apperrors.Conflict("occurrence #%d is %s, only pending occurrences can be skipped", id, occ.Status)
		}
		return apperrors.NotFound("occurrence #%d not found", id)
	}
	return nil
}
