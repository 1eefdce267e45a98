package models

import (
	"time"

	"gorm.io/gorm"
)

// Recurrence frequencies supported by the scheduler.
const (
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
)

// Occurrence statuses.
const (
	OccurrenceStatusPending   = "pending"
	OccurrenceStatusCompleted = "completed"
	OccurrenceStatusSkipped   = "skipped"
)

// RecurringJob represents a standing piece of work that generates
// sessions (and optionally invoices) on a schedule.
type RecurringJob struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClientID        uint   `gorm:"not null;index" json:"client_id"`
	Title           string `gorm:"not null" json:"title"`
	Frequency       string `gorm:"not null" json:"frequency"` // weekly, biweekly, monthly
	DayOfWeek       int    `gorm:"default:0" json:"day_of_week"`  // 0=Sunday..6=Saturday, weekly/biweekly only
	DayOfMonth      int    `gorm:"default:1" json:"day_of_month"` // monthly only
	DurationSeconds int    `gorm:"not null" json:"duration_seconds"`
	Notes           string `json:"notes"`
	AutoInvoice     bool   `gorm:"default:false" json:"auto_invoice"`
	Active          bool   `gorm:"default:true" json:"active"`

	StartDate string  `gorm:"not null" json:"start_date"` // "2006-01-02"
	EndDate   *string `json:"end_date"`

	// LastGeneratedDate is the scheduler watermark: the most recent date an
	// occurrence has been generated for. Never regresses.
	LastGeneratedDate *string `json:"last_generated_date"`

	// Relationships
	Client Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"client"`
}

// RecurringJobOccurrence is one dated instance a job was due. Rows are never
// deleted; the (job, date) unique index is the scheduler's idempotency ledger.
type RecurringJobOccurrence struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	JobID         uint   `gorm:"not null;uniqueIndex:idx_occurrence_job_date" json:"job_id"`
	ScheduledDate string `gorm:"not null;uniqueIndex:idx_occurrence_job_date" json:"scheduled_date"` // "2006-01-02"
	Status        string `gorm:"default:pending;index" json:"status"`
	SessionID     *uint  `json:"session_id"`
	InvoiceID     *uint  `json:"invoice_id"`

	// Relationships
	Job RecurringJob `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"job"`
}
