package models

import (
	"time"

	"gorm.io/gorm"
)

// TimeSession represents a billable block of tracked time.
// A session created by the recurring-job processor or a geofence event
// has exactly the same shape as one created by hand.
type TimeSession struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClientID        uint       `gorm:"not null;index" json:"client_id"`
	StartedAt       time.Time  `gorm:"not null" json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	DurationSeconds int        `json:"duration_seconds"`
	Date            string     `gorm:"not null;index" json:"date"` // calendar date, "2006-01-02"
	Active          bool       `gorm:"default:false;index" json:"active"`
	Notes           string     `json:"notes"`

	// Relationships
	Client Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"client"`
}

// DateLayout is the storage format for calendar dates.
const DateLayout = "2006-01-02"

// ActiveTimerMarkerID is the fixed primary key of the singleton marker row.
const ActiveTimerMarkerID uint = 1

// ActiveTimerMarker mirrors the single open TimeSession, if any.
// Invariant: Running is true iff exactly one TimeSession has Active set,
// and the two rows agree on client, session and start time.
type ActiveTimerMarker struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UpdatedAt time.Time `json:"updated_at"`

	ClientID  uint      `json:"client_id"`
	SessionID uint      `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	Running   bool      `gorm:"default:false" json:"running"`
}
