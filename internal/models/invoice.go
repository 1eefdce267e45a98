package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice references sessions, it never owns them; deleting an invoice
// leaves the underlying sessions untouched.
type Invoice struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClientID    uint    `gorm:"not null;index" json:"client_id"`
	TotalHours  float64 `json:"total_hours"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`
	SessionIDs  []uint  `gorm:"serializer:json" json:"session_ids"`

	// Relationships
	Client Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"client"`
}
