package models

import (
	"time"

	"gorm.io/gorm"
)

// Client represents a customer that work is billed against
type Client struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name       string  `gorm:"not null" json:"name"`
	HourlyRate float64 `gorm:"default:0" json:"hourly_rate"`
	Currency   string  `gorm:"default:EUR" json:"currency"`
	Archived   bool    `gorm:"default:false" json:"archived"`
	Notes      string  `json:"notes"`

	// Relationships
	Sessions []TimeSession `gorm:"foreignKey:ClientID" json:"sessions,omitempty"`
}
