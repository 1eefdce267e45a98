package models

import (
	"time"

	"gorm.io/gorm"
)

// ClientGeofence is a circular region around a client's site used to
// auto-start and auto-stop the timer. At most one per client.
type ClientGeofence struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClientID     uint    `gorm:"not null;uniqueIndex" json:"client_id"`
	Latitude     float64 `gorm:"not null" json:"latitude"`
	Longitude    float64 `gorm:"not null" json:"longitude"`
	RadiusMeters float64 `gorm:"not null" json:"radius_meters"`
	Active       bool    `gorm:"default:true" json:"active"`
	AutoStart    bool    `gorm:"default:false" json:"auto_start"`
	AutoStop     bool    `gorm:"default:false" json:"auto_stop"`

	// Relationships
	Client Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"client"`
}
