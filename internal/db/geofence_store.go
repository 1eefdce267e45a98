package db

import (
	"errors"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mpetrov/fieldclock/internal/apperrors"
	"github.com/mpetrov/fieldclock/internal/models"
)

// GeofenceStore persists per-client geofences. The engine only reads
// them; the settings surface writes them with upsert semantics.
type GeofenceStore struct {
	db *gorm.DB
}

// NewGeofenceStore creates a GeofenceStore over db.
func NewGeofenceStore(db *gorm.DB) *GeofenceStore {
	return &GeofenceStore{db: db}
}

// UpsertGeofenceRequest holds the data for creating or replacing a
// client's geofence.
type UpsertGeofenceRequest struct {
	ClientID     uint
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	AutoStart    bool
	AutoStop     bool
}

// UpsertGeofence creates or replaces the single geofence for a client
func (s *GeofenceStore) UpsertGeofence(req UpsertGeofenceRequest) (*models.ClientGeofence, error) {
	if req.Latitude < -90 || req.Latitude > 90 {
		return nil, apperrors.Validation("latitude out of range: %f", req.Latitude)
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		return nil, apperrors.Validation("longitude out of range: %f", req.Longitude)
	}
	if req.RadiusMeters <= 0 {
		return nil, apperrors.Validation("radius must be positive")
	}

	fence := models.ClientGeofence{
		ClientID:     req.ClientID,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
		Active:       true,
		AutoStart:    req.AutoStart,
		AutoStop:     req.AutoStop,
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"latitude", "longitude", "radius_meters", "active", "auto_start", "auto_stop", "updated_at",
		}),
	}).Create(&fence).Error
	if err != nil {
		return nil, apperrors.TransientIO("failed to upsert geofence", eris.Wrap(err, "upsert geofence"))
	}
	return &fence, nil
}

// GetGeofence retrieves the geofence for a client
func (s *GeofenceStore) GetGeofence(clientID uint) (*models.ClientGeofence, error) {
	var fence models.ClientGeofence
	if err := s.db.Where("client_id = ?", clientID).First(&fence).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("no geofence for client #%d", clientID)
		}
		return nil, apperrors.TransientIO("failed to query geofence", eris.Wrap(err, "query geofence"))
	}
	return &fence, nil
}

// GetActiveGeofences retrieves all active geofences
func (s *GeofenceStore) GetActiveGeofences() ([]models.ClientGeofence, error) {
	var fences []models.ClientGeofence
	if err := s.db.Where("active = ?", true).Preload("Client").Find(&fences).Error; err != nil {
		return nil, apperrors.TransientIO("failed to query geofences", eris.Wrap(err, "query geofences"))
	}
	return fences, nil
}

// SetGeofenceActive enables or disables a client's geofence
func (s *GeofenceStore) SetGeofenceActive(clientID uint, active bool) error {
	res := s.db.Model(&models.ClientGeofence{}).Where("client_id = ?", clientID).Update("active", active)
	if res.Error != nil {
		return apperrors.TransientIO("failed to update geofence", eris.Wrap(res.Error, "update geofence"))
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("no geofence for client #%d", clientID)
	}
	return nil
}
