package db

import (
	"errors"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"

	"github.com/mpetrov/fieldclock/internal/apperrors"
	"github.com/mpetrov/fieldclock/internal/models"
)

// ClientStore persists client records.
type ClientStore struct {
	db *gorm.DB
}

// NewClientStore creates a ClientStore over db.
func NewClientStore(db *gorm.DB) *ClientStore {
	return &ClientStore{db: db}
}

// CreateClientRequest holds the data needed to create a new client
type CreateClientRequest struct {
	Name       string
	HourlyRate float64
	Currency   string
	Notes      string
}

// CreateClient creates a new client record
func (s *ClientStore) CreateClient(req CreateClientRequest) (*models.Client, error) {
	if req.Name == "" {
		return nil, apperrors.Validation("client name must not be empty")
	}

	client := models.Client{
		Name:       req.Name,
		HourlyRate: req.HourlyRate,
		Currency:   req.Currency,
		Notes:      req.Notes,
	}
	if client.Currency == "" {
		client.Currency = "EUR"
	}

	if err := s.db.Create(&client).Error; err != nil {
		return nil, apperrors.TransientIO("failed to create client", eris.Wrap(err, "insert client"))
	}
	return &client, nil
}

// GetClient retrieves a client by ID
func (s *ClientStore) GetClient(id uint) (*models.Client, error) {
	var client models.Client
	if err := s.db.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("client #%d not found", id)
		}
		return nil, apperrors.TransientIO("failed to query client", eris.Wrap(err, "query client"))
	}
	return &client, nil
}

// GetClients retrieves all clients, optionally including archived ones
func (s *ClientStore) GetClients(includeArchived bool) ([]models.Client, error) {
	var clients []models.Client
	q := s.db.Order("name ASC")
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}
	if err := q.Find(&clients).Error; err != nil {
		return nil, apperrors.TransientIO("failed to query clients", eris.Wrap(err, "query clients"))
	}
	return clients, nil
}

// ArchiveClient marks a client as archived
func (s *ClientStore) ArchiveClient(id uint) error {
	res := s.db.Model(&models.Client{}).Where("id = ?", id).Update("archived", true)
	if res.Error != nil {
		return apperrors.TransientIO("failed to archive client", eris.Wrap(res.Error, "update client"))
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("client #%d not found", id)
	}
	return nil
}
