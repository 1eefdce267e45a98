package db

import (
	"github.com/rotisserie/eris"
	"gorm.io/gorm"

	"github.com/mpetrov/fieldclock/internal/apperrors"
	"github.com/mpetrov/fieldclock/internal/models"
)

// InvoiceStore persists invoices. Invoices reference sessions by id and
// never own them.
type InvoiceStore struct {
	db *gorm.DB
}

// NewInvoiceStore creates an InvoiceStore over db.
func NewInvoiceStore(db *gorm.DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

// CreateInvoiceRequest holds the data needed to create an invoice
type CreateInvoiceRequest struct {
	ClientID    uint
	TotalHours  float64
	TotalAmount float64
	Currency    string
	SessionIDs  []uint
}

// CreateInvoice creates an invoice referencing the given sessions
func (s *InvoiceStore) CreateInvoice(req CreateInvoiceRequest) (*models.Invoice, error) {
	if len(req.SessionIDs) == 0 {
		return nil, apperrors.Validation("an invoice must reference at least one session")
	}

	invoice := models.Invoice{
		ClientID:    req.ClientID,
		TotalHours:  req.TotalHours,
		TotalAmount: req.TotalAmount,
		Currency:    req.Currency,
		SessionIDs:  req.SessionIDs,
	}
	if err := s.db.Create(&invoice).Error; err != nil {
		return nil, apperrors.TransientIO("failed to create invoice", eris.Wrap(err, "insert invoice"))
	}
	return &invoice, nil
}

// GetInvoices retrieves all invoices, newest first
func (s *InvoiceStore) GetInvoices() ([]models.Invoice, error) {
	var invoices []models.Invoice
	if err := s.db.Preload("Client").Order("created_at DESC").Find(&invoices).Error; err != nil {
		return nil, apperrors.TransientIO("failed to query invoices", eris.Wrap(err, "query invoices"))
	}
	return invoices, nil
}
