package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk-api/internal/domain/entity"
	domainRepo "github.com/sangkips/billdesk-api/internal/domain/repository"
	"gorm.io/gorm"
)

type invoiceAttemptRepository struct {
	db *gorm.DB
}

// NewInvoiceAttemptRepository creates a new invoice attempt repository
func NewInvoiceAttemptRepository(db *gorm.DB) domainRepo.InvoiceAttemptRepository {
	return &invoiceAttemptRepository{db: db}
}

func (r *invoiceAttemptRepository) Create(ctx context.Context, attempt *entity.InvoiceAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *invoiceAttemptRepository) Update(ctx context.Context, attempt *entity.InvoiceAttempt) error {
	return r.db.WithContext(ctx).Save(attempt).Error
}

func (r *invoiceAttemptRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]entity.InvoiceAttempt, error) {
	var attempts []entity.InvoiceAttempt
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&attempts).Error
	return attempts, err
}
