package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk-api/internal/domain/entity"
)

// InvoiceAttemptRepository records invoice generation attempts
type InvoiceAttemptRepository interface {
	Create(ctx context.Context, attempt *entity.InvoiceAttempt) error
	Update(ctx context.Context, attempt *entity.InvoiceAttempt) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]entity.InvoiceAttempt, error)
}
