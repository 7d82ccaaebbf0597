package repository

import (
	"context"

	"github.com/sangkips/billdesk-api/internal/domain/entity"
	"github.com/sangkips/billdesk-api/internal/domain/enum"
)

// InvoiceRepository creates and reads backend invoices
type InvoiceRepository interface {
	// Create submits req. businessID selects the business on the backend when set.
	Create(ctx context.Context, req *entity.InvoiceRequest, businessID *int64) (*entity.Invoice, error)
	// GetByID returns (nil, nil) when the invoice does not exist
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)
	// DownloadPDF returns the invoice document bytes
	DownloadPDF(ctx context.Context, id int64) ([]byte, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status enum.PaymentStatus) (*entity.Invoice, error)
}
