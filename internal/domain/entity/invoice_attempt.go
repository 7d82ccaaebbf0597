package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InvoiceAttempt records one invoice generation from trigger to outcome.
// It is written as pending before submission and completed afterwards.
type InvoiceAttempt struct {
	ID              uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	SessionID       uuid.UUID            `gorm:"type:uuid;not null;index" json:"session_id"`
	UserID          string               `gorm:"size:255;not null;index" json:"user_id"`
	BusinessID      *int64               `gorm:"index" json:"business_id,omitempty"`
	Status          enum.AttemptStatus   `gorm:"default:0" json:"status"`
	CustomerOutcome enum.CustomerOutcome `gorm:"default:0" json:"customer_outcome"`
	CustomerID      *int64               `json:"customer_id,omitempty"`
	ItemCount       int                  `gorm:"default:0" json:"item_count"`
	GrandTotal      decimal.Decimal      `gorm:"type:numeric(14,2);default:0" json:"grand_total"`
	Request         datatypes.JSON       `gorm:"type:jsonb" json:"request,omitempty"`
	InvoiceID       *int64               `json:"invoice_id,omitempty"`
	InvoiceNumber   string               `gorm:"size:100" json:"invoice_number,omitempty"`
	Error           string               `gorm:"type:text" json:"error,omitempty"`
	CompletedAt     *time.Time           `json:"completed_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Succeed marks the attempt as having produced inv
func (a *InvoiceAttempt) Succeed(inv *Invoice) {
	now := time.Now()
	a.Status = enum.AttemptStatusSucceeded
	a.InvoiceID = &inv.ID
	a.InvoiceNumber = inv.InvoiceNumber
	a.CompletedAt = &now
}

// Fail marks the attempt as failed with err
func (a *InvoiceAttempt) Fail(err error) {
	now := time.Now()
	a.Status = enum.AttemptStatusFailed
	a.Error = err.Error()
	a.CompletedAt = &now
}

// BeforeCreate generates a UUID before creating a new attempt
func (a *InvoiceAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoiceAttempt model
func (InvoiceAttempt) TableName() string {
	return "invoice_attempts"
}
