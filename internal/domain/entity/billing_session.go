package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk-api/internal/domain/enum"
)

// NotificationKind classifies a session notification
type NotificationKind string

const (
	NotificationArtifactSaved  NotificationKind = "artifact_saved"
	NotificationArtifactFailed NotificationKind = "artifact_failed"
	NotificationPrintFailed    NotificationKind = "print_failed"
)

// Notification is a non-blocking message for the operator, raised after an
// invoice was created
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	InvoiceID int64            `json:"invoice_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// BillingSession is one operator's in-progress sale and checkout state.
// It lives in memory; the cart is snapshotted to the database.
type BillingSession struct {
	ID            uuid.UUID          `json:"id"`
	UserID        string             `json:"user_id"`
	BusinessID    *int64             `json:"business_id,omitempty"`
	Cart          Cart               `json:"cart"`
	State         enum.CheckoutState `json:"state"`
	Draft         CustomerDraft      `json:"customer_draft"`
	PaymentStatus enum.PaymentStatus `json:"payment_status"`
	PaymentMethod enum.PaymentMethod `json:"payment_method"`
	LastInvoice   *Invoice           `json:"last_invoice,omitempty"`
	LastError     string             `json:"last_error,omitempty"`
	Notifications []Notification     `json:"notifications"`
	Version       int64              `json:"version"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// NewBillingSession creates an idle session with an empty cart
func NewBillingSession(userID string, businessID *int64) *BillingSession {
	now := time.Now()
	return &BillingSession{
		ID:            uuid.New(),
		UserID:        userID,
		BusinessID:    businessID,
		State:         enum.CheckoutStateIdle,
		PaymentStatus: enum.PaymentStatusUnpaid,
		PaymentMethod: enum.PaymentMethodCash,
		Notifications: []Notification{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Clone returns a copy safe to hand out of the session registry.
// LastInvoice is shared; invoices are never mutated after receipt.
func (s *BillingSession) Clone() *BillingSession {
	c := *s
	c.Notifications = append([]Notification{}, s.Notifications...)
	if s.BusinessID != nil {
		id := *s.BusinessID
		c.BusinessID = &id
	}
	return &c
}

// ResetCheckout clears the customer draft and restores payment defaults
func (s *BillingSession) ResetCheckout() {
	s.Draft = CustomerDraft{}
	s.PaymentStatus = enum.PaymentStatusUnpaid
	s.PaymentMethod = enum.PaymentMethodCash
}

// Touch bumps the version and update time
func (s *BillingSession) Touch() {
	s.Version++
	s.UpdatedAt = time.Now()
}
