package entity

import (
	"strings"

	"github.com/sangkips/billdesk-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// Customer is a customer record owned by the backend
type Customer struct {
	ID               int64              `json:"id"`
	BusinessID       int64              `json:"business_id"`
	Name             string             `json:"customer_name"`
	Phone            string             `json:"phone"`
	Email            string             `json:"email"`
	Address          string             `json:"address"`
	City             string             `json:"city,omitempty"`
	State            string             `json:"state,omitempty"`
	TotalOutstanding decimal.Decimal    `json:"total_outstanding"`
	PaymentStatus    enum.PaymentStatus `json:"payment_status"`
}

// CustomerDraft is the customer data an operator types at checkout
type CustomerDraft struct {
	Name    string `json:"customer_name" validate:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email"` // free text, the backend does not check it
	Address string `json:"address"`
}

// Trimmed returns the draft with surrounding whitespace removed from every field
func (d CustomerDraft) Trimmed() CustomerDraft {
	return CustomerDraft{
		Name:    strings.TrimSpace(d.Name),
		Phone:   strings.TrimSpace(d.Phone),
		Email:   strings.TrimSpace(d.Email),
		Address: strings.TrimSpace(d.Address),
	}
}

// CustomerKey is the normalized identity used to match drafts against
// existing customers: name, phone and email, trimmed and lower-cased.
type CustomerKey struct {
	Name  string
	Phone string
	Email string
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Key returns the draft's match key
func (d CustomerDraft) Key() CustomerKey {
	return CustomerKey{Name: normalize(d.Name), Phone: normalize(d.Phone), Email: normalize(d.Email)}
}

// Key returns the customer's match key
func (c *Customer) Key() CustomerKey {
	return CustomerKey{Name: normalize(c.Name), Phone: normalize(c.Phone), Email: normalize(c.Email)}
}

// NewCustomer is the payload for creating a backend customer
type NewCustomer struct {
	Name    string `json:"customer_name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// NewCustomerFromDraft builds a create payload from the trimmed draft
func NewCustomerFromDraft(d CustomerDraft) *NewCustomer {
	t := d.Trimmed()
	return &NewCustomer{Name: t.Name, Phone: t.Phone, Email: t.Email, Address: t.Address}
}

// ResolvedCustomer is the result of customer reconciliation
type ResolvedCustomer struct {
	CustomerID *int64               `json:"customer_id"`
	Outcome    enum.CustomerOutcome `json:"outcome"`
}
