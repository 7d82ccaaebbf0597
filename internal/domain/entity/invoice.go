package entity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sangkips/billdesk-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// WalkInCustomerName is shown when an invoice has no customer data at all
const WalkInCustomerName = "Walk-in Customer"

// InvoiceItemRequest is one outbound invoice line
type InvoiceItemRequest struct {
	ProductID     int64           `json:"product_id"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
}

// WalkInCustomer is the customer data kept on an invoice that has no
// customer record
type WalkInCustomer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// InvoiceRequest is the payload submitted to create an invoice
type InvoiceRequest struct {
	Items          []InvoiceItemRequest `json:"items"`
	CustomerID     *int64               `json:"customer_id"`
	PaymentMethod  enum.PaymentMethod   `json:"payment_method"`
	PaymentStatus  enum.PaymentStatus   `json:"payment_status"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	Notes          string               `json:"notes"`
	WalkInCustomer *WalkInCustomer      `json:"walk_in_customer,omitempty"`
}

// NewInvoiceRequest assembles the request from a cart snapshot, the
// reconciliation result and the operator's payment choices. Lines map 1:1
// to items. Without a resolved customer id the draft travels as walk-in data
// and in the legacy notes text.
func NewInvoiceRequest(cart Cart, resolved ResolvedCustomer, draft CustomerDraft, status enum.PaymentStatus, method enum.PaymentMethod) *InvoiceRequest {
	lines := cart.Lines()
	items := make([]InvoiceItemRequest, 0, len(lines))
	for _, l := range lines {
		items = append(items, InvoiceItemRequest{
			ProductID:     l.ProductID,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			TaxPercentage: l.TaxPercentage,
		})
	}

	req := &InvoiceRequest{
		Items:          items,
		CustomerID:     resolved.CustomerID,
		PaymentMethod:  method,
		PaymentStatus:  status,
		DiscountAmount: cart.Discount(),
	}
	if resolved.CustomerID == nil {
		d := draft.Trimmed()
		req.WalkInCustomer = &WalkInCustomer{Name: d.Name, Phone: d.Phone, Email: d.Email, Address: d.Address}
		req.Notes = FormatWalkInNotes(d)
	}
	return req
}

// InvoiceItem is a line of a created invoice
type InvoiceItem struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Product       *Product        `json:"product,omitempty"`
}

// Name returns the product name of the line, or a placeholder
func (i *InvoiceItem) Name() string {
	if i.Product != nil && i.Product.Name != "" {
		return i.Product.Name
	}
	return fmt.Sprintf("Product #%d", i.ProductID)
}

// Invoice is an invoice as stored by the backend
type Invoice struct {
	ID             int64              `json:"id"`
	InvoiceNumber  string             `json:"invoice_number"`
	CustomerID     *int64             `json:"customer_id"`
	Customer       *Customer          `json:"customer,omitempty"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	GrandTotal     decimal.Decimal    `json:"grand_total"`
	PaymentMethod  enum.PaymentMethod `json:"payment_method"`
	PaymentStatus  enum.PaymentStatus `json:"payment_status"`
	Items          []InvoiceItem      `json:"items"`
	Notes          string             `json:"notes"`
	WalkInCustomer *WalkInCustomer    `json:"walk_in_customer,omitempty"`
	CreatedAt      Timestamp          `json:"created_at"`
}

// PDFFileName is the download name of the invoice artifact
func (inv *Invoice) PDFFileName() string {
	return "Invoice_" + inv.InvoiceNumber + ".pdf"
}

// CustomerInfo is the customer shown for an invoice
type CustomerInfo struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address"`
	IsWalkIn bool   `json:"is_walk_in"`
}

// CustomerInfo resolves who the invoice is for: the linked customer, then
// structured walk-in data, then the legacy notes text, then a placeholder.
func (inv *Invoice) CustomerInfo() CustomerInfo {
	if inv.Customer != nil && inv.Customer.ID != 0 {
		return CustomerInfo{
			Name:    inv.Customer.Name,
			Phone:   inv.Customer.Phone,
			Email:   inv.Customer.Email,
			Address: inv.Customer.Address,
		}
	}
	if w := inv.WalkInCustomer; w != nil && strings.TrimSpace(w.Name) != "" {
		return CustomerInfo{Name: w.Name, Phone: w.Phone, Email: w.Email, Address: w.Address, IsWalkIn: true}
	}
	w := ParseWalkInNotes(inv.Notes)
	return CustomerInfo{Name: w.Name, Phone: w.Phone, Address: w.Address, IsWalkIn: true}
}

// FormatWalkInNotes renders the legacy notes text for a walk-in customer
func FormatWalkInNotes(d CustomerDraft) string {
	return fmt.Sprintf("Customer: %s, Phone: %s, Address: %s", d.Name, d.Phone, d.Address)
}

var (
	notesNameRe    = regexp.MustCompile(`Customer:\s*([^,]+)`)
	notesPhoneRe   = regexp.MustCompile(`Phone:\s*([^,]+)`)
	notesAddressRe = regexp.MustCompile(`Address:\s*([^,]*)`)
)

// ParseWalkInNotes reads customer data back out of legacy notes. Each field
// runs up to the next comma. A missing name yields WalkInCustomerName.
func ParseWalkInNotes(notes string) WalkInCustomer {
	w := WalkInCustomer{Name: WalkInCustomerName}
	if notes == "" {
		return w
	}
	if m := notesNameRe.FindStringSubmatch(notes); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			w.Name = name
		}
	}
	if m := notesPhoneRe.FindStringSubmatch(notes); m != nil {
		w.Phone = strings.TrimSpace(m[1])
	}
	if m := notesAddressRe.FindStringSubmatch(notes); m != nil {
		w.Address = strings.TrimSpace(m[1])
	}
	return w
}
