package request

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// AddItemRequest adds a product to the cart
type AddItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required,min=1"`
	Quantity  int   `json:"quantity"` // defaults to 1
}

// UpdateQuantityRequest sets a line quantity; values below 1 become 1
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdatePriceRequest carries the price exactly as the operator typed it.
// Unparseable or negative input becomes 0.
type UpdatePriceRequest struct {
	Price PriceInput `json:"price"`
}

// PriceInput accepts a JSON number or a JSON string and keeps its text.
// Any other JSON value is kept as raw text and parses as 0 downstream.
type PriceInput string

func (p *PriceInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PriceInput(s)
	default:
		*p = PriceInput(data)
	}
	return nil
}

// SetDiscountRequest sets the flat cart discount
type SetDiscountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// GenerateInvoiceRequest represents the checkout form
type GenerateInvoiceRequest struct {
	CustomerName  string `json:"customer_name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	PaymentStatus string `json:"payment_status"`
	PaymentMethod string `json:"payment_method"`
}
