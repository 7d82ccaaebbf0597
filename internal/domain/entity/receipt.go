package entity

import "github.com/shopspring/decimal"

// ReceiptHeader holds the store header printed at the top of a receipt.
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	TaxID     string `json:"tax_id,omitempty"`
}

// ReceiptItem is a single printed line.
type ReceiptItem struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

// Receipt is a printable view of an invoice. It is composed at print time
// and never stored.
type Receipt struct {
	Header        ReceiptHeader   `json:"header"`
	InvoiceNo     string          `json:"invoice_no"`
	Date          string          `json:"date"`
	Cashier       string          `json:"cashier,omitempty"`
	Customer      string          `json:"customer,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	PaymentStatus string          `json:"payment_status,omitempty"`
	Items         []ReceiptItem   `json:"items"`
	SubTotal      decimal.Decimal `json:"sub_total"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
}

// NewReceipt builds the receipt for inv under header
func NewReceipt(header ReceiptHeader, inv *Invoice, cashier string) *Receipt {
	r := &Receipt{
		Header:        header,
		InvoiceNo:     inv.InvoiceNumber,
		Cashier:       cashier,
		Customer:      inv.CustomerInfo().Name,
		PaymentMethod: inv.PaymentMethod.String(),
		PaymentStatus: inv.PaymentStatus.String(),
		SubTotal:      inv.Subtotal,
		Tax:           inv.TaxAmount,
		Discount:      inv.DiscountAmount,
		Total:         inv.GrandTotal,
	}
	if !inv.CreatedAt.IsZero() {
		r.Date = inv.CreatedAt.Format("2006-01-02 15:04")
	}
	for i := range inv.Items {
		it := &inv.Items[i]
		r.Items = append(r.Items, ReceiptItem{
			Name:      it.Name(),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Tax:       it.TaxAmount,
			Total:     it.TotalAmount,
		})
	}
	return r
}
