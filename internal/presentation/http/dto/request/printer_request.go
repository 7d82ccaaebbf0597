package request

// PrintInvoiceRequest is the optional body for printing an invoice receipt.
type PrintInvoiceRequest struct {
	Cashier string `json:"cashier" binding:"omitempty,max=64"`
}
