package request

// UpdatePaymentStatusRequest changes the payment status of an existing invoice
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required,oneof=paid unpaid partial"`
}
