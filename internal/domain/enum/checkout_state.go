package enum

import "encoding/json"

// CheckoutState is where a billing session is in the invoice flow
type CheckoutState int

const (
	CheckoutStateIdle CheckoutState = iota
	CheckoutStateCollectingCustomerInfo
	CheckoutStateReconciling
	CheckoutStateSubmitting
	CheckoutStateSucceeded
	CheckoutStateFailed
)

func (s CheckoutState) String() string {
	return [...]string{
		"idle",
		"collecting_customer_info",
		"reconciling",
		"submitting",
		"succeeded",
		"failed",
	}[s]
}

// InFlight reports whether an invoice attempt is running
func (s CheckoutState) InFlight() bool {
	return s == CheckoutStateReconciling || s == CheckoutStateSubmitting
}

// CanGenerate reports whether a new attempt may start from s
func (s CheckoutState) CanGenerate() bool {
	return s == CheckoutStateCollectingCustomerInfo || s == CheckoutStateFailed
}

func (s CheckoutState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
