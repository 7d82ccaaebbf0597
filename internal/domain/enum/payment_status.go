package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentStatus is the settlement state of an invoice. Partial only ever
// comes back from the backend; invoices are created paid or unpaid.
type PaymentStatus int

const (
	PaymentStatusUnpaid  PaymentStatus = 0
	PaymentStatusPaid    PaymentStatus = 1
	PaymentStatusPartial PaymentStatus = 2
)

var paymentStatusNames = [...]string{"unpaid", "paid", "partial"}

func (s PaymentStatus) String() string {
	if s < 0 || int(s) >= len(paymentStatusNames) {
		return "unknown"
	}
	return paymentStatusNames[s]
}

// IsCreatable reports whether a new invoice may be submitted with s
func (s PaymentStatus) IsCreatable() bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPaid
}

// ParsePaymentStatus maps the wire name to a PaymentStatus. An empty string is unpaid.
func ParsePaymentStatus(str string) (PaymentStatus, error) {
	if str == "" {
		return PaymentStatusUnpaid, nil
	}
	for i, name := range paymentStatusNames {
		if name == str {
			return PaymentStatus(i), nil
		}
	}
	return PaymentStatusUnpaid, fmt.Errorf("unknown payment status %q", str)
}

func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParsePaymentStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s PaymentStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *PaymentStatus) Scan(value interface{}) error {
	if value == nil {
		*s = PaymentStatusUnpaid
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = PaymentStatus(v)
	case int:
		*s = PaymentStatus(v)
	}
	return nil
}
