package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// CustomerOutcome records how the invoice customer was resolved
type CustomerOutcome int

const (
	CustomerOutcomeFallback CustomerOutcome = 0
	CustomerOutcomeMatched  CustomerOutcome = 1
	CustomerOutcomeCreated  CustomerOutcome = 2
)

func (o CustomerOutcome) String() string {
	return [...]string{"fallback", "matched", "created"}[o]
}

func (o CustomerOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o CustomerOutcome) Value() (driver.Value, error) {
	return int64(o), nil
}

func (o *CustomerOutcome) Scan(value interface{}) error {
	if value == nil {
		*o = CustomerOutcomeFallback
		return nil
	}
	switch v := value.(type) {
	case int64:
		*o = CustomerOutcome(v)
	case int:
		*o = CustomerOutcome(v)
	}
	return nil
}
