package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// AttemptStatus is the lifecycle of a recorded invoice attempt
type AttemptStatus int

const (
	AttemptStatusPending   AttemptStatus = 0
	AttemptStatusSucceeded AttemptStatus = 1
	AttemptStatusFailed    AttemptStatus = 2
)

func (s AttemptStatus) String() string {
	return [...]string{"pending", "succeeded", "failed"}[s]
}

func (s AttemptStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s AttemptStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *AttemptStatus) Scan(value interface{}) error {
	if value == nil {
		*s = AttemptStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = AttemptStatus(v)
	case int:
		*s = AttemptStatus(v)
	}
	return nil
}
