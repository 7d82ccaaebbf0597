package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdempotencyKey is the stored response of a billing request, replayed when
// the operator retries with the same key. Keys are scoped per operator.
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key          string    `gorm:"uniqueIndex:idx_idempotency_key_user;size:255;not null"`
	UserID       string    `gorm:"uniqueIndex:idx_idempotency_key_user;size:255;not null"`
	BusinessID   *int64    `gorm:"index"`
	Endpoint     string    `gorm:"size:255;not null"` // e.g. "POST /api/v1/billing/sessions/:id/invoice"
	RequestHash  string    `gorm:"size:64"`           // sha256 of the request body
	ResponseCode int       `gorm:"not null"`
	ResponseBody string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

func (k *IdempotencyKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the stored response may no longer be replayed
func (k *IdempotencyKey) IsExpired() bool {
	return !time.Now().Before(k.ExpiresAt)
}
