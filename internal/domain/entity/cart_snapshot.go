package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CartSnapshot is the persisted cart of a billing session
type CartSnapshot struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	SessionID  uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"session_id"`
	UserID     string         `gorm:"size:255;not null;index:idx_cart_snapshots_owner" json:"user_id"`
	BusinessID *int64         `gorm:"index:idx_cart_snapshots_owner" json:"business_id,omitempty"`
	Payload    datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	Version    int64          `gorm:"default:0" json:"version"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewCartSnapshot serializes the session's cart
func NewCartSnapshot(s *BillingSession) (*CartSnapshot, error) {
	payload, err := json.Marshal(s.Cart)
	if err != nil {
		return nil, err
	}
	return &CartSnapshot{
		SessionID:  s.ID,
		UserID:     s.UserID,
		BusinessID: s.BusinessID,
		Payload:    datatypes.JSON(payload),
		Version:    s.Version,
	}, nil
}

// Cart decodes the stored cart
func (s *CartSnapshot) Cart() (Cart, error) {
	var c Cart
	if len(s.Payload) == 0 {
		return c, nil
	}
	err := json.Unmarshal(s.Payload, &c)
	return c, err
}

// BeforeCreate generates a UUID before creating a new snapshot
func (s *CartSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the CartSnapshot model
func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
