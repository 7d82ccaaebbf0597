package repository

import (
	"context"

	"gorm.io/gorm"
)

type ctxKey string

const (
	// BusinessIDKey is the context key for the selected business
	BusinessIDKey ctxKey = "business_id"
)

// BusinessScope filters by business_id. A nil id matches rows stored without
// a business context, so carts of different businesses never mix.
func BusinessScope(businessID *int64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if businessID == nil {
			return db.Where("business_id IS NULL")
		}
		return db.Where("business_id = ?", *businessID)
	}
}

// WithBusiness adds the selected business ID to context
func WithBusiness(ctx context.Context, businessID int64) context.Context {
	return context.WithValue(ctx, BusinessIDKey, businessID)
}

// GetBusinessID extracts the selected business ID from context; nil when
// the operator has not selected one
func GetBusinessID(ctx context.Context) *int64 {
	id, ok := ctx.Value(BusinessIDKey).(int64)
	if !ok {
		return nil
	}
	return &id
}
