package repository

import (
	"context"

	"github.com/sangkips/billdesk-api/internal/domain/entity"
)

// IdempotencyRepository stores replayable responses per operator and key
type IdempotencyRepository interface {
	// GetByKey returns nil, nil when the operator never used key
	GetByKey(ctx context.Context, key string, userID string) (*entity.IdempotencyKey, error)
	Create(ctx context.Context, record *entity.IdempotencyKey) error
	// DeleteExpired removes expired keys and reports how many were removed
	DeleteExpired(ctx context.Context) (int64, error)
}
