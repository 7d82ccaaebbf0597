package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk-api/internal/domain/entity"
)

// CartSnapshotRepository persists billing session carts
type CartSnapshotRepository interface {
	// Save inserts or replaces the snapshot for snapshot.SessionID
	Save(ctx context.Context, snapshot *entity.CartSnapshot) error
	// GetBySession returns (nil, nil) when no snapshot exists
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*entity.CartSnapshot, error)
	// LatestForUser returns the most recently updated non-empty snapshot of a
	// user within a business context, or (nil, nil)
	LatestForUser(ctx context.Context, userID string, businessID *int64) (*entity.CartSnapshot, error)
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) error
}
