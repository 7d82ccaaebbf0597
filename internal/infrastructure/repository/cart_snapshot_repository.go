package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk-api/internal/domain/entity"
	domainRepo "github.com/sangkips/billdesk-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartSnapshotRepository struct {
	db *gorm.DB
}

// NewCartSnapshotRepository creates a new cart snapshot repository
func NewCartSnapshotRepository(db *gorm.DB) domainRepo.CartSnapshotRepository {
	return &cartSnapshotRepository{db: db}
}

// Save upserts on session_id. A write carrying an older version than the
// stored row is ignored.
func (r *cartSnapshotRepository) Save(ctx context.Context, snapshot *entity.CartSnapshot) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			Where:     clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "cart_snapshots.version < excluded.version"}}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "version", "business_id", "updated_at"}),
		}).
		Create(snapshot).Error
}

func (r *cartSnapshotRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*entity.CartSnapshot, error) {
	var snapshot entity.CartSnapshot
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&snapshot).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *cartSnapshotRepository) LatestForUser(ctx context.Context, userID string, businessID *int64) (*entity.CartSnapshot, error) {
	var snapshot entity.CartSnapshot
	err := r.db.WithContext(ctx).
		Scopes(BusinessScope(businessID)).
		Where("user_id = ?", userID).
		Where("jsonb_array_length(payload->'lines') > 0").
		Order("updated_at DESC").
		First(&snapshot).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *cartSnapshotRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&entity.CartSnapshot{}).Error
}
