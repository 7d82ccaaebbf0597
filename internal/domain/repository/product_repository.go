package repository

import (
	"context"

	"github.com/sangkips/billdesk-api/internal/domain/entity"
	"github.com/sangkips/billdesk-api/pkg/pagination"
)

// ProductRepository reads the backend product catalog
type ProductRepository interface {
	List(ctx context.Context, params *ProductFilterParams) ([]entity.Product, error)
	// GetByID returns (nil, nil) when the product does not exist
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
}

// ProductFilterParams contains filtering parameters for product queries
type ProductFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	LowStock   bool
}
