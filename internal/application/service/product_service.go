package service

import (
	"context"
	"strings"

	"github.com/sangkips/billdesk-api/internal/domain/entity"
	"github.com/sangkips/billdesk-api/internal/domain/repository"
	"github.com/sangkips/billdesk-api/pkg/apperror"
	"github.com/sangkips/billdesk-api/pkg/pagination"
)

// ProductService reads the catalog that cart lines are built from
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new product service
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// ListProductsInput represents the list products input
type ListProductsInput struct {
	Pagination *pagination.PaginationParams
	Search     string
	LowStock   bool
}

// ListProducts returns one catalog page. The backend reports no totals, so
// the pagination counts what has been seen up to this page.
func (s *ProductService) ListProducts(ctx context.Context, input *ListProductsInput) (*pagination.PaginatedResult[entity.Product], error) {
	params := input.Pagination
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	products, err := s.productRepo.List(ctx, &repository.ProductFilterParams{
		Pagination: params,
		Search:     strings.TrimSpace(input.Search),
		LowStock:   input.LowStock,
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []entity.Product{}
	}

	return pagination.NewPaginatedResult(products, pagination.NewPagination(params, len(products))), nil
}

// GetProduct fetches a single product
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}
