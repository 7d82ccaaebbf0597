package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sangkips/billdesk-api/internal/domain/entity"
	domainRepo "github.com/sangkips/billdesk-api/internal/domain/repository"
)

type productRepository struct {
	client *Client
}

// NewProductRepository creates a product repository backed by the REST API
func NewProductRepository(client *Client) domainRepo.ProductRepository {
	return &productRepository{client: client}
}

func (r *productRepository) List(ctx context.Context, params *domainRepo.ProductFilterParams) ([]entity.Product, error) {
	query := url.Values{}
	if params != nil {
		if params.Pagination != nil {
			params.Pagination.Validate()
			query.Set("skip", strconv.Itoa(params.Pagination.Offset()))
			query.Set("limit", strconv.Itoa(params.Pagination.PerPage))
		}
		if params.Search != "" {
			query.Set("search", params.Search)
		}
		if params.LowStock {
			query.Set("low_stock", "true")
		}
	}

	var products []entity.Product
	err := r.client.do(ctx, call{op: "products.list", method: http.MethodGet, path: "/products/", query: query}, &products)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	var product entity.Product
	err := r.client.do(ctx, call{op: "products.get", method: http.MethodGet, path: "/products/" + strconv.FormatInt(id, 10)}, &product)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}
