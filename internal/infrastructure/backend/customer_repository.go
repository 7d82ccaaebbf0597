package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sangkips/billdesk-api/internal/domain/entity"
	domainRepo "github.com/sangkips/billdesk-api/internal/domain/repository"
)

type customerRepository struct {
	client *Client
}

// NewCustomerRepository creates a customer repository backed by the REST API
func NewCustomerRepository(client *Client) domainRepo.CustomerRepository {
	return &customerRepository{client: client}
}

func (r *customerRepository) List(ctx context.Context, params *domainRepo.CustomerFilterParams) ([]entity.Customer, error) {
	query := url.Values{}
	if params != nil {
		if params.Skip > 0 {
			query.Set("skip", strconv.Itoa(params.Skip))
		}
		if params.Limit > 0 {
			query.Set("limit", strconv.Itoa(params.Limit))
		}
		if params.Search != "" {
			query.Set("search", params.Search)
		}
	}

	var customers []entity.Customer
	err := r.client.do(ctx, call{op: "customers.list", method: http.MethodGet, path: "/customers/", query: query}, &customers)
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *customerRepository) Create(ctx context.Context, customer *entity.NewCustomer) (*entity.Customer, error) {
	var created entity.Customer
	err := r.client.do(ctx, call{op: "customers.create", method: http.MethodPost, path: "/customers/", body: customer}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}
