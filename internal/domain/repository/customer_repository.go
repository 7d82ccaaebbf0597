package repository

import (
	"context"

	"github.com/sangkips/billdesk-api/internal/domain/entity"
)

// CustomerRepository reads and creates backend customer records
type CustomerRepository interface {
	List(ctx context.Context, params *CustomerFilterParams) ([]entity.Customer, error)
	Create(ctx context.Context, customer *entity.NewCustomer) (*entity.Customer, error)
}

// CustomerFilterParams contains filtering parameters for customer queries
type CustomerFilterParams struct {
	Skip   int
	Limit  int
	Search string
}
