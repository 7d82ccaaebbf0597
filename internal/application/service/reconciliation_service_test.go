package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sangkips/billdesk-api/internal/domain/entity"
	"github.com/sangkips/billdesk-api/internal/domain/enum"
	"github.com/sangkips/billdesk-api/internal/domain/repository"
	"github.com/sangkips/billdesk-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func existingCustomers(customers ...entity.Customer) func(ctx context.Context, params *repository.CustomerFilterParams) ([]entity.Customer, error) {
	return func(ctx context.Context, params *repository.CustomerFilterParams) ([]entity.Customer, error) {
		return customers, nil
	}
}

func TestReconciliationService_MatchesExistingCustomer(t *testing.T) {
	repo := &mockCustomerRepo{
		listFunc: existingCustomers(
			entity.Customer{ID: 4, Name: "Asha", Phone: "98450", Email: "other@example.com"},
			entity.Customer{ID: 7, Name: "Asha", Phone: "98450", Email: ""},
		),
	}
	metrics := newTestMetrics()
	svc := NewReconciliationService(repo, 0, metrics, logger.Nop())

	resolved := svc.Reconcile(context.Background(), entity.CustomerDraft{Name: "  asha ", Phone: "98450 "})

	require.NotNil(t, resolved.CustomerID)
	assert.Equal(t, int64(7), *resolved.CustomerID)
	assert.Equal(t, enum.CustomerOutcomeMatched, resolved.Outcome)
	assert.Empty(t, repo.createCalls)

	require.Len(t, repo.listCalls, 1)
	assert.Equal(t, DefaultCustomerLookupLimit, repo.listCalls[0].Limit)
	assert.Equal(t, "asha", repo.listCalls[0].Search)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CustomerOutcomes.WithLabelValues("matched")))
}

func TestReconciliationService_CreatesWhenNoMatch(t *testing.T) {
	repo := &mockCustomerRepo{
		listFunc: existingCustomers(entity.Customer{ID: 7, Name: "Asha", Phone: "11111"}),
		createFunc: func(ctx context.Context, customer *entity.NewCustomer) (*entity.Customer, error) {
			return &entity.Customer{ID: 12, Name: customer.Name, Phone: customer.Phone}, nil
		},
	}
	svc := NewReconciliationService(repo, 500, newTestMetrics(), logger.Nop())

	resolved := svc.Reconcile(context.Background(), entity.CustomerDraft{
		Name:    " Asha ",
		Phone:   "98450",
		Email:   " asha@example.com ",
		Address: " 12 MG Road ",
	})

	require.NotNil(t, resolved.CustomerID)
	assert.Equal(t, int64(12), *resolved.CustomerID)
	assert.Equal(t, enum.CustomerOutcomeCreated, resolved.Outcome)
	require.Len(t, repo.createCalls, 1)
	assert.Equal(t, entity.NewCustomer{Name: "Asha", Phone: "98450", Email: "asha@example.com", Address: "12 MG Road"}, repo.createCalls[0])
	assert.Equal(t, 500, repo.listCalls[0].Limit)
}

func TestReconciliationService_FallsBack(t *testing.T) {
	tests := []struct {
		name       string
		listErr    error
		createErr  error
		created    *entity.Customer
		wantCreate int
	}{
		{name: "lookup fails", listErr: errors.New("backend down"), wantCreate: 0},
		{name: "create fails", createErr: errors.New("422"), wantCreate: 1},
		{name: "create returns no id", created: &entity.Customer{}, wantCreate: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCustomerRepo{
				listFunc: func(ctx context.Context, params *repository.CustomerFilterParams) ([]entity.Customer, error) {
					return nil, tt.listErr
				},
				createFunc: func(ctx context.Context, customer *entity.NewCustomer) (*entity.Customer, error) {
					return tt.created, tt.createErr
				},
			}
			metrics := newTestMetrics()
			svc := NewReconciliationService(repo, 0, metrics, logger.Nop())

			resolved := svc.Reconcile(context.Background(), entity.CustomerDraft{Name: "Ravi"})

			assert.Nil(t, resolved.CustomerID)
			assert.Equal(t, enum.CustomerOutcomeFallback, resolved.Outcome)
			assert.Len(t, repo.createCalls, tt.wantCreate)
			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CustomerOutcomes.WithLabelValues("fallback")))
		})
	}
}

func TestReconciliationService_BlankNameMakesNoCalls(t *testing.T) {
	repo := &mockCustomerRepo{}
	svc := NewReconciliationService(repo, 0, newTestMetrics(), logger.Nop())

	resolved := svc.Reconcile(context.Background(), entity.CustomerDraft{Name: "   ", Phone: "98450"})

	assert.Equal(t, enum.CustomerOutcomeFallback, resolved.Outcome)
	assert.Empty(t, repo.listCalls)
	assert.Empty(t, repo.createCalls)
}

func TestMatchCustomer(t *testing.T) {
	customers := []entity.Customer{
		{ID: 1, Name: "Asha", Phone: "98450", Email: "asha@example.com"},
		{ID: 2, Name: "Ravi Kumar", Phone: "", Email: ""},
	}

	tests := []struct {
		name  string
		draft entity.CustomerDraft
		want  int64
	}{
		{"exact", entity.CustomerDraft{Name: "Asha", Phone: "98450", Email: "asha@example.com"}, 1},
		{"case and spacing", entity.CustomerDraft{Name: " ASHA", Phone: "98450 ", Email: "Asha@Example.com"}, 1},
		{"absent equals empty", entity.CustomerDraft{Name: "ravi kumar"}, 2},
		{"phone differs", entity.CustomerDraft{Name: "Asha", Phone: "11111", Email: "asha@example.com"}, 0},
		{"email missing on draft", entity.CustomerDraft{Name: "Asha", Phone: "98450"}, 0},
		{"name only prefix", entity.CustomerDraft{Name: "Ravi"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchCustomer(customers, tt.draft)
			if tt.want == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}
