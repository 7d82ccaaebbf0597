package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sangkips/billdesk-api/internal/domain/entity"
	"github.com/sangkips/billdesk-api/internal/domain/enum"
	"github.com/sangkips/billdesk-api/internal/domain/repository"
	"github.com/sangkips/billdesk-api/internal/infrastructure/telemetry"
)

// DefaultCustomerLookupLimit is the backend's maximum customer page size
const DefaultCustomerLookupLimit = 1000

// CustomerResolver turns a customer draft into a customer id for an invoice
type CustomerResolver interface {
	Reconcile(ctx context.Context, draft entity.CustomerDraft) entity.ResolvedCustomer
}

// ReconciliationService matches checkout customer drafts against the
// backend's customer records, creating a record when none matches
type ReconciliationService struct {
	customerRepo repository.CustomerRepository
	lookupLimit  int
	metrics      *telemetry.BillingMetrics
	logger       zerolog.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	customerRepo repository.CustomerRepository,
	lookupLimit int,
	metrics *telemetry.BillingMetrics,
	logger zerolog.Logger,
) *ReconciliationService {
	if lookupLimit <= 0 || lookupLimit > DefaultCustomerLookupLimit {
		lookupLimit = DefaultCustomerLookupLimit
	}
	return &ReconciliationService{
		customerRepo: customerRepo,
		lookupLimit:  lookupLimit,
		metrics:      metrics,
		logger:       logger.With().Str("component", "reconciliation").Logger(),
	}
}

// Reconcile resolves draft to an existing customer (matched), a newly
// created one (created) or no customer at all (fallback). It never fails:
// any backend error degrades to fallback so invoicing can go on.
func (s *ReconciliationService) Reconcile(ctx context.Context, draft entity.CustomerDraft) entity.ResolvedCustomer {
	resolved := s.reconcile(ctx, draft.Trimmed())
	s.metrics.CustomerOutcomes.WithLabelValues(resolved.Outcome.String()).Inc()
	return resolved
}

func (s *ReconciliationService) reconcile(ctx context.Context, draft entity.CustomerDraft) entity.ResolvedCustomer {
	fallback := entity.ResolvedCustomer{Outcome: enum.CustomerOutcomeFallback}
	if draft.Name == "" {
		return fallback
	}

	// search narrows the page server-side; the exact match below still decides
	customers, err := s.customerRepo.List(ctx, &repository.CustomerFilterParams{
		Limit:  s.lookupLimit,
		Search: draft.Name,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("customer lookup failed, invoicing without customer")
		return fallback
	}

	if existing := MatchCustomer(customers, draft); existing != nil {
		id := existing.ID
		return entity.ResolvedCustomer{CustomerID: &id, Outcome: enum.CustomerOutcomeMatched}
	}

	created, err := s.customerRepo.Create(ctx, entity.NewCustomerFromDraft(draft))
	if err != nil {
		s.logger.Warn().Err(err).Msg("customer create failed, invoicing without customer")
		return fallback
	}
	if created == nil || created.ID == 0 {
		s.logger.Warn().Msg("customer create returned no id, invoicing without customer")
		return fallback
	}

	s.logger.Info().Int64("customer_id", created.ID).Msg("customer created from checkout")
	id := created.ID
	return entity.ResolvedCustomer{CustomerID: &id, Outcome: enum.CustomerOutcomeCreated}
}

// MatchCustomer returns the first customer whose normalized name, phone and
// email all equal the draft's, or nil
func MatchCustomer(customers []entity.Customer, draft entity.CustomerDraft) *entity.Customer {
	key := draft.Key()
	for i := range customers {
		if customers[i].Key() == key {
			return &customers[i]
		}
	}
	return nil
}
