package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sangkips/billdesk-api/internal/domain/entity"
	"github.com/sangkips/billdesk-api/internal/domain/enum"
	"github.com/sangkips/billdesk-api/internal/domain/repository"
	"github.com/sangkips/billdesk-api/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

func newTestMetrics() *telemetry.BillingMetrics {
	return telemetry.NewBillingMetrics("test", prometheus.NewRegistry())
}

func gst(p string) *decimal.Decimal {
	d := decimal.RequireFromString(p)
	return &d
}

func testProduct(id int64, name, price string, tax *decimal.Decimal) *entity.Product {
	return &entity.Product{
		ID:            id,
		Name:          name,
		Unit:          "pcs",
		SellingPrice:  decimal.RequireFromString(price),
		GSTPercentage: tax,
	}
}

// =============================================================================
// MOCK PRODUCT REPOSITORY
// =============================================================================

type mockProductRepo struct {
	listFunc    func(ctx context.Context, params *repository.ProductFilterParams) ([]entity.Product, error)
	getByIDFunc func(ctx context.Context, id int64) (*entity.Product, error)
}

func (m *mockProductRepo) List(ctx context.Context, params *repository.ProductFilterParams) ([]entity.Product, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

// catalog serves fixed products by id
func catalog(products ...*entity.Product) *mockProductRepo {
	byID := make(map[int64]*entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockProductRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Product, error) {
			return byID[id], nil
		},
	}
}

// =============================================================================
// MOCK CUSTOMER REPOSITORY
// =============================================================================

type mockCustomerRepo struct {
	mu          sync.Mutex
	listCalls   []repository.CustomerFilterParams
	createCalls []entity.NewCustomer

	listFunc   func(ctx context.Context, params *repository.CustomerFilterParams) ([]entity.Customer, error)
	createFunc func(ctx context.Context, customer *entity.NewCustomer) (*entity.Customer, error)
}

func (m *mockCustomerRepo) List(ctx context.Context, params *repository.CustomerFilterParams) ([]entity.Customer, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, *params)
	m.mu.Unlock()
	if m.listFunc != nil {
		return m.listFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockCustomerRepo) Create(ctx context.Context, customer *entity.NewCustomer) (*entity.Customer, error) {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, *customer)
	m.mu.Unlock()
	if m.createFunc != nil {
		return m.createFunc(ctx, customer)
	}
	return nil, errors.New("not implemented")
}

// =============================================================================
// MOCK INVOICE REPOSITORY
// =============================================================================

type mockInvoiceRepo struct {
	mu       sync.Mutex
	requests []*entity.InvoiceRequest

	createFunc              func(ctx context.Context, req *entity.InvoiceRequest, businessID *int64) (*entity.Invoice, error)
	getByIDFunc             func(ctx context.Context, id int64) (*entity.Invoice, error)
	downloadPDFFunc         func(ctx context.Context, id int64) ([]byte, error)
	updatePaymentStatusFunc func(ctx context.Context, id int64, status enum.PaymentStatus) (*entity.Invoice, error)
}

func (m *mockInvoiceRepo) Create(ctx context.Context, req *entity.InvoiceRequest, businessID *int64) (*entity.Invoice, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.createFunc != nil {
		return m.createFunc(ctx, req, businessID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockInvoiceRepo) DownloadPDF(ctx context.Context, id int64) ([]byte, error) {
	if m.downloadPDFFunc != nil {
		return m.downloadPDFFunc(ctx, id)
	}
	return []byte("%PDF-1.4"), nil
}

func (m *mockInvoiceRepo) UpdatePaymentStatus(ctx context.Context, id int64, status enum.PaymentStatus) (*entity.Invoice, error) {
	if m.updatePaymentStatusFunc != nil {
		return m.updatePaymentStatusFunc(ctx, id, status)
	}
	return nil, errors.New("not implemented")
}

func (m *mockInvoiceRepo) submitted() []*entity.InvoiceRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.InvoiceRequest{}, m.requests...)
}

// =============================================================================
// IN-MEMORY REPOSITORIES
// =============================================================================

type memorySnapshotRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]entity.CartSnapshot
	saveErr error
}

func newMemorySnapshotRepo() *memorySnapshotRepo {
	return &memorySnapshotRepo{items: make(map[uuid.UUID]entity.CartSnapshot)}
}

func (r *memorySnapshotRepo) Save(ctx context.Context, snapshot *entity.CartSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if existing, ok := r.items[snapshot.SessionID]; ok && existing.Version >= snapshot.Version {
		return nil
	}
	s := *snapshot
	s.UpdatedAt = time.Now()
	r.items[s.SessionID] = s
	return nil
}

func (r *memorySnapshotRepo) GetBySession(ctx context.Context, sessionID uuid.UUID) (*entity.CartSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[sessionID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memorySnapshotRepo) LatestForUser(ctx context.Context, userID string, businessID *int64) (*entity.CartSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matches []entity.CartSnapshot
	for _, s := range r.items {
		if s.UserID != userID || !sameBusiness(s.BusinessID, businessID) {
			continue
		}
		cart, err := s.Cart()
		if err != nil || cart.IsEmpty() {
			continue
		}
		matches = append(matches, s)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].UpdatedAt.After(matches[j].UpdatedAt) })
	return &matches[0], nil
}

func (r *memorySnapshotRepo) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, sessionID)
	return nil
}

func (r *memorySnapshotRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func sameBusiness(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type memoryAttemptRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]entity.InvoiceAttempt
	order []uuid.UUID
}

func newMemoryAttemptRepo() *memoryAttemptRepo {
	return &memoryAttemptRepo{items: make(map[uuid.UUID]entity.InvoiceAttempt)}
}

func (r *memoryAttemptRepo) Create(ctx context.Context, attempt *entity.InvoiceAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	r.items[attempt.ID] = *attempt
	r.order = append(r.order, attempt.ID)
	return nil
}

func (r *memoryAttemptRepo) Update(ctx context.Context, attempt *entity.InvoiceAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[attempt.ID] = *attempt
	return nil
}

func (r *memoryAttemptRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]entity.InvoiceAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.InvoiceAttempt
	for _, id := range r.order {
		if a := r.items[id]; a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memoryArtifactStore struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newMemoryArtifactStore() *memoryArtifactStore {
	return &memoryArtifactStore{files: make(map[string][]byte)}
}

func (s *memoryArtifactStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.files[name] = data
	return "/artifacts/" + name, nil
}

func (s *memoryArtifactStore) get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

// resolverFunc adapts a function to CustomerResolver
type resolverFunc func(ctx context.Context, draft entity.CustomerDraft) entity.ResolvedCustomer

func (f resolverFunc) Reconcile(ctx context.Context, draft entity.CustomerDraft) entity.ResolvedCustomer {
	return f(ctx, draft)
}

func resolvedTo(id int64) resolverFunc {
	return func(ctx context.Context, draft entity.CustomerDraft) entity.ResolvedCustomer {
		return entity.ResolvedCustomer{CustomerID: &id, Outcome: enum.CustomerOutcomeMatched}
	}
}
