package service

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/billdesk-api/internal/domain/entity"
	"github.com/sangkips/billdesk-api/internal/domain/repository"
	"github.com/sangkips/billdesk-api/internal/infrastructure/telemetry"
	"github.com/sangkips/billdesk-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// SessionEvent is published to subscribers after every session change
type SessionEvent struct {
	SessionID uuid.UUID              `json:"session_id"`
	Version   int64                  `json:"version"`
	Operation string                 `json:"operation"`
	Session   *entity.BillingSession `json:"session"`
}

const subscriberBuffer = 16

// ErrCartLocked is returned for cart edits while an invoice is being generated
var ErrCartLocked = apperror.NewConflictError("Cart cannot be changed while an invoice is being generated")

// CartService owns the billing sessions of all operators and applies cart
// updates to them
type CartService struct {
	mu          sync.Mutex
	sessions    map[uuid.UUID]*entity.BillingSession
	subscribers map[uuid.UUID]map[int]chan SessionEvent
	nextSubID   int
	// snapshot sessions whose cart is being moved into a new session
	restoring map[uuid.UUID]struct{}

	productRepo  repository.ProductRepository
	snapshotRepo repository.CartSnapshotRepository
	metrics      *telemetry.BillingMetrics
	logger       zerolog.Logger
}

// NewCartService creates a new cart service
func NewCartService(
	productRepo repository.ProductRepository,
	snapshotRepo repository.CartSnapshotRepository,
	metrics *telemetry.BillingMetrics,
	logger zerolog.Logger,
) *CartService {
	return &CartService{
		sessions:     make(map[uuid.UUID]*entity.BillingSession),
		subscribers:  make(map[uuid.UUID]map[int]chan SessionEvent),
		restoring:    make(map[uuid.UUID]struct{}),
		productRepo:  productRepo,
		snapshotRepo: snapshotRepo,
		metrics:      metrics,
		logger:       logger.With().Str("component", "cart").Logger(),
	}
}

// OpenSession creates a billing session for the operator. The operator's
// most recent non-empty cart in the same business context moves into it,
// unless that cart still belongs to a session held in memory.
func (s *CartService) OpenSession(ctx context.Context, userID string, businessID *int64) (*entity.BillingSession, error) {
	session := entity.NewBillingSession(userID, businessID)

	snapshot, err := s.snapshotRepo.LatestForUser(ctx, userID, businessID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user", userID).Msg("cart snapshot lookup failed")
	}
	var restored entity.Cart
	if snapshot != nil {
		cart, err := snapshot.Cart()
		if err != nil {
			s.logger.Warn().Err(err).Str("snapshot_session", snapshot.SessionID.String()).Msg("cart snapshot unreadable")
			snapshot = nil
		} else {
			restored = cart
		}
	}

	s.mu.Lock()
	if snapshot != nil {
		_, live := s.sessions[snapshot.SessionID]
		_, taken := s.restoring[snapshot.SessionID]
		if live || taken {
			snapshot = nil
		} else {
			s.restoring[snapshot.SessionID] = struct{}{}
			session.Cart = restored
		}
	}
	s.sessions[session.ID] = session
	out := session.Clone()
	s.mu.Unlock()
	s.metrics.SessionsOpen.Inc()

	if snapshot != nil {
		s.saveSnapshot(ctx, out)
		s.dropSnapshot(ctx, snapshot.SessionID)
		s.mu.Lock()
		delete(s.restoring, snapshot.SessionID)
		s.mu.Unlock()
	}

	s.logger.Info().
		Str("session", out.ID.String()).
		Str("user", userID).
		Int("restored_lines", out.Cart.Len()).
		Msg("billing session opened")
	return out, nil
}

// GetSession returns the operator's session. A session that is no longer in
// memory is rebuilt from its cart snapshot.
func (s *CartService) GetSession(ctx context.Context, userID string, sessionID uuid.UUID) (*entity.BillingSession, error) {
	if err := s.load(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.owned(userID, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

// CloseSession forgets the session and its cart snapshot
func (s *CartService) CloseSession(ctx context.Context, userID string, sessionID uuid.UUID) error {
	if err := s.load(ctx, userID, sessionID); err != nil {
		return err
	}

	s.mu.Lock()
	session, err := s.owned(userID, sessionID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if session.State.InFlight() {
		s.mu.Unlock()
		return ErrCartLocked
	}
	delete(s.sessions, sessionID)
	subs := s.subscribers[sessionID]
	delete(s.subscribers, sessionID)
	s.mu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
	s.metrics.SessionsOpen.Dec()
	s.dropSnapshot(ctx, sessionID)
	return nil
}

// AddItem adds quantity of a catalog product to the cart
func (s *CartService) AddItem(ctx context.Context, userID string, sessionID uuid.UUID, productID int64, quantity int) (*entity.BillingSession, error) {
	if _, err := s.GetSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	// Product lookup happens outside the session lock
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}

	return s.mutateCart(ctx, userID, sessionID, "add_item", func(c entity.Cart) entity.Cart {
		return c.AddItem(product, quantity)
	})
}

// RemoveItem drops a product from the cart
func (s *CartService) RemoveItem(ctx context.Context, userID string, sessionID uuid.UUID, productID int64) (*entity.BillingSession, error) {
	return s.mutateCart(ctx, userID, sessionID, "remove_item", func(c entity.Cart) entity.Cart {
		return c.RemoveItem(productID)
	})
}

// UpdateQuantity sets the quantity of a cart line
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, sessionID uuid.UUID, productID int64, quantity int) (*entity.BillingSession, error) {
	return s.mutateCart(ctx, userID, sessionID, "update_quantity", func(c entity.Cart) entity.Cart {
		return c.UpdateQuantity(productID, quantity)
	})
}

// UpdatePrice overrides a line's unit price from operator-typed text
func (s *CartService) UpdatePrice(ctx context.Context, userID string, sessionID uuid.UUID, productID int64, rawPrice string) (*entity.BillingSession, error) {
	price := entity.ParsePrice(rawPrice)
	return s.mutateCart(ctx, userID, sessionID, "update_price", func(c entity.Cart) entity.Cart {
		return c.UpdatePrice(productID, price)
	})
}

// SetDiscount replaces the cart's flat discount
func (s *CartService) SetDiscount(ctx context.Context, userID string, sessionID uuid.UUID, amount decimal.Decimal) (*entity.BillingSession, error) {
	return s.mutateCart(ctx, userID, sessionID, "set_discount", func(c entity.Cart) entity.Cart {
		return c.SetDiscount(amount)
	})
}

// ClearCart empties the cart
func (s *CartService) ClearCart(ctx context.Context, userID string, sessionID uuid.UUID) (*entity.BillingSession, error) {
	return s.mutateCart(ctx, userID, sessionID, "clear", func(c entity.Cart) entity.Cart {
		return c.Clear()
	})
}

// Totals returns the derived money figures of the session's cart
func (s *CartService) Totals(ctx context.Context, userID string, sessionID uuid.UUID) (entity.CartTotals, error) {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return entity.CartTotals{}, err
	}
	return session.Cart.Total(), nil
}

// TakeNotifications returns and clears the session's pending notifications
func (s *CartService) TakeNotifications(ctx context.Context, userID string, sessionID uuid.UUID) ([]entity.Notification, error) {
	if err := s.load(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.owned(userID, sessionID)
	if err != nil {
		return nil, err
	}
	out := session.Notifications
	session.Notifications = []entity.Notification{}
	return out, nil
}

// Subscribe streams changes of a session. The channel is closed when cancel
// is called or the session is closed. Slow subscribers miss events rather
// than block updates.
func (s *CartService) Subscribe(sessionID uuid.UUID) (<-chan SessionEvent, func()) {
	ch := make(chan SessionEvent, subscriberBuffer)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	if s.subscribers[sessionID] == nil {
		s.subscribers[sessionID] = make(map[int]chan SessionEvent)
	}
	s.subscribers[sessionID][id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			subs, ok := s.subscribers[sessionID]
			if ok {
				if _, live := subs[id]; live {
					delete(subs, id)
					close(ch)
				}
				if len(subs) == 0 {
					delete(s.subscribers, sessionID)
				}
			}
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

func (s *CartService) mutateCart(ctx context.Context, userID string, sessionID uuid.UUID, op string, fn func(entity.Cart) entity.Cart) (*entity.BillingSession, error) {
	session, err := s.update(ctx, userID, sessionID, op, func(session *entity.BillingSession) error {
		if session.State.InFlight() {
			return ErrCartLocked
		}
		session.Cart = fn(session.Cart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CartMutations.WithLabelValues(telemetry.BusinessLabel(session.BusinessID), op).Inc()
	return session, nil
}

// update applies fn to the owned session under the registry lock. When fn
// succeeds the version is bumped, subscribers are notified and the cart is
// snapshotted; the returned session is a copy.
func (s *CartService) update(ctx context.Context, userID string, sessionID uuid.UUID, op string, fn func(*entity.BillingSession) error) (*entity.BillingSession, error) {
	if err := s.load(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	session, err := s.owned(userID, sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := fn(session); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	session.Touch()
	out := session.Clone()
	s.publishLocked(SessionEvent{SessionID: out.ID, Version: out.Version, Operation: op, Session: out})
	s.mu.Unlock()

	s.saveSnapshot(ctx, out)
	return out, nil
}

// notify appends a notification to the session without touching the cart
func (s *CartService) notify(sessionID uuid.UUID, n entity.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	session.Notifications = append(session.Notifications, n)
	session.Touch()
	out := session.Clone()
	s.publishLocked(SessionEvent{SessionID: sessionID, Version: out.Version, Operation: "notification", Session: out})
}

// load makes sure a session known only by its snapshot is back in memory
func (s *CartService) load(ctx context.Context, userID string, sessionID uuid.UUID) error {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if ok {
		return nil
	}

	snapshot, err := s.snapshotRepo.GetBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	if snapshot == nil || snapshot.UserID != userID {
		return apperror.NewNotFoundError("Billing session")
	}
	cart, err := snapshot.Cart()
	if err != nil {
		return apperror.Wrap(err, http.StatusInternalServerError, "Stored cart could not be read")
	}

	session := entity.NewBillingSession(snapshot.UserID, snapshot.BusinessID)
	session.ID = snapshot.SessionID
	session.Cart = cart
	session.Version = snapshot.Version

	s.mu.Lock()
	if _, moving := s.restoring[sessionID]; moving {
		s.mu.Unlock()
		return apperror.NewNotFoundError("Billing session")
	}
	if _, exists := s.sessions[sessionID]; !exists {
		s.sessions[sessionID] = session
		s.metrics.SessionsOpen.Inc()
	}
	s.mu.Unlock()

	s.logger.Info().Str("session", sessionID.String()).Msg("billing session restored from snapshot")
	return nil
}

// owned must be called with s.mu held. Sessions of other operators are
// reported as missing.
func (s *CartService) owned(userID string, sessionID uuid.UUID) (*entity.BillingSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, apperror.NewNotFoundError("Billing session")
	}
	return session, nil
}

func (s *CartService) publishLocked(ev SessionEvent) {
	for _, ch := range s.subscribers[ev.SessionID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *CartService) saveSnapshot(ctx context.Context, session *entity.BillingSession) {
	snapshot, err := entity.NewCartSnapshot(session)
	if err != nil {
		s.logger.Error().Err(err).Str("session", session.ID.String()).Msg("cart snapshot encode failed")
		return
	}
	if err := s.snapshotRepo.Save(context.WithoutCancel(ctx), snapshot); err != nil {
		s.logger.Warn().Err(err).Str("session", session.ID.String()).Msg("cart snapshot write failed")
	}
}

func (s *CartService) dropSnapshot(ctx context.Context, sessionID uuid.UUID) {
	if err := s.snapshotRepo.DeleteBySession(context.WithoutCancel(ctx), sessionID); err != nil {
		s.logger.Warn().Err(err).Str("session", sessionID.String()).Msg("cart snapshot delete failed")
	}
}
