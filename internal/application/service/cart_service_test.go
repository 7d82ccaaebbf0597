package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk-api/internal/domain/entity"
	"github.com/sangkips/billdesk-api/internal/domain/enum"
	"github.com/sangkips/billdesk-api/pkg/apperror"
	"github.com/sangkips/billdesk-api/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const operator = "asha.operator@example.com"

func newTestCartService(products *mockProductRepo, snapshots *memorySnapshotRepo) *CartService {
	return NewCartService(products, snapshots, newTestMetrics(), logger.Nop())
}

func appCode(t *testing.T, err error) int {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestCartService_AddItemBuildsLineFromProduct(t *testing.T) {
	ctx := context.Background()
	tea := testProduct(1, "Tea", "100", gst("18"))
	svc := newTestCartService(catalog(tea), newMemorySnapshotRepo())

	session, err := svc.OpenSession(ctx, operator, nil)
	require.NoError(t, err)

	session, err = svc.AddItem(ctx, operator, session.ID, 1, 2)
	require.NoError(t, err)
	session, err = svc.AddItem(ctx, operator, session.ID, 1, 1)
	require.NoError(t, err)

	require.Equal(t, 1, session.Cart.Len())
	line, ok := session.Cart.Line(1)
	require.True(t, ok)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, "Tea", line.ProductName)
	assert.True(t, line.TaxPercentage.Equal(decimal.NewFromInt(18)))
	assert.Equal(t, int64(2), session.Version)
}

func TestCartService_AddItemUnknownProduct(t *testing.T) {
	ctx := context.Background()
	svc := newTestCartService(catalog(), newMemorySnapshotRepo())
	session, err := svc.OpenSession(ctx, operator, nil)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, operator, session.ID, 42, 1)
	assert.Equal(t, http.StatusNotFound, appCode(t, err))
}

func TestCartService_AddItemBackendError(t *testing.T) {
	ctx := context.Background()
	backendErr := apperror.NewBadGatewayError("Backend is unreachable", errors.New("dial tcp"))
	products := &mockProductRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.Product, error) {
			return nil, backendErr
		},
	}
	svc := newTestCartService(products, newMemorySnapshotRepo())
	session, err := svc.OpenSession(ctx, operator, nil)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, operator, session.ID, 1, 1)
	assert.ErrorIs(t, err, backendErr)

	current, err := svc.GetSession(ctx, operator, session.ID)
	require.NoError(t, err)
	assert.True(t, current.Cart.IsEmpty())
}

func TestCartService_EditsAndTotals(t *testing.T) {
	ctx := context.Background()
	svc := newTestCartService(catalog(
		testProduct(1, "Tea", "100", gst("18")),
		testProduct(2, "Sugar", "50", nil),
	), newMemorySnapshotRepo())

	session, err := svc.OpenSession(ctx, operator, nil)
	require.NoError(t, err)
	id := session.ID

	_, err = svc.AddItem(ctx, operator, id, 1, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, operator, id, 2, 1)
	require.NoError(t, err)
	_, err = svc.SetDiscount(ctx, operator, id, decimal.NewFromInt(20))
	require.NoError(t, err)

	totals, err := svc.Totals(ctx, operator, id)
	require.NoError(t, err)
	assert.Equal(t, "250", totals.Subtotal.String())
	assert.Equal(t, "36", totals.Tax.String())
	assert.Equal(t, "266", totals.GrandTotal.String())

	session, err = svc.UpdateQuantity(ctx, operator, id, 2, 0)
	require.NoError(t, err)
	line, _ := session.Cart.Line(2)
	assert.Equal(t, 1, line.Quantity)

	session, err = svc.UpdatePrice(ctx, operator, id, 2, "abc")
	require.NoError(t, err)
	line, _ = session.Cart.Line(2)
	assert.True(t, line.UnitPrice.IsZero())

	session, err = svc.RemoveItem(ctx, operator, id, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, session.Cart.Len())

	session, err = svc.ClearCart(ctx, operator, id)
	require.NoError(t, err)
	assert.True(t, session.Cart.IsEmpty())
	assert.True(t, session.Cart.Discount().IsZero())
}

func TestCartService_SessionsAreOwned(t *testing.T) {
	ctx := context.Background()
	svc := newTestCartService(catalog(testProduct(1, "Tea", "100", nil)), newMemorySnapshotRepo())

	session, err := svc.OpenSession(ctx, operator, nil)
	require.NoError(t, err)

	_, err = svc.GetSession(ctx, "someone.else@example.com", session.ID)
	assert.Equal(t, http.StatusNotFound, appCode(t, err))

	_, err = svc.AddItem(ctx, "someone.else@example.com", session.ID, 1, 1)
	assert.Equal(t, http.StatusNotFound, appCode(t, err))

	_, err = svc.GetSession(ctx, operator, uuid.New())
	assert.Equal(t, http.StatusNotFound, appCode(t, err))
}

func TestCartService_OpenSessionRestoresLatestCart(t *testing.T) {
	ctx := context.Background()
	snapshots := newMemorySnapshotRepo()
	products := catalog(testProduct(1, "Tea", "100", gst("5")))
	business := int64(3)

	first := newTestCartService(products, snapshots)
	old, err := first.OpenSession(ctx, operator, &business)
	require.NoError(t, err)
	_, err = first.AddItem(ctx, operator, old.ID, 1, 4)
	require.NoError(t, err)

	// A fresh process sees only the persisted snapshot
	second := newTestCartService(products, snapshots)
	restored, err := second.OpenSession(ctx, operator, &business)
	require.NoError(t, err)

	assert.NotEqual(t, old.ID, restored.ID)
	line, ok := restored.Cart.Line(1)
	require.True(t, ok)
	assert.Equal(t, 4, line.Quantity)

	moved, err := snapshots.GetBySession(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, moved, "restored snapshot moves to the new session")

	other, err := second.OpenSession(ctx, operator, nil)
	require.NoError(t, err)
	assert.True(t, other.Cart.IsEmpty(), "carts of another business context are not restored")
}

func TestCartService_OpenSessionLeavesLiveCartAlone(t *testing.T) {
	ctx := context.Background()
	snapshots := newMemorySnapshotRepo()
	svc := newTestCartService(catalog(testProduct(1, "Tea", "100", nil)), snapshots)

	live, err := svc.OpenSession(ctx, operator, nil)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, operator, live.ID, 1, 2)
	require.NoError(t, err)

	second, err := svc.OpenSession(ctx, operator, nil)
	require.NoError(t, err)
	assert.True(t, second.Cart.IsEmpty(), "a cart held by a live session is not copied")

	current, err := svc.GetSession(ctx, operator, live.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.Cart.Len())

	kept, err := snapshots.GetBySession(ctx, live.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestCartService_GetSessionRebuildsFromSnapshot(t *testing.T) {
	ctx := context.Background()
	snapshots := newMemorySnapshotRepo()
	products := catalog(testProduct(1, "Tea", "100", nil))

	first := newTestCartService(products, snapshots)
	session, err := first.OpenSession(ctx, operator, nil)
	require.NoError(t, err)
	_, err = first.AddItem(ctx, operator, session.ID, 1, 2)
	require.NoError(t, err)

	second := newTestCartService(products, snapshots)
	rebuilt, err := second.GetSession(ctx, operator, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, rebuilt.ID)
	assert.Equal(t, enum.CheckoutStateIdle, rebuilt.State)
	assert.Equal(t, 1, rebuilt.Cart.Len())

	_, err = second.GetSession(ctx, "someone.else@example.com", session.ID)
	assert.Equal(t, http.StatusNotFound, appCode(t, err))
}

func TestCartService_SnapshotFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	snapshots := newMemorySnapshotRepo()
	snapshots.saveErr = errors.New("database is down")
	svc := newTestCartService(catalog(testProduct(1, "Tea", "100", nil)), snapshots)

	session, err := svc.OpenSession(ctx, operator, nil)
	require.NoError(t, err)

	session, err = svc.AddItem(ctx, operator, session.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, session.Cart.Len())
	assert.Equal(t, 0, snapshots.len())
}

func TestCartService_CartLockedWhileInFlight(t *testing.T) {
	ctx := context.Background()
	svc := newTestCartService(catalog(testProduct(1, "Tea", "100", nil)), newMemorySnapshotRepo())
	session, err := svc.OpenSession(ctx, operator, nil)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, operator, session.ID, 1, 1)
	require.NoError(t, err)

	_, err = svc.update(ctx, operator, session.ID, "test", func(s *entity.BillingSession) error {
		s.State = enum.CheckoutStateSubmitting
		return nil
	})
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, operator, session.ID, 1)
	assert.ErrorIs(t, err, ErrCartLocked)
	assert.ErrorIs(t, svc.CloseSession(ctx, operator, session.ID), ErrCartLocked)
}

func TestCartService_Subscribe(t *testing.T) {
	ctx := context.Background()
	svc := newTestCartService(catalog(testProduct(1, "Tea", "100", nil)), newMemorySnapshotRepo())
	session, err := svc.OpenSession(ctx, operator, nil)
	require.NoError(t, err)

	events, cancel := svc.Subscribe(session.ID)

	_, err = svc.AddItem(ctx, operator, session.ID, 1, 1)
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, "add_item", ev.Operation)
		assert.Equal(t, int64(1), ev.Version)
		assert.Equal(t, 1, ev.Session.Cart.Len())
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	cancel()
	cancel()
	_, open := <-events
	assert.False(t, open)
}

func TestCartService_CloseSessionClosesSubscribers(t *testing.T) {
	ctx := context.Background()
	snapshots := newMemorySnapshotRepo()
	svc := newTestCartService(catalog(testProduct(1, "Tea", "100", nil)), snapshots)
	session, err := svc.OpenSession(ctx, operator, nil)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, operator, session.ID, 1, 1)
	require.NoError(t, err)

	events, cancel := svc.Subscribe(session.ID)
	defer cancel()

	require.NoError(t, svc.CloseSession(ctx, operator, session.ID))
	_, open := <-events
	assert.False(t, open)
	assert.Equal(t, 0, snapshots.len())

	_, err = svc.GetSession(ctx, operator, session.ID)
	assert.Equal(t, http.StatusNotFound, appCode(t, err))
}

func TestCartService_TakeNotifications(t *testing.T) {
	ctx := context.Background()
	svc := newTestCartService(catalog(), newMemorySnapshotRepo())
	session, err := svc.OpenSession(ctx, operator, nil)
	require.NoError(t, err)

	svc.notify(session.ID, entity.Notification{ID: uuid.New(), Kind: entity.NotificationArtifactFailed, Message: "PDF failed"})

	notes, err := svc.TakeNotifications(ctx, operator, session.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, entity.NotificationArtifactFailed, notes[0].Kind)

	notes, err = svc.TakeNotifications(ctx, operator, session.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
}
