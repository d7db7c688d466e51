package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"bookstore-orders/internal/models"
	"bookstore-orders/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	orders    map[string]*models.Order
	items     map[string][]models.OrderItem
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders: make(map[string]*models.Order),
		items:  make(map[string][]models.OrderItem),
	}
}

func (f *fakeStore) CreateOrder(_ context.Context, order *models.Order, items []models.OrderItem) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.orders[order.OrderNumber] = order
	f.items[order.OrderNumber] = items
	return nil
}

func (f *fakeStore) GetOrderByNumber(_ context.Context, orderNumber string) (*models.Order, []models.OrderItem, error) {
	order, ok := f.orders[orderNumber]
	if !ok {
		return nil, nil, fmt.Errorf("order %s: %w", orderNumber, store.ErrOrderNotFound)
	}
	return order, f.items[orderNumber], nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, orderNumber, status, comments string) error {
	order, ok := f.orders[orderNumber]
	if !ok {
		return fmt.Errorf("order %s: %w", orderNumber, store.ErrOrderNotFound)
	}
	order.Status = status
	order.Comments = comments
	return nil
}

type fakePublisher struct {
	created   []*models.OrderCreatedEvent
	delivered []*models.OrderDeliveredEvent
	cancelled []*models.OrderCancelledEvent
	failed    []*models.OrderErrorEvent
	err       error
}

func (f *fakePublisher) PublishOrderCreated(_ context.Context, e *models.OrderCreatedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, e)
	return nil
}

func (f *fakePublisher) PublishOrderDelivered(_ context.Context, e *models.OrderDeliveredEvent) error {
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, e)
	return nil
}

func (f *fakePublisher) PublishOrderCancelled(_ context.Context, e *models.OrderCancelledEvent) error {
	if f.err != nil {
		return f.err
	}
	f.cancelled = append(f.cancelled, e)
	return nil
}

func (f *fakePublisher) PublishOrderError(_ context.Context, e *models.OrderErrorEvent) error {
	if f.err != nil {
		return f.err
	}
	f.failed = append(f.failed, e)
	return nil
}

func newTestService(st *fakeStore, pub *fakePublisher, catalogPrice string) *OrderService {
	cat := &fakeCatalog{products: map[string]*models.Product{
		"P100": {Code: "P100", Name: "Product 1", Price: decimal.RequireFromString(catalogPrice)},
	}}
	return NewOrderService(st, NewOrderValidator(cat), pub)
}

func TestCreateOrderSuccess(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(st, pub, "75.50")

	resp, err := svc.CreateOrder(context.Background(), "soumo", validRequest())
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.OrderNumber)

	order, ok := st.orders[resp.OrderNumber]
	require.True(t, ok, "order should be persisted")
	assert.Equal(t, models.OrderStatusCreated, order.Status)
	assert.Equal(t, "soumo", order.UserName)

	require.Len(t, pub.created, 1)
	event := pub.created[0]
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, resp.OrderNumber, event.OrderNumber)
	require.Len(t, event.Items, 1)
	assert.True(t, event.Items[0].Price.Equal(decimal.RequireFromString("75.50")))
}

func TestCreateOrderPriceMismatchDoesNotPersist(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(st, pub, "80.00")

	resp, err := svc.CreateOrder(context.Background(), "soumo", validRequest())
	require.Error(t, err)
	assert.Nil(t, resp)

	var invalidErr *InvalidOrderError
	require.ErrorAs(t, err, &invalidErr)
	assert.Empty(t, st.orders, "no order should be persisted on validation failure")
	assert.Empty(t, pub.created, "no event should be published on validation failure")
}

func TestCreateOrderUnsupportedCountryDoesNotPersist(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(st, pub, "75.50")

	req := validRequest()
	req.Delivery.Country = "Atlantis"

	_, err := svc.CreateOrder(context.Background(), "soumo", req)

	var invalidErr *InvalidOrderError
	require.ErrorAs(t, err, &invalidErr)
	assert.Empty(t, st.orders)
}

func TestCreateOrderStoreConflictIsRetryable(t *testing.T) {
	st := newFakeStore()
	st.createErr = fmt.Errorf("insert: %w", store.ErrDuplicateKey)
	pub := &fakePublisher{}
	svc := newTestService(st, pub, "75.50")

	_, err := svc.CreateOrder(context.Background(), "soumo", validRequest())
	assert.ErrorIs(t, err, ErrStoreConflict)
	assert.Empty(t, pub.created)
}

func TestCreateOrderPublishFailureSurfacesOrderNumber(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{err: errors.New("broker unavailable")}
	svc := newTestService(st, pub, "75.50")

	resp, err := svc.CreateOrder(context.Background(), "soumo", validRequest())
	require.Error(t, err)

	var publishErr *PublishError
	require.ErrorAs(t, err, &publishErr)
	require.NotNil(t, resp)
	assert.Equal(t, resp.OrderNumber, publishErr.OrderNumber)

	_, persisted := st.orders[resp.OrderNumber]
	assert.True(t, persisted, "order stays persisted when the publish fails")
}

func TestDeliverOrderPublishesDeliveredEvent(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(st, pub, "75.50")

	resp, err := svc.CreateOrder(context.Background(), "soumo", validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.DeliverOrder(context.Background(), resp.OrderNumber))

	assert.Equal(t, models.OrderStatusDelivered, st.orders[resp.OrderNumber].Status)
	require.Len(t, pub.delivered, 1)
	assert.Equal(t, resp.OrderNumber, pub.delivered[0].OrderNumber)
}

func TestCancelOrderCarriesReason(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(st, pub, "75.50")

	resp, err := svc.CreateOrder(context.Background(), "soumo", validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.CancelOrder(context.Background(), resp.OrderNumber, "customer request"))

	order := st.orders[resp.OrderNumber]
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.Equal(t, "customer request", order.Comments)
	require.Len(t, pub.cancelled, 1)
	assert.Equal(t, "customer request", pub.cancelled[0].Reason)
}

func TestTerminalStatusRejectsFurtherTransitions(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(st, pub, "75.50")

	resp, err := svc.CreateOrder(context.Background(), "soumo", validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.DeliverOrder(context.Background(), resp.OrderNumber))

	err = svc.CancelOrder(context.Background(), resp.OrderNumber, "too late")
	assert.ErrorIs(t, err, ErrOrderClosed)
	assert.Empty(t, pub.cancelled)

	err = svc.FailOrder(context.Background(), resp.OrderNumber, "no-op")
	assert.ErrorIs(t, err, ErrOrderClosed)
	assert.Empty(t, pub.failed)
}

func TestGetOrderDerivesTotal(t *testing.T) {
	st := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(st, pub, "75.50")

	req := validRequest()
	req.Items[0].Quantity = 3
	resp, err := svc.CreateOrder(context.Background(), "soumo", req)
	require.NoError(t, err)

	details, err := svc.GetOrder(context.Background(), resp.OrderNumber)
	require.NoError(t, err)
	assert.True(t, details.TotalAmount.Equal(decimal.RequireFromString("226.50")),
		"expected 226.50, got %s", details.TotalAmount)

	again, err := svc.GetOrder(context.Background(), resp.OrderNumber)
	require.NoError(t, err)
	assert.True(t, details.TotalAmount.Equal(again.TotalAmount), "derived total must be stable")
}
