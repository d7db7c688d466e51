package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookstore-orders/internal/models"
	"bookstore-orders/internal/store"
	"bookstore-orders/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderStore is the persistence surface the order service depends on.
// Mutation always goes through these explicit operations.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, []models.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderNumber, status, comments string) error
}

// EventPublisher routes typed domain events to their queues
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderDelivered(ctx context.Context, event *models.OrderDeliveredEvent) error
	PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
	PublishOrderError(ctx context.Context, event *models.OrderErrorEvent) error
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	OrderNumber string `json:"orderNumber"`
}

// OrderDetails represents an order with its items and derived total
type OrderDetails struct {
	models.Order
	Items       []models.OrderItem `json:"items"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
}

// OrderService orchestrates validation, persistence and event emission for
// the order lifecycle.
type OrderService struct {
	store     OrderStore
	validator *OrderValidator
	publisher EventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(orderStore OrderStore, validator *OrderValidator, publisher EventPublisher) *OrderService {
	return &OrderService{
		store:     orderStore,
		validator: validator,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// CreateOrder validates the request, persists the order in status CREATED and
// publishes an OrderCreatedEvent. Validation, including the remote catalog
// calls, runs before the store transaction opens so no local lock is held
// across a network hop. Order persistence and event publication are two
// independent operations without a shared atomic commit; a PublishError means
// the order is persisted but its event never reached the broker.
func (s *OrderService) CreateOrder(ctx context.Context, userName string, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if err := s.validator.Validate(ctx, req); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	order := &models.Order{
		OrderNumber: uuid.New().String(),
		UserName:    userName,
		Customer:    req.Customer,
		Delivery:    req.Delivery,
		Status:      models.OrderStatusCreated,
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.OrderItem{
			Code:     item.Code,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	if err := s.store.CreateOrder(ctx, order, items); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			util.OrdersRejectedTotal.WithLabelValues("conflict").Inc()
			return nil, fmt.Errorf("order number %s already exists: %w", order.OrderNumber, ErrStoreConflict)
		}
		util.OrdersRejectedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Created order", zap.String("order_number", order.OrderNumber))

	event := &models.OrderCreatedEvent{
		OrderEvent: s.newOrderEvent(order, items),
	}

	resp := &CreateOrderResponse{OrderNumber: order.OrderNumber}
	if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
		return resp, &PublishError{OrderNumber: order.OrderNumber, Err: err}
	}

	return resp, nil
}

// GetOrder retrieves an order with its items and derived total
func (s *OrderService) GetOrder(ctx context.Context, orderNumber string) (*OrderDetails, error) {
	order, items, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	return &OrderDetails{
		Order:       *order,
		Items:       items,
		TotalAmount: models.OrderTotal(items),
	}, nil
}

// DeliverOrder marks a created order as delivered and publishes an
// OrderDeliveredEvent.
func (s *OrderService) DeliverOrder(ctx context.Context, orderNumber string) error {
	order, items, err := s.transition(ctx, orderNumber, models.OrderStatusDelivered, "")
	if err != nil {
		return err
	}

	event := &models.OrderDeliveredEvent{OrderEvent: s.newOrderEvent(order, items)}
	if err := s.publisher.PublishOrderDelivered(ctx, event); err != nil {
		return &PublishError{OrderNumber: orderNumber, Err: err}
	}
	return nil
}

// CancelOrder marks a created order as cancelled and publishes an
// OrderCancelledEvent carrying the reason.
func (s *OrderService) CancelOrder(ctx context.Context, orderNumber, reason string) error {
	order, items, err := s.transition(ctx, orderNumber, models.OrderStatusCancelled, reason)
	if err != nil {
		return err
	}

	event := &models.OrderCancelledEvent{
		OrderEvent: s.newOrderEvent(order, items),
		Reason:     reason,
	}
	if err := s.publisher.PublishOrderCancelled(ctx, event); err != nil {
		return &PublishError{OrderNumber: orderNumber, Err: err}
	}
	return nil
}

// FailOrder marks a created order as errored and publishes an OrderErrorEvent
// carrying the reason.
func (s *OrderService) FailOrder(ctx context.Context, orderNumber, reason string) error {
	order, items, err := s.transition(ctx, orderNumber, models.OrderStatusError, reason)
	if err != nil {
		return err
	}

	event := &models.OrderErrorEvent{
		OrderEvent: s.newOrderEvent(order, items),
		Reason:     reason,
	}
	if err := s.publisher.PublishOrderError(ctx, event); err != nil {
		return &PublishError{OrderNumber: orderNumber, Err: err}
	}
	return nil
}

// transition moves an order from CREATED to a terminal status. Terminal
// states reject further transitions.
func (s *OrderService) transition(ctx context.Context, orderNumber, status, comments string) (*models.Order, []models.OrderItem, error) {
	order, items, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, nil, err
	}

	if models.IsTerminalStatus(order.Status) {
		return nil, nil, fmt.Errorf("order %s is %s: %w", orderNumber, order.Status, ErrOrderClosed)
	}

	if err := s.store.UpdateOrderStatus(ctx, orderNumber, status, comments); err != nil {
		return nil, nil, fmt.Errorf("failed to update order status: %w", err)
	}

	util.OrderStatusTransitionsTotal.WithLabelValues(status).Inc()
	s.logger.Info("Order status updated",
		zap.String("order_number", orderNumber),
		zap.String("status", status))

	order.Status = status
	order.Comments = comments
	return order, items, nil
}

func (s *OrderService) newOrderEvent(order *models.Order, items []models.OrderItem) models.OrderEvent {
	return models.OrderEvent{
		EventID:     uuid.New().String(),
		OrderNumber: order.OrderNumber,
		Items:       items,
		Customer:    order.Customer,
		Delivery:    order.Delivery,
		OccurredAt:  time.Now(),
	}
}
