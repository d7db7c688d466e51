package notification

import (
	"context"

	"bookstore-orders/internal/models"
	"bookstore-orders/internal/util"

	"go.uber.org/zap"
)

// Sender performs the actual customer communication for an event variant.
// Implementations are injected; the handler never cares how a notification
// is delivered.
type Sender interface {
	SendOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	SendOrderDelivered(ctx context.Context, event *models.OrderDeliveredEvent) error
	SendOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
	SendOrderError(ctx context.Context, event *models.OrderErrorEvent) error
}

// LogSender renders each notification to the log instead of an email
// gateway. Customer-facing messages go to the customer's address; error
// notifications go to the configured support address.
type LogSender struct {
	supportEmail string
	logger       *zap.Logger
}

// NewLogSender creates a log-backed notification sender
func NewLogSender(supportEmail string) *LogSender {
	return &LogSender{
		supportEmail: supportEmail,
		logger:       util.GetLogger(),
	}
}

func (s *LogSender) SendOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	s.logger.Info("Sending notification",
		zap.String("template", "order-created"),
		zap.String("to", event.Customer.Email),
		zap.String("order_number", event.OrderNumber),
		zap.String("message", "Dear "+event.Customer.Name+", your order has been received and is being processed."))
	return nil
}

func (s *LogSender) SendOrderDelivered(ctx context.Context, event *models.OrderDeliveredEvent) error {
	s.logger.Info("Sending notification",
		zap.String("template", "order-delivered"),
		zap.String("to", event.Customer.Email),
		zap.String("order_number", event.OrderNumber),
		zap.String("message", "Dear "+event.Customer.Name+", your order has been delivered."))
	return nil
}

func (s *LogSender) SendOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	s.logger.Info("Sending notification",
		zap.String("template", "order-cancelled"),
		zap.String("to", event.Customer.Email),
		zap.String("order_number", event.OrderNumber),
		zap.String("reason", event.Reason),
		zap.String("message", "Dear "+event.Customer.Name+", your order has been cancelled."))
	return nil
}

func (s *LogSender) SendOrderError(ctx context.Context, event *models.OrderErrorEvent) error {
	s.logger.Info("Sending notification",
		zap.String("template", "order-error"),
		zap.String("to", s.supportEmail),
		zap.String("order_number", event.OrderNumber),
		zap.String("reason", event.Reason),
		zap.String("message", "Order processing failed, please investigate."))
	return nil
}
