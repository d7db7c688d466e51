package notification

import (
	"context"

	"bookstore-orders/internal/models"
	"bookstore-orders/internal/util"

	"go.uber.org/zap"
)

// Ledger guards the notification side effect against duplicate deliveries.
// fn runs at most once per eventID; the returned bool reports whether it ran.
type Ledger interface {
	ProcessEventOnce(ctx context.Context, eventID string, fn func(ctx context.Context) error) (bool, error)
}

// Handler consumes order domain events exactly-once-in-effect: each event is
// checked against the ledger, triggers its notification, and is recorded as
// processed in the same transaction. A duplicate eventId is a recognized
// no-op, not an error. A failed send leaves no ledger record, so broker
// redelivery retries the notification.
type Handler struct {
	ledger Ledger
	sender Sender
	logger *zap.Logger
}

// NewHandler creates a new event handler
func NewHandler(ledger Ledger, sender Sender) *Handler {
	return &Handler{
		ledger: ledger,
		sender: sender,
		logger: util.GetLogger(),
	}
}

// HandleOrderCreated handles an OrderCreatedEvent
func (h *Handler) HandleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return h.handle(ctx, models.EventTypeOrderCreated, event.EventID, event.OrderNumber,
		func(ctx context.Context) error {
			return h.sender.SendOrderCreated(ctx, event)
		})
}

// HandleOrderDelivered handles an OrderDeliveredEvent
func (h *Handler) HandleOrderDelivered(ctx context.Context, event *models.OrderDeliveredEvent) error {
	return h.handle(ctx, models.EventTypeOrderDelivered, event.EventID, event.OrderNumber,
		func(ctx context.Context) error {
			return h.sender.SendOrderDelivered(ctx, event)
		})
}

// HandleOrderCancelled handles an OrderCancelledEvent
func (h *Handler) HandleOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	return h.handle(ctx, models.EventTypeOrderCancelled, event.EventID, event.OrderNumber,
		func(ctx context.Context) error {
			return h.sender.SendOrderCancelled(ctx, event)
		})
}

// HandleOrderError handles an OrderErrorEvent
func (h *Handler) HandleOrderError(ctx context.Context, event *models.OrderErrorEvent) error {
	return h.handle(ctx, models.EventTypeOrderError, event.EventID, event.OrderNumber,
		func(ctx context.Context) error {
			return h.sender.SendOrderError(ctx, event)
		})
}

func (h *Handler) handle(ctx context.Context, eventType, eventID, orderNumber string, send func(ctx context.Context) error) error {
	ctx, span := util.StartSpan(ctx, "NotificationHandler.handle")
	defer span.End()

	h.logger.Info("Received event",
		zap.String("type", eventType),
		zap.String("event_id", eventID),
		zap.String("order_number", orderNumber))

	processed, err := h.ledger.ProcessEventOnce(ctx, eventID, send)
	if err != nil {
		util.NotificationFailuresTotal.WithLabelValues(eventType).Inc()
		h.logger.Error("Failed to process event",
			zap.String("type", eventType),
			zap.String("event_id", eventID),
			zap.Error(err))
		return err
	}

	if !processed {
		util.DuplicateEventsTotal.WithLabelValues(eventType).Inc()
		h.logger.Warn("Received duplicate event, skipping",
			zap.String("type", eventType),
			zap.String("event_id", eventID))
		return nil
	}

	util.EventsConsumedTotal.WithLabelValues(eventType).Inc()
	util.NotificationsSentTotal.WithLabelValues(eventType).Inc()
	return nil
}
