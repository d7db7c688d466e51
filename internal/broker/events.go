package broker

import (
	"context"
	"fmt"

	"bookstore-orders/internal/models"
	"bookstore-orders/internal/util"

	"go.uber.org/zap"
)

// Topics maps each event variant to its queue. The four queues share one
// logical exchange; each variant is bound 1:1 to its own queue.
type Topics struct {
	NewOrders       string
	DeliveredOrders string
	CancelledOrders string
	ErrorOrders     string
}

// EventPublisher routes typed domain events to their configured topics.
// Transport failures are returned to the caller; the publisher performs no
// retry of its own beyond the transport's write attempts.
type EventPublisher struct {
	producer *Producer
	topics   Topics
	logger   *zap.Logger
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer, topics Topics) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		topics:   topics,
		logger:   util.GetLogger(),
	}
}

// PublishOrderCreated publishes an OrderCreatedEvent to the new-orders queue
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.send(ctx, ep.topics.NewOrders, models.EventTypeOrderCreated, event.OrderNumber, event)
}

// PublishOrderDelivered publishes an OrderDeliveredEvent to the delivered-orders queue
func (ep *EventPublisher) PublishOrderDelivered(ctx context.Context, event *models.OrderDeliveredEvent) error {
	return ep.send(ctx, ep.topics.DeliveredOrders, models.EventTypeOrderDelivered, event.OrderNumber, event)
}

// PublishOrderCancelled publishes an OrderCancelledEvent to the cancelled-orders queue
func (ep *EventPublisher) PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	return ep.send(ctx, ep.topics.CancelledOrders, models.EventTypeOrderCancelled, event.OrderNumber, event)
}

// PublishOrderError publishes an OrderErrorEvent to the error-orders queue
func (ep *EventPublisher) PublishOrderError(ctx context.Context, event *models.OrderErrorEvent) error {
	return ep.send(ctx, ep.topics.ErrorOrders, models.EventTypeOrderError, event.OrderNumber, event)
}

func (ep *EventPublisher) send(ctx context.Context, topic, eventType, orderNumber string, event interface{}) error {
	ctx, span := util.StartSpan(ctx, "EventPublisher.send")
	defer span.End()

	ep.logger.Info("Publishing event",
		zap.String("topic", topic),
		zap.String("type", eventType),
		zap.String("order_number", orderNumber))

	if err := ep.producer.Publish(ctx, topic, orderNumber, event); err != nil {
		util.EventPublishFailuresTotal.WithLabelValues(eventType).Inc()
		ep.logger.Error("Failed to publish event",
			zap.String("topic", topic),
			zap.String("type", eventType),
			zap.Error(err))
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	util.EventsPublishedTotal.WithLabelValues(eventType).Inc()
	return nil
}
