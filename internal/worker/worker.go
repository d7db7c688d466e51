package worker

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"bookstore-orders/internal/broker"
	"bookstore-orders/internal/models"
	"bookstore-orders/internal/notification"

	"github.com/segmentio/kafka-go"
)

// NotificationWorker runs the consumer pools for the four event queues.
// Each queue gets its own consumer-group readers; the queue a message
// arrives on determines the event variant it decodes to.
type NotificationWorker struct {
	brokers     []string
	groupID     string
	topics      broker.Topics
	concurrency int
	handler     *notification.Handler

	consumers []*broker.Consumer
	wg        sync.WaitGroup
}

// NewNotificationWorker creates a new notification worker. concurrency is
// the number of readers started per queue.
func NewNotificationWorker(
	brokers []string,
	groupID string,
	topics broker.Topics,
	concurrency int,
	handler *notification.Handler,
) *NotificationWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &NotificationWorker{
		brokers:     brokers,
		groupID:     groupID,
		topics:      topics,
		concurrency: concurrency,
		handler:     handler,
	}
}

// Start starts the consumer pools and blocks until the context is cancelled
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")

	queues := []string{
		w.topics.NewOrders,
		w.topics.DeliveredOrders,
		w.topics.CancelledOrders,
		w.topics.ErrorOrders,
	}

	for _, queue := range queues {
		for i := 0; i < w.concurrency; i++ {
			consumer := broker.NewConsumer(w.brokers, queue, w.groupID)
			w.consumers = append(w.consumers, consumer)

			w.wg.Add(1)
			go func(c *broker.Consumer) {
				defer w.wg.Done()
				if err := c.StartConsuming(ctx, w.dispatch(c.Topic())); err != nil && ctx.Err() == nil {
					log.Printf("Consumer for topic %s stopped: %v", c.Topic(), err)
				}
			}(consumer)
		}
	}

	w.wg.Wait()
	return ctx.Err()
}

// Stop closes all consumers
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	var firstErr error
	for _, c := range w.consumers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// dispatch returns the message handler for a queue. Malformed payloads are
// logged and dropped so they do not wedge the partition.
func (w *NotificationWorker) dispatch(topic string) broker.MessageHandler {
	switch topic {
	case w.topics.NewOrders:
		return func(ctx context.Context, msg kafka.Message) error {
			var event models.OrderCreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("Dropping malformed message on %s: %v", topic, err)
				return nil
			}
			return w.handler.HandleOrderCreated(ctx, &event)
		}
	case w.topics.DeliveredOrders:
		return func(ctx context.Context, msg kafka.Message) error {
			var event models.OrderDeliveredEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("Dropping malformed message on %s: %v", topic, err)
				return nil
			}
			return w.handler.HandleOrderDelivered(ctx, &event)
		}
	case w.topics.CancelledOrders:
		return func(ctx context.Context, msg kafka.Message) error {
			var event models.OrderCancelledEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("Dropping malformed message on %s: %v", topic, err)
				return nil
			}
			return w.handler.HandleOrderCancelled(ctx, &event)
		}
	default:
		return func(ctx context.Context, msg kafka.Message) error {
			var event models.OrderErrorEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("Dropping malformed message on %s: %v", topic, err)
				return nil
			}
			return w.handler.HandleOrderError(ctx, &event)
		}
	}
}
