package models

import "time"

// Event types
const (
	EventTypeOrderCreated   = "ORDER_CREATED"
	EventTypeOrderDelivered = "ORDER_DELIVERED"
	EventTypeOrderCancelled = "ORDER_CANCELLED"
	EventTypeOrderError     = "ORDER_ERROR"
)

// OrderEvent is the wire schema shared by all four event variants. Events are
// value objects: producer and consumer each hold their own copy, the eventId
// is the idempotency key.
type OrderEvent struct {
	EventID     string      `json:"eventId"`
	OrderNumber string      `json:"orderNumber"`
	Items       []OrderItem `json:"items"`
	Customer    Customer    `json:"customer"`
	Delivery    Address     `json:"deliveryAddress"`
	OccurredAt  time.Time   `json:"occurredAt"`
}

// OrderCreatedEvent is published when an order is accepted
type OrderCreatedEvent struct {
	OrderEvent
}

// OrderDeliveredEvent is published when an order reaches the customer
type OrderDeliveredEvent struct {
	OrderEvent
}

// OrderCancelledEvent is published when an order is cancelled
type OrderCancelledEvent struct {
	OrderEvent
	Reason string `json:"reason"`
}

// OrderErrorEvent is published when order processing fails
type OrderErrorEvent struct {
	OrderEvent
	Reason string `json:"reason"`
}
