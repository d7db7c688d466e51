package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses
const (
	OrderStatusCreated   = "CREATED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
	OrderStatusError     = "ERROR"
)

// IsTerminalStatus reports whether an order status allows no further transitions.
func IsTerminalStatus(status string) bool {
	switch status {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusError:
		return true
	}
	return false
}

// Product represents a product as served by the catalog service
type Product struct {
	Code  string          `json:"code"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Customer represents the ordering customer
type Customer struct {
	Name  string `db:"customer_name" json:"name"`
	Email string `db:"customer_email" json:"email"`
	Phone string `db:"customer_phone" json:"phone"`
}

// Address represents a delivery address
type Address struct {
	AddressLine1 string `db:"delivery_address_line1" json:"addressLine1"`
	AddressLine2 string `db:"delivery_address_line2" json:"addressLine2,omitempty"`
	City         string `db:"delivery_city" json:"city"`
	State        string `db:"delivery_state" json:"state"`
	ZipCode      string `db:"delivery_zip_code" json:"zipCode"`
	Country      string `db:"delivery_country" json:"country"`
}

// Order represents a customer order
type Order struct {
	ID          int64     `db:"id" json:"-"`
	OrderNumber string    `db:"order_number" json:"orderNumber"`
	UserName    string    `db:"user_name" json:"user"`
	Customer    Customer  `json:"customer"`
	Delivery    Address   `json:"deliveryAddress"`
	Status      string    `db:"status" json:"status"`
	Comments    string    `db:"comments" json:"comments,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// OrderItem represents a line item in an order. Items are fixed at creation
// time; only order status and comments change afterwards.
type OrderItem struct {
	ID       int64           `db:"id" json:"-"`
	OrderID  int64           `db:"order_id" json:"-"`
	Code     string          `db:"code" json:"code"`
	Name     string          `db:"name" json:"name"`
	Price    decimal.Decimal `db:"price" json:"price"`
	Quantity int             `db:"quantity" json:"quantity"`
}

// OrderTotal derives the order amount from its items. The total is never
// stored, so it cannot drift from the line items.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ProcessedEvent is a row in the append-only idempotency ledger. Its presence
// is the sole signal that an eventId has already been handled.
type ProcessedEvent struct {
	ID        int64        `db:"id"`
	EventID   string       `db:"event_id"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
}
