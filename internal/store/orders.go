package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookstore-orders/internal/models"
)

// orderRow is the flat scan target for the orders table.
type orderRow struct {
	ID            int64          `db:"id"`
	OrderNumber   string         `db:"order_number"`
	UserName      string         `db:"user_name"`
	CustomerName  string         `db:"customer_name"`
	CustomerEmail string         `db:"customer_email"`
	CustomerPhone string         `db:"customer_phone"`
	AddressLine1  string         `db:"delivery_address_line1"`
	AddressLine2  sql.NullString `db:"delivery_address_line2"`
	City          string         `db:"delivery_city"`
	State         string         `db:"delivery_state"`
	ZipCode       string         `db:"delivery_zip_code"`
	Country       string         `db:"delivery_country"`
	Status        string         `db:"status"`
	Comments      sql.NullString `db:"comments"`
	CreatedAt     sql.NullTime   `db:"created_at"`
	UpdatedAt     sql.NullTime   `db:"updated_at"`
}

func (r *orderRow) toOrder() *models.Order {
	order := &models.Order{
		ID:          r.ID,
		OrderNumber: r.OrderNumber,
		UserName:    r.UserName,
		Customer: models.Customer{
			Name:  r.CustomerName,
			Email: r.CustomerEmail,
			Phone: r.CustomerPhone,
		},
		Delivery: models.Address{
			AddressLine1: r.AddressLine1,
			AddressLine2: r.AddressLine2.String,
			City:         r.City,
			State:        r.State,
			ZipCode:      r.ZipCode,
			Country:      r.Country,
		},
		Status:   r.Status,
		Comments: r.Comments.String,
	}
	if r.CreatedAt.Valid {
		order.CreatedAt = r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		order.UpdatedAt = r.UpdatedAt.Time
	}
	return order
}

// CreateOrder persists an order and its line items in a single transaction.
// A unique violation on order_number is reported as ErrDuplicateKey so the
// caller can treat it as a retryable conflict.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (
			order_number, user_name,
			customer_name, customer_email, customer_phone,
			delivery_address_line1, delivery_address_line2, delivery_city,
			delivery_state, delivery_zip_code, delivery_country,
			status, comments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		order.OrderNumber, order.UserName,
		order.Customer.Name, order.Customer.Email, order.Customer.Phone,
		order.Delivery.AddressLine1, order.Delivery.AddressLine2, order.Delivery.City,
		order.Delivery.State, order.Delivery.ZipCode, order.Delivery.Country,
		order.Status, order.Comments,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order %s: %w", order.OrderNumber, ErrDuplicateKey)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO order_items (order_id, code, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			items[i].OrderID, items[i].Code, items[i].Name, items[i].Price, items[i].Quantity,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item %s: %w", items[i].Code, err)
		}
	}

	return tx.Commit()
}

// GetOrderByNumber retrieves an order and its items by order number
func (s *Store) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, []models.OrderItem, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM orders WHERE order_number = $1", orderNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("order %s: %w", orderNumber, ErrOrderNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	var items []models.OrderItem
	err = s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", row.ID)
	if err != nil {
		return nil, nil, err
	}

	return row.toOrder(), items, nil
}

// UpdateOrderStatus updates an order's status and comments
func (s *Store) UpdateOrderStatus(ctx context.Context, orderNumber, status, comments string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, comments = $2, updated_at = NOW() WHERE order_number = $3",
		status, comments, orderNumber)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("order %s: %w", orderNumber, ErrOrderNotFound)
	}
	return nil
}
