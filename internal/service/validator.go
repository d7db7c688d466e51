package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstore-orders/internal/catalog"
	"bookstore-orders/internal/models"
	"bookstore-orders/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// deliveryAllowedCountries is the fixed allow-list of delivery destinations.
var deliveryAllowedCountries = []string{"INDIA", "USA", "GERMANY", "UK"}

// ProductLookup resolves a product code to its canonical catalog entry
type ProductLookup interface {
	GetProductByCode(ctx context.Context, code string) (*models.Product, error)
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	Customer models.Customer    `json:"customer" binding:"required"`
	Delivery models.Address     `json:"deliveryAddress" binding:"required"`
	Items    []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// OrderItemRequest represents a line item in an order request
type OrderItemRequest struct {
	Code     string          `json:"code" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price" binding:"required"`
	Quantity int             `json:"quantity" binding:"required,min=1"`
}

// OrderValidator enforces business invariants on an order request before it
// is accepted. Validation is all-or-nothing and performs no side effects.
type OrderValidator struct {
	client ProductLookup
	logger *zap.Logger
}

// NewOrderValidator creates a new order validator
func NewOrderValidator(client ProductLookup) *OrderValidator {
	return &OrderValidator{
		client: client,
		logger: util.GetLogger(),
	}
}

// Validate checks the request against the catalog and the delivery
// allow-list. Every item must carry the catalog's current price, compared
// with exact decimal equality.
func (v *OrderValidator) Validate(ctx context.Context, req *CreateOrderRequest) error {
	ctx, span := util.StartSpan(ctx, "OrderValidator.Validate")
	defer span.End()

	if len(req.Items) == 0 {
		return &InvalidOrderError{Reason: "items cannot be empty"}
	}

	if !isDeliveryCountryAllowed(req.Delivery.Country) {
		v.logger.Warn("Rejecting order with unsupported delivery country",
			zap.String("country", req.Delivery.Country))
		return &InvalidOrderError{Reason: fmt.Sprintf("delivery to country %s is not supported", req.Delivery.Country)}
	}

	for _, item := range req.Items {
		product, err := v.client.GetProductByCode(ctx, item.Code)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return &InvalidOrderError{Reason: fmt.Sprintf("invalid product code: %s", item.Code)}
			}
			return &InvalidOrderError{Reason: fmt.Sprintf("product lookup failed for code %s: %v", item.Code, err)}
		}

		if !item.Price.Equal(product.Price) {
			v.logger.Error("Product price not matching",
				zap.String("code", item.Code),
				zap.String("actual_price", product.Price.String()),
				zap.String("received_price", item.Price.String()))
			return &InvalidOrderError{Reason: "product price not matching"}
		}
	}

	return nil
}

func isDeliveryCountryAllowed(country string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(country))
	for _, allowed := range deliveryAllowedCountries {
		if normalized == allowed {
			return true
		}
	}
	return false
}
