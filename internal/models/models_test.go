package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderTotal(t *testing.T) {
	items := []OrderItem{
		{Code: "P100", Price: decimal.RequireFromString("75.50"), Quantity: 2},
		{Code: "P101", Price: decimal.RequireFromString("9.99"), Quantity: 3},
	}

	total := OrderTotal(items)
	assert.True(t, total.Equal(decimal.RequireFromString("180.97")),
		"expected 180.97, got %s", total)
}

func TestOrderTotalIsPureDerivation(t *testing.T) {
	items := []OrderItem{
		{Code: "P100", Price: decimal.RequireFromString("75.50"), Quantity: 1},
	}

	first := OrderTotal(items)
	second := OrderTotal(items)
	assert.True(t, first.Equal(second))
}

func TestOrderTotalEmptyItems(t *testing.T) {
	assert.True(t, OrderTotal(nil).IsZero())
}

func TestIsTerminalStatus(t *testing.T) {
	assert.False(t, IsTerminalStatus(OrderStatusCreated))
	assert.True(t, IsTerminalStatus(OrderStatusDelivered))
	assert.True(t, IsTerminalStatus(OrderStatusCancelled))
	assert.True(t, IsTerminalStatus(OrderStatusError))
}
