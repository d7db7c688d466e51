package service

import (
	"errors"
	"fmt"
)

// ErrStoreConflict signals a persistence conflict on the generated order
// number. The caller may retry the request.
var ErrStoreConflict = errors.New("order store conflict")

// ErrOrderClosed signals a status transition attempted on an order already
// in a terminal state.
var ErrOrderClosed = errors.New("order already in a terminal state")

// InvalidOrderError rejects a client request. It is never retried.
type InvalidOrderError struct {
	Reason string
}

func (e *InvalidOrderError) Error() string {
	return fmt.Sprintf("invalid order: %s", e.Reason)
}

// PublishError reports that an order was persisted but its event could not
// be handed to the broker. The caller decides whether to fail the request or
// accept the order with deferred notification.
type PublishError struct {
	OrderNumber string
	Err         error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("order %s persisted but event publish failed: %v", e.OrderNumber, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
