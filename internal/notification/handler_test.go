package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bookstore-orders/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger mimics the store's transactional claim: the record only sticks
// when fn succeeds, and a recorded eventID skips fn entirely.
type fakeLedger struct {
	mu        sync.Mutex
	processed map[string]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{processed: make(map[string]bool)}
}

func (l *fakeLedger) ProcessEventOnce(ctx context.Context, eventID string, fn func(ctx context.Context) error) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.processed[eventID] {
		return false, nil
	}
	if err := fn(ctx); err != nil {
		return false, err
	}
	l.processed[eventID] = true
	return true, nil
}

type countingSender struct {
	mu        sync.Mutex
	created   int
	delivered int
	cancelled int
	errored   int
	sendErr   error
}

func (s *countingSender) SendOrderCreated(context.Context, *models.OrderCreatedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.created++
	return nil
}

func (s *countingSender) SendOrderDelivered(context.Context, *models.OrderDeliveredEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.delivered++
	return nil
}

func (s *countingSender) SendOrderCancelled(context.Context, *models.OrderCancelledEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.cancelled++
	return nil
}

func (s *countingSender) SendOrderError(context.Context, *models.OrderErrorEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.errored++
	return nil
}

func createdEvent(eventID string) *models.OrderCreatedEvent {
	return &models.OrderCreatedEvent{
		OrderEvent: models.OrderEvent{
			EventID:     eventID,
			OrderNumber: uuid.New().String(),
			Customer:    models.Customer{Name: "Soumo", Email: "soumo@gmail.com", Phone: "999999999"},
			Delivery:    models.Address{AddressLine1: "addr line 1", City: "Kolkata", State: "WB", ZipCode: "700072", Country: "India"},
			OccurredAt:  time.Now(),
		},
	}
}

func TestHandleOrderCreatedIsIdempotent(t *testing.T) {
	ledger := newFakeLedger()
	sender := &countingSender{}
	h := NewHandler(ledger, sender)

	event := createdEvent("E1")

	require.NoError(t, h.HandleOrderCreated(context.Background(), event))
	require.NoError(t, h.HandleOrderCreated(context.Background(), event))

	assert.Equal(t, 1, sender.created, "sender must be invoked exactly once for eventId E1")
	assert.Len(t, ledger.processed, 1)
	assert.True(t, ledger.processed["E1"])
}

func TestHandleDistinctEventIDsAllNotify(t *testing.T) {
	ledger := newFakeLedger()
	sender := &countingSender{}
	h := NewHandler(ledger, sender)

	require.NoError(t, h.HandleOrderCreated(context.Background(), createdEvent("E1")))
	require.NoError(t, h.HandleOrderCreated(context.Background(), createdEvent("E2")))
	require.NoError(t, h.HandleOrderCreated(context.Background(), createdEvent("E3")))

	assert.Equal(t, 3, sender.created)
	assert.Len(t, ledger.processed, 3)
}

func TestSendFailureWithholdsLedgerRecord(t *testing.T) {
	ledger := newFakeLedger()
	sender := &countingSender{sendErr: errors.New("smtp unavailable")}
	h := NewHandler(ledger, sender)

	event := createdEvent("E1")

	err := h.HandleOrderCreated(context.Background(), event)
	require.Error(t, err)
	assert.Empty(t, ledger.processed, "failed send must not be recorded as processed")

	// Redelivery after the sender recovers must attempt the notification.
	sender.sendErr = nil
	require.NoError(t, h.HandleOrderCreated(context.Background(), event))
	assert.Equal(t, 1, sender.created)
	assert.True(t, ledger.processed["E1"])
}

func TestConcurrentDeliverySameEventIDNotifiesOnce(t *testing.T) {
	ledger := newFakeLedger()
	sender := &countingSender{}
	h := NewHandler(ledger, sender)

	event := createdEvent("E1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.HandleOrderCreated(context.Background(), event)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, sender.created)
}

func TestHandlerRoutesEachVariantToItsSender(t *testing.T) {
	ledger := newFakeLedger()
	sender := &countingSender{}
	h := NewHandler(ledger, sender)

	base := createdEvent("EV-DELIVERED").OrderEvent
	require.NoError(t, h.HandleOrderDelivered(context.Background(),
		&models.OrderDeliveredEvent{OrderEvent: base}))

	cancelled := createdEvent("EV-CANCELLED").OrderEvent
	require.NoError(t, h.HandleOrderCancelled(context.Background(),
		&models.OrderCancelledEvent{OrderEvent: cancelled, Reason: "test cancel reason"}))

	errored := createdEvent("EV-ERROR").OrderEvent
	require.NoError(t, h.HandleOrderError(context.Background(),
		&models.OrderErrorEvent{OrderEvent: errored, Reason: "test error reason"}))

	assert.Equal(t, 1, sender.delivered)
	assert.Equal(t, 1, sender.cancelled)
	assert.Equal(t, 1, sender.errored)
	assert.Equal(t, 0, sender.created)
}
