package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookstore-orders/internal/models"
)

// IsEventProcessed checks whether a ledger record exists for the event
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var record models.ProcessedEvent
	err := s.db.GetContext(ctx, &record,
		"SELECT * FROM order_events WHERE event_id = $1", eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ProcessEventOnce runs fn at most once per eventID. The ledger row is
// claimed inside the same transaction that wraps fn: a conflicting insert
// means another delivery already handled (or is handling) this eventID, so
// fn is skipped entirely. If fn fails the transaction rolls back and the
// row is withheld, leaving the event eligible for redelivery.
//
// Returns true when fn ran and the ledger record was committed.
func (s *Store) ProcessEventOnce(ctx context.Context, eventID string, fn func(ctx context.Context) error) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO order_events (event_id) VALUES ($1) ON CONFLICT (event_id) DO NOTHING",
		eventID)
	if err != nil {
		return false, fmt.Errorf("failed to claim event %s: %w", eventID, err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted == 0 {
		// Already processed, or a concurrent delivery holds the claim.
		return false, nil
	}

	if err := fn(ctx); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit event %s: %w", eventID, err)
	}
	return true, nil
}
