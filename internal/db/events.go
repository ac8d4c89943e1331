package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEventAlreadyProcessed = errors.New("webhook event already processed")

type EventStore struct {
	pool *pgxpool.Pool
}

func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

const eventColumns = `
	id, event_id, event_type, payload, processed, processing_attempts,
	last_processing_error, order_id, created_at, processed_at
`

// GetOrCreate records the delivery keyed by the gateway event id. The unique
// constraint absorbs duplicate deliveries; created reports whether this call
// inserted the row.
func (s *EventStore) GetOrCreate(ctx context.Context, eventID, eventType string, payload []byte) (*PaystackEvent, bool, error) {
	insert := `
		INSERT INTO paystack_events (event_id, event_type, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING ` + eventColumns
	rows, err := s.pool.Query(ctx, insert, eventID, eventType, payload)
	if err != nil {
		return nil, false, err
	}
	event, err := collectOneEvent(rows)
	if err == nil {
		return event, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	event, err = s.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, false, err
	}
	return event, false, nil
}

func (s *EventStore) GetByEventID(ctx context.Context, eventID string) (*PaystackEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM paystack_events WHERE event_id = $1`
	rows, err := s.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	return collectOneEvent(rows)
}

func (s *EventStore) GetByID(ctx context.Context, id uuid.UUID) (*PaystackEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM paystack_events WHERE id = $1`
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	return collectOneEvent(rows)
}

// ClaimForProcessing bumps the attempt counter and returns the new count.
// A processed event cannot be claimed again.
func (s *EventStore) ClaimForProcessing(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE paystack_events
		SET processing_attempts = processing_attempts + 1
		WHERE id = $1 AND processed = FALSE
		RETURNING processing_attempts
	`
	var attempts int
	err := s.pool.QueryRow(ctx, query, id).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrEventAlreadyProcessed
	}
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

func (s *EventStore) MarkProcessed(ctx context.Context, id uuid.UUID, orderID *uuid.UUID) error {
	var orderRef pgtype.UUID
	if orderID != nil {
		orderRef = pgtype.UUID{Bytes: *orderID, Valid: true}
	}
	query := `
		UPDATE paystack_events
		SET processed = TRUE,
		    processed_at = NOW(),
		    last_processing_error = '',
		    order_id = COALESCE($1, order_id)
		WHERE id = $2
	`
	_, err := s.pool.Exec(ctx, query, orderRef, id)
	return err
}

func (s *EventStore) RecordError(ctx context.Context, id uuid.UUID, message string) error {
	query := `UPDATE paystack_events SET last_processing_error = $1 WHERE id = $2`
	_, err := s.pool.Exec(ctx, query, message, id)
	return err
}

// ListUnprocessed returns retryable events below the attempt ceiling that
// have been sitting at least minAge. Oldest first so the sweep drains in
// arrival order.
func (s *EventStore) ListUnprocessed(ctx context.Context, maxAttempts int, minAge time.Duration, limit int) ([]*PaystackEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM paystack_events
		WHERE processed = FALSE
		  AND processing_attempts < $1
		  AND created_at < NOW() - $2::interval
		ORDER BY created_at
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, maxAttempts, minAge.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

// ListExhausted returns unprocessed events that hit the attempt ceiling.
// These need an operator, not another retry.
func (s *EventStore) ListExhausted(ctx context.Context, maxAttempts, limit int) ([]*PaystackEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM paystack_events
		WHERE processed = FALSE AND processing_attempts >= $1
		ORDER BY created_at
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

// PruneProcessed deletes processed events older than the retention window and
// returns how many rows went away.
func (s *EventStore) PruneProcessed(ctx context.Context, retention time.Duration) (int64, error) {
	query := `
		DELETE FROM paystack_events
		WHERE processed = TRUE AND processed_at < NOW() - $1::interval
	`
	cmdTag, err := s.pool.Exec(ctx, query, retention.String())
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

func collectOneEvent(rows pgx.Rows) (*PaystackEvent, error) {
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	return scanEvent(rows)
}

func collectEvents(rows pgx.Rows) ([]*PaystackEvent, error) {
	var events []*PaystackEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanEvent(rows pgx.Rows) (*PaystackEvent, error) {
	var (
		event       PaystackEvent
		orderID     pgtype.UUID
		processedAt pgtype.Timestamptz
	)
	err := rows.Scan(
		&event.ID, &event.EventID, &event.EventType, &event.Payload,
		&event.Processed, &event.ProcessingAttempts, &event.LastProcessingError,
		&orderID, &event.CreatedAt, &processedAt,
	)
	if err != nil {
		return nil, err
	}
	if orderID.Valid {
		id := uuid.UUID(orderID.Bytes)
		event.OrderID = &id
	}
	if processedAt.Valid {
		event.ProcessedAt = processedAt.Time
	}
	return &event, nil
}
