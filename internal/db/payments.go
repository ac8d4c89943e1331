package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentStore struct {
	pool *pgxpool.Pool
}

func NewPaymentStore(pool *pgxpool.Pool) *PaymentStore {
	return &PaymentStore{pool: pool}
}

// Upsert records a gateway payment attempt keyed by reference. Verification
// and webhook deliveries both land here; later writes refine earlier ones
// without clobbering fields the new payload does not carry.
func (s *PaymentStore) Upsert(ctx context.Context, transaction *PaymentTransaction) error {
	var paidAt pgtype.Timestamptz
	if !transaction.PaidAt.IsZero() {
		paidAt = pgtype.Timestamptz{Time: transaction.PaidAt, Valid: true}
	}

	query := `
		INSERT INTO payment_transactions (
			order_id, reference, gateway_reference, amount_kobo, currency,
			status, gateway_response, channel, fees_kobo, authorization_code, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (reference) DO UPDATE SET
			gateway_reference = CASE WHEN EXCLUDED.gateway_reference <> '' THEN EXCLUDED.gateway_reference ELSE payment_transactions.gateway_reference END,
			status = EXCLUDED.status,
			gateway_response = CASE WHEN EXCLUDED.gateway_response <> '' THEN EXCLUDED.gateway_response ELSE payment_transactions.gateway_response END,
			channel = CASE WHEN EXCLUDED.channel <> '' THEN EXCLUDED.channel ELSE payment_transactions.channel END,
			fees_kobo = CASE WHEN EXCLUDED.fees_kobo > 0 THEN EXCLUDED.fees_kobo ELSE payment_transactions.fees_kobo END,
			authorization_code = CASE WHEN EXCLUDED.authorization_code <> '' THEN EXCLUDED.authorization_code ELSE payment_transactions.authorization_code END,
			paid_at = COALESCE(EXCLUDED.paid_at, payment_transactions.paid_at),
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return s.pool.QueryRow(ctx, query,
		transaction.OrderID, transaction.Reference, transaction.GatewayReference,
		transaction.AmountKobo, transaction.Currency, transaction.Status,
		transaction.GatewayResponse, transaction.Channel, transaction.FeesKobo,
		transaction.AuthorizationCode, paidAt,
	).Scan(&transaction.ID, &transaction.CreatedAt, &transaction.UpdatedAt)
}

func (s *PaymentStore) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*PaymentTransaction, error) {
	query := `
		SELECT id, order_id, reference, gateway_reference, amount_kobo, currency,
		       status, gateway_response, channel, fees_kobo, authorization_code,
		       paid_at, created_at, updated_at
		FROM payment_transactions
		WHERE order_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*PaymentTransaction
	for rows.Next() {
		transaction, err := scanPaymentTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	return transactions, rows.Err()
}

func scanPaymentTransaction(rows pgx.Rows) (*PaymentTransaction, error) {
	var (
		transaction PaymentTransaction
		paidAt      pgtype.Timestamptz
	)
	err := rows.Scan(
		&transaction.ID, &transaction.OrderID, &transaction.Reference, &transaction.GatewayReference,
		&transaction.AmountKobo, &transaction.Currency, &transaction.Status,
		&transaction.GatewayResponse, &transaction.Channel, &transaction.FeesKobo,
		&transaction.AuthorizationCode, &paidAt, &transaction.CreatedAt, &transaction.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		transaction.PaidAt = paidAt.Time
	}
	return &transaction, nil
}
