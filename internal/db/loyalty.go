package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maviecommerce/mavie/internal/models"
)

var (
	ErrInsufficientPoints = errors.New("insufficient loyalty points")
	ErrAlreadyReversed    = errors.New("loyalty points already reversed for order")
)

type LoyaltyStore struct {
	pool *pgxpool.Pool
}

func NewLoyaltyStore(pool *pgxpool.Pool) *LoyaltyStore {
	return &LoyaltyStore{pool: pool}
}

// GetOrCreate provisions the account on first touch. Concurrent first touches
// race on the unique customer_id and both land on the same row.
func (s *LoyaltyStore) GetOrCreate(ctx context.Context, customerID uuid.UUID) (*LoyaltyAccount, error) {
	insert := `
		INSERT INTO loyalty_accounts (customer_id, tier)
		VALUES ($1, $2)
		ON CONFLICT (customer_id) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, insert, customerID, models.TierBronze); err != nil {
		return nil, err
	}
	return s.GetByCustomer(ctx, customerID)
}

func (s *LoyaltyStore) GetByCustomer(ctx context.Context, customerID uuid.UUID) (*LoyaltyAccount, error) {
	query := `
		SELECT id, customer_id, total_points_earned, total_points_used, current_balance, tier, created_at, updated_at
		FROM loyalty_accounts
		WHERE customer_id = $1
	`
	var account LoyaltyAccount
	err := s.pool.QueryRow(ctx, query, customerID).Scan(
		&account.ID, &account.CustomerID, &account.TotalPointsEarned, &account.TotalPointsUsed,
		&account.CurrentBalance, &account.Tier, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// AddPoints credits the account and writes the ledger entry in one
// transaction. The tier is recomputed from lifetime earned points.
func (s *LoyaltyStore) AddPoints(ctx context.Context, customerID uuid.UUID, points int, txType models.LoyaltyTransactionType, orderID *uuid.UUID, description string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := creditLoyaltyPoints(ctx, tx, customerID, points, txType, orderID, description); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ensureLoyaltyAccount provisions the account inside the caller's transaction.
func ensureLoyaltyAccount(ctx context.Context, tx pgx.Tx, customerID uuid.UUID) error {
	insert := `
		INSERT INTO loyalty_accounts (customer_id, tier)
		VALUES ($1, $2)
		ON CONFLICT (customer_id) DO NOTHING
	`
	_, err := tx.Exec(ctx, insert, customerID, models.TierBronze)
	return err
}

// creditLoyaltyPoints runs the balance credit, tier recompute, and ledger
// entry inside the caller's transaction. The award path shares this with
// AddPoints so the credit commits or rolls back with the order's award flag.
func creditLoyaltyPoints(ctx context.Context, tx pgx.Tx, customerID uuid.UUID, points int, txType models.LoyaltyTransactionType, orderID *uuid.UUID, description string) error {
	if points <= 0 {
		return fmt.Errorf("points must be positive, got %d", points)
	}

	var (
		accountID   uuid.UUID
		totalEarned int
	)
	update := `
		UPDATE loyalty_accounts
		SET total_points_earned = total_points_earned + $1,
		    current_balance = current_balance + $1,
		    updated_at = NOW()
		WHERE customer_id = $2
		RETURNING id, total_points_earned
	`
	if err := tx.QueryRow(ctx, update, points, customerID).Scan(&accountID, &totalEarned); err != nil {
		return err
	}

	tier := models.TierForPoints(totalEarned)
	if _, err := tx.Exec(ctx, `UPDATE loyalty_accounts SET tier = $1 WHERE id = $2`, tier, accountID); err != nil {
		return err
	}

	return insertLedgerEntry(ctx, tx, accountID, txType, points, orderID, description)
}

// UsePoints debits the balance. The balance guard in the WHERE clause makes
// concurrent debits safe: the losing debit affects zero rows.
func (s *LoyaltyStore) UsePoints(ctx context.Context, customerID uuid.UUID, points int, orderID *uuid.UUID, description string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := debitLoyaltyPoints(ctx, tx, customerID, points, orderID, description); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// debitLoyaltyPoints runs the balance-guarded debit plus ledger entry inside
// the caller's transaction. Order creation shares this with UsePoints so the
// debit commits or rolls back with the order row.
func debitLoyaltyPoints(ctx context.Context, tx pgx.Tx, customerID uuid.UUID, points int, orderID *uuid.UUID, description string) error {
	if points <= 0 {
		return fmt.Errorf("points must be positive, got %d", points)
	}

	var accountID uuid.UUID
	update := `
		UPDATE loyalty_accounts
		SET total_points_used = total_points_used + $1,
		    current_balance = current_balance - $1,
		    updated_at = NOW()
		WHERE customer_id = $2 AND current_balance >= $1
		RETURNING id
	`
	err := tx.QueryRow(ctx, update, points, customerID).Scan(&accountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrInsufficientPoints
	}
	if err != nil {
		return err
	}

	return insertLedgerEntry(ctx, tx, accountID, models.LoyaltyUsed, -points, orderID, description)
}

// ReverseUsedPoints restores points debited for an order whose payment later
// failed. The ledger lookup inside the transaction is the dedup guard: one
// reversal per order, no matter how many failure notices arrive.
func (s *LoyaltyStore) ReverseUsedPoints(ctx context.Context, customerID uuid.UUID, points int, orderID uuid.UUID, description string) error {
	if points <= 0 {
		return fmt.Errorf("points must be positive, got %d", points)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	guard := `
		SELECT EXISTS (
			SELECT 1 FROM loyalty_transactions WHERE order_id = $1 AND type = $2
		)
	`
	if err := tx.QueryRow(ctx, guard, orderID, models.LoyaltyReversal).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrAlreadyReversed
	}

	var accountID uuid.UUID
	update := `
		UPDATE loyalty_accounts
		SET total_points_used = total_points_used - $1,
		    current_balance = current_balance + $1,
		    updated_at = NOW()
		WHERE customer_id = $2
		RETURNING id
	`
	if err := tx.QueryRow(ctx, update, points, customerID).Scan(&accountID); err != nil {
		return err
	}

	if err := insertLedgerEntry(ctx, tx, accountID, models.LoyaltyReversal, points, &orderID, description); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *LoyaltyStore) RecentTransactions(ctx context.Context, accountID uuid.UUID, limit int) ([]*LoyaltyTransaction, error) {
	query := `
		SELECT id, account_id, type, points, order_id, description, created_at
		FROM loyalty_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*LoyaltyTransaction
	for rows.Next() {
		var (
			entry   LoyaltyTransaction
			orderID pgtype.UUID
		)
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.Type, &entry.Points, &orderID, &entry.Description, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if orderID.Valid {
			id := uuid.UUID(orderID.Bytes)
			entry.OrderID = &id
		}
		transactions = append(transactions, &entry)
	}
	return transactions, rows.Err()
}

func insertLedgerEntry(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, txType models.LoyaltyTransactionType, points int, orderID *uuid.UUID, description string) error {
	var orderRef pgtype.UUID
	if orderID != nil {
		orderRef = pgtype.UUID{Bytes: *orderID, Valid: true}
	}
	query := `
		INSERT INTO loyalty_transactions (account_id, type, points, order_id, description)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.Exec(ctx, query, accountID, txType, points, orderRef, description)
	return err
}
