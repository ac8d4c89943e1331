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

var ErrInvalidStatusTransition = errors.New("invalid order status transition")

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `
	id, order_number, customer_id,
	customer_email, customer_first_name, customer_last_name, customer_phone,
	shipping_address_line1, shipping_address_line2, shipping_city,
	shipping_state, shipping_postal_code, shipping_country,
	subtotal_kobo, shipping_fee_kobo, tax_kobo, loyalty_discount_kobo, total_kobo, currency,
	payment_status, payment_reference, gateway_reference, gateway_access_code,
	payment_method, paid_amount_kobo, payment_date,
	status, notes, tracking_number,
	loyalty_points_earned, loyalty_points_used, loyalty_points_awarded,
	created_at, updated_at, confirmed_at, shipped_at, delivered_at
`

// Create inserts the order and its item snapshots in one transaction.
func (s *OrderStore) Create(ctx context.Context, order *Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var customerID pgtype.UUID
	if order.CustomerID != nil {
		customerID = pgtype.UUID{Bytes: *order.CustomerID, Valid: true}
	}

	query := `
		INSERT INTO orders (
			order_number, customer_id,
			customer_email, customer_first_name, customer_last_name, customer_phone,
			shipping_address_line1, shipping_address_line2, shipping_city,
			shipping_state, shipping_postal_code, shipping_country,
			subtotal_kobo, shipping_fee_kobo, tax_kobo, loyalty_discount_kobo, total_kobo, currency,
			payment_status, payment_reference, status, notes, loyalty_points_used
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
		)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		order.OrderNumber, customerID,
		order.CustomerEmail, order.CustomerFirstName, order.CustomerLastName, order.CustomerPhone,
		order.ShippingAddressLine1, order.ShippingAddressLine2, order.ShippingCity,
		order.ShippingState, order.ShippingPostalCode, order.ShippingCountry,
		order.SubtotalKobo, order.ShippingFeeKobo, order.TaxKobo, order.LoyaltyDiscountKobo, order.TotalKobo, order.Currency,
		order.PaymentStatus, order.PaymentReference, order.Status, order.Notes, order.LoyaltyPointsUsed,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return err
	}

	if order.LoyaltyPointsUsed > 0 {
		if order.CustomerID == nil {
			return fmt.Errorf("loyalty points require an authenticated customer")
		}
		description := fmt.Sprintf("Redeemed on order %s", order.OrderNumber)
		if err := debitLoyaltyPoints(ctx, tx, *order.CustomerID, order.LoyaltyPointsUsed, &order.ID, description); err != nil {
			return err
		}
	}

	itemQuery := `
		INSERT INTO order_items (
			order_id, product_id, product_name, unit_price_kobo, quantity, color, size, line_total_kobo
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := tx.QueryRow(ctx, itemQuery,
			item.OrderID, item.ProductID, item.ProductName, item.UnitPriceKobo,
			item.Quantity, item.Color, item.Size, item.LineTotalKobo,
		).Scan(&item.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *OrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return s.queryOne(ctx, query, orderID)
}

func (s *OrderStore) GetByPaymentReference(ctx context.Context, reference string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_reference = $1`
	return s.queryOne(ctx, query, reference)
}

// GetByOrderNumber is the guest tracking lookup. The email must match the
// snapshot captured at checkout.
func (s *OrderStore) GetByOrderNumber(ctx context.Context, orderNumber, customerEmail string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1 AND lower(customer_email) = lower($2)`
	return s.queryOne(ctx, query, orderNumber, customerEmail)
}

func (s *OrderStore) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := s.pool.Query(ctx, query, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		if err := s.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// SetGatewayDetails records the gateway handles handed back by transaction
// initialization and moves the payment to processing. Succeeded payments are
// never re-initialized.
func (s *OrderStore) SetGatewayDetails(ctx context.Context, orderID uuid.UUID, gatewayReference, accessCode string) error {
	query := `
		UPDATE orders
		SET payment_status = $1, gateway_reference = $2, gateway_access_code = $3, updated_at = NOW()
		WHERE id = $4 AND payment_status NOT IN ('success', 'refunded')
	`
	cmdTag, err := s.pool.Exec(ctx, query, PaymentProcessing, gatewayReference, accessCode, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment already settled", ErrInvalidStatusTransition)
	}
	return nil
}

type PaymentSuccessParams struct {
	PaidAmountKobo   int64
	PaymentMethod    string
	GatewayReference string
}

// MarkPaymentSucceeded claims the success transition. The WHERE clause is the
// idempotency guard: a second settlement of the same order affects zero rows
// and reports ErrInvalidStatusTransition, which callers treat as already done.
func (s *OrderStore) MarkPaymentSucceeded(ctx context.Context, orderID uuid.UUID, params PaymentSuccessParams) error {
	query := `
		UPDATE orders
		SET payment_status = $1,
		    status = CASE WHEN status = 'pending' THEN 'paid' ELSE status END,
		    paid_amount_kobo = $2,
		    payment_method = $3,
		    gateway_reference = CASE WHEN $4 <> '' THEN $4 ELSE gateway_reference END,
		    payment_date = NOW(),
		    updated_at = NOW()
		WHERE id = $5 AND payment_status <> 'success' AND payment_status <> 'refunded'
	`
	cmdTag, err := s.pool.Exec(ctx, query,
		PaymentSuccess, params.PaidAmountKobo, params.PaymentMethod, params.GatewayReference, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment already settled", ErrInvalidStatusTransition)
	}
	return nil
}

// MarkPaymentFailed records a failed or abandoned attempt. Settled payments
// are protected by the guard; repeated failure notices are a no-op at the
// service layer but an error here so callers can tell the cases apart.
func (s *OrderStore) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, to PaymentStatus, reason string) error {
	query := `
		UPDATE orders
		SET payment_status = $1,
		    status = CASE WHEN status = 'pending' THEN 'failed' ELSE status END,
		    notes = CASE WHEN $2 <> '' THEN $2 ELSE notes END,
		    updated_at = NOW()
		WHERE id = $3 AND payment_status NOT IN ('success', 'refunded')
	`
	cmdTag, err := s.pool.Exec(ctx, query, to, reason, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment already settled", ErrInvalidStatusTransition)
	}
	return nil
}

// MarkRefunded moves a settled payment to refunded.
func (s *OrderStore) MarkRefunded(ctx context.Context, orderID uuid.UUID) error {
	query := `
		UPDATE orders
		SET payment_status = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND payment_status = 'success'
	`
	cmdTag, err := s.pool.Exec(ctx, query, PaymentRefunded, StatusRefunded, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected success", ErrInvalidStatusTransition)
	}
	return nil
}

// AwardLoyaltyPoints flips the one-shot award flag and credits the loyalty
// account in the same transaction: the order can never claim points were
// awarded while the account and ledger miss the earn entry. Zero rows on the
// flag claim means another worker already awarded points for this order.
func (s *OrderStore) AwardLoyaltyPoints(ctx context.Context, orderID, customerID uuid.UUID, points int, description string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	claim := `
		UPDATE orders
		SET loyalty_points_awarded = TRUE, loyalty_points_earned = $1, updated_at = NOW()
		WHERE id = $2 AND loyalty_points_awarded = FALSE AND payment_status = 'success'
	`
	cmdTag, err := tx.Exec(ctx, claim, points, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: points already awarded or payment not settled", ErrInvalidStatusTransition)
	}

	if err := ensureLoyaltyAccount(ctx, tx, customerID); err != nil {
		return err
	}
	if err := creditLoyaltyPoints(ctx, tx, customerID, points, models.LoyaltyEarned, &orderID, description); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateFulfillmentStatus moves the order between fulfillment states. The
// caller supplies the states the transition is legal from; milestone
// timestamps keep their first value on replays.
func (s *OrderStore) UpdateFulfillmentStatus(ctx context.Context, orderID uuid.UUID, from []OrderStatus, to OrderStatus, trackingNumber string) error {
	fromStatuses := make([]string, len(from))
	for i, status := range from {
		fromStatuses[i] = string(status)
	}

	query := `
		UPDATE orders
		SET status = $1,
		    tracking_number = CASE WHEN $2 <> '' THEN $2 ELSE tracking_number END,
		    confirmed_at = CASE WHEN $1 = 'confirmed' THEN COALESCE(confirmed_at, NOW()) ELSE confirmed_at END,
		    shipped_at = CASE WHEN $1 = 'shipped' THEN COALESCE(shipped_at, NOW()) ELSE shipped_at END,
		    delivered_at = CASE WHEN $1 = 'delivered' THEN COALESCE(delivered_at, NOW()) ELSE delivered_at END,
		    updated_at = NOW()
		WHERE id = $3 AND status = ANY($4)
	`
	cmdTag, err := s.pool.Exec(ctx, query, to, trackingNumber, orderID, fromStatuses)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected one of %v", ErrInvalidStatusTransition, fromStatuses)
	}
	return nil
}

func (s *OrderStore) queryOne(ctx context.Context, query string, args ...any) (*Order, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	order, err := scanOrder(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()

	if err := s.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderStore) loadItems(ctx context.Context, order *Order) error {
	query := `
		SELECT id, order_id, product_id, product_name, unit_price_kobo, quantity, color, size, line_total_kobo
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_name
	`
	rows, err := s.pool.Query(ctx, query, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.Items = nil
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.UnitPriceKobo, &item.Quantity, &item.Color, &item.Size, &item.LineTotalKobo,
		); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func scanOrder(rows pgx.Rows) (*Order, error) {
	var (
		order       Order
		customerID  pgtype.UUID
		paymentDate pgtype.Timestamptz
		confirmedAt pgtype.Timestamptz
		shippedAt   pgtype.Timestamptz
		deliveredAt pgtype.Timestamptz
	)

	err := rows.Scan(
		&order.ID, &order.OrderNumber, &customerID,
		&order.CustomerEmail, &order.CustomerFirstName, &order.CustomerLastName, &order.CustomerPhone,
		&order.ShippingAddressLine1, &order.ShippingAddressLine2, &order.ShippingCity,
		&order.ShippingState, &order.ShippingPostalCode, &order.ShippingCountry,
		&order.SubtotalKobo, &order.ShippingFeeKobo, &order.TaxKobo, &order.LoyaltyDiscountKobo, &order.TotalKobo, &order.Currency,
		&order.PaymentStatus, &order.PaymentReference, &order.GatewayReference, &order.GatewayAccessCode,
		&order.PaymentMethod, &order.PaidAmountKobo, &paymentDate,
		&order.Status, &order.Notes, &order.TrackingNumber,
		&order.LoyaltyPointsEarned, &order.LoyaltyPointsUsed, &order.LoyaltyPointsAwarded,
		&order.CreatedAt, &order.UpdatedAt, &confirmedAt, &shippedAt, &deliveredAt,
	)
	if err != nil {
		return nil, err
	}

	if customerID.Valid {
		id := uuid.UUID(customerID.Bytes)
		order.CustomerID = &id
	}
	if paymentDate.Valid {
		order.PaymentDate = paymentDate.Time
	}
	if confirmedAt.Valid {
		order.ConfirmedAt = confirmedAt.Time
	}
	if shippedAt.Valid {
		order.ShippedAt = shippedAt.Time
	}
	if deliveredAt.Valid {
		order.DeliveredAt = deliveredAt.Time
	}

	return &order, nil
}
