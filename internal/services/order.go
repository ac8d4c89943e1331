package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maviecommerce/mavie/internal/crypto"
	"github.com/maviecommerce/mavie/internal/db"
	"github.com/maviecommerce/mavie/internal/logging"
	"github.com/maviecommerce/mavie/internal/models"
	"github.com/maviecommerce/mavie/internal/observability"
	"github.com/maviecommerce/mavie/internal/paystack"
)

// OrderStore is the slice of order persistence the service needs. The store's
// conditional updates carry the idempotency guarantees; the service only
// interprets their zero-row outcomes.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetByPaymentReference(ctx context.Context, reference string) (*models.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber, customerEmail string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]*models.Order, error)
	MarkPaymentSucceeded(ctx context.Context, orderID uuid.UUID, params db.PaymentSuccessParams) error
	MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, to models.PaymentStatus, reason string) error
	MarkRefunded(ctx context.Context, orderID uuid.UUID) error
	AwardLoyaltyPoints(ctx context.Context, orderID, customerID uuid.UUID, points int, description string) error
	UpdateFulfillmentStatus(ctx context.Context, orderID uuid.UUID, from []models.OrderStatus, to models.OrderStatus, trackingNumber string) error
}

// ProductCatalog resolves cart items against the live catalog.
type ProductCatalog interface {
	GetActiveByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
}

// LoyaltyLedger is the loyalty surface the order lifecycle touches.
type LoyaltyLedger interface {
	GetOrCreate(ctx context.Context, customerID uuid.UUID) (*models.LoyaltyAccount, error)
	ReverseUsedPoints(ctx context.Context, customerID uuid.UUID, points int, orderID uuid.UUID, description string) error
}

// TransactionRecorder persists what the gateway reported for an attempt.
type TransactionRecorder interface {
	Upsert(ctx context.Context, transaction *models.PaymentTransaction) error
}

// OrderService owns the order lifecycle: checkout, settlement of gateway
// outcomes, loyalty side effects, and fulfillment transitions.
type OrderService struct {
	orderStore   OrderStore
	productStore ProductCatalog
	loyaltyStore LoyaltyLedger
	paymentStore TransactionRecorder
	encryptor    crypto.Encryptor
	emailSender  OrderEmailSender
	logger       *slog.Logger
}

func NewOrderService(orderStore OrderStore, productStore ProductCatalog, loyaltyStore LoyaltyLedger, paymentStore TransactionRecorder, encryptor crypto.Encryptor, emailSender OrderEmailSender, logger *slog.Logger) *OrderService {
	if emailSender == nil {
		emailSender = noopOrderEmailSender{}
	}

	return &OrderService{
		orderStore:   orderStore,
		productStore: productStore,
		loyaltyStore: loyaltyStore,
		paymentStore: paymentStore,
		encryptor:    encryptor,
		emailSender:  emailSender,
		logger:       logger,
	}
}

func (s *OrderService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type CreateOrderItemInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Color     string    `json:"color"`
	Size      string    `json:"size"`
}

type CreateOrderInput struct {
	CustomerID *uuid.UUID `json:"-"`

	CustomerEmail     string `json:"customer_email"`
	CustomerFirstName string `json:"customer_first_name"`
	CustomerLastName  string `json:"customer_last_name"`
	CustomerPhone     string `json:"customer_phone"`

	ShippingAddressLine1 string `json:"shipping_address_line1"`
	ShippingAddressLine2 string `json:"shipping_address_line2"`
	ShippingCity         string `json:"shipping_city"`
	ShippingState        string `json:"shipping_state"`
	ShippingPostalCode   string `json:"shipping_postal_code"`
	ShippingCountry      string `json:"shipping_country"`

	Items             []CreateOrderItemInput `json:"items"`
	UseLoyaltyPoints  int                    `json:"use_loyalty_points"`
	Notes             string                 `json:"notes"`
}

// Create validates the cart against the live catalog, prices it with current
// prices, and persists the order. A loyalty debit, when requested, commits in
// the same transaction as the order row.
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	span := sentry.StartSpan(
		ctx,
		"service.order.create",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("Create"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	recordFailure := func(reason string) {
		meter.Count("order.create.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}
	meter.Count("order.create.received", 1)

	if err := validateCreateOrderInput(input); err != nil {
		recordFailure("invalid_input")
		return nil, err
	}

	items, subtotal, err := s.buildOrderItems(ctx, input.Items)
	if err != nil {
		recordFailure("invalid_items")
		return nil, err
	}

	if input.UseLoyaltyPoints > 0 {
		if err := s.checkLoyaltyRedemption(ctx, input.CustomerID, input.UseLoyaltyPoints, subtotal); err != nil {
			recordFailure("loyalty_redemption_rejected")
			return nil, err
		}
	}

	breakdown := ComputeTotals(subtotal, input.UseLoyaltyPoints)

	order := &models.Order{
		OrderNumber: generateOrderNumber(),
		CustomerID:  input.CustomerID,

		CustomerEmail:     strings.TrimSpace(input.CustomerEmail),
		CustomerFirstName: strings.TrimSpace(input.CustomerFirstName),
		CustomerLastName:  strings.TrimSpace(input.CustomerLastName),
		CustomerPhone:     strings.TrimSpace(input.CustomerPhone),

		ShippingAddressLine1: strings.TrimSpace(input.ShippingAddressLine1),
		ShippingAddressLine2: strings.TrimSpace(input.ShippingAddressLine2),
		ShippingCity:         strings.TrimSpace(input.ShippingCity),
		ShippingState:        strings.TrimSpace(input.ShippingState),
		ShippingPostalCode:   strings.TrimSpace(input.ShippingPostalCode),
		ShippingCountry:      strings.TrimSpace(input.ShippingCountry),

		SubtotalKobo:        breakdown.SubtotalKobo,
		ShippingFeeKobo:     breakdown.ShippingFeeKobo,
		TaxKobo:             breakdown.TaxKobo,
		LoyaltyDiscountKobo: breakdown.LoyaltyDiscountKobo,
		TotalKobo:           breakdown.TotalKobo,
		Currency:            "NGN",

		PaymentStatus:    models.PaymentPending,
		PaymentReference: generatePaymentReference(),
		Status:           models.StatusPending,
		Notes:            strings.TrimSpace(input.Notes),

		LoyaltyPointsUsed: input.UseLoyaltyPoints,
		Items:             items,
	}

	if err := s.orderStore.Create(ctx, order); err != nil {
		if errors.Is(err, db.ErrInsufficientPoints) {
			recordFailure("insufficient_points")
			return nil, NewValidationError("use_loyalty_points", "insufficient loyalty point balance")
		}
		recordFailure("store_error")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	meter.Count("order.created", 1)
	logger.Info("order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"total_kobo", order.TotalKobo,
		"loyalty_points_used", order.LoyaltyPointsUsed,
	)
	return order, nil
}

// OrderQuote is a priced cart plus the incentives the customer would get by
// completing or growing it.
type OrderQuote struct {
	PricingBreakdown
	PotentialPoints           int   `json:"potential_points"`
	FreeShippingRemainingKobo int64 `json:"free_shipping_remaining_kobo"`
}

// Quote prices a cart without persisting anything.
func (s *OrderService) Quote(ctx context.Context, items []CreateOrderItemInput, useLoyaltyPoints int) (*OrderQuote, error) {
	_, subtotal, err := s.buildOrderItems(ctx, items)
	if err != nil {
		return nil, err
	}
	if useLoyaltyPoints > 0 && LoyaltyDiscountKobo(useLoyaltyPoints) > subtotal {
		return nil, NewValidationError("use_loyalty_points", "discount cannot exceed the order subtotal")
	}

	quote := &OrderQuote{
		PricingBreakdown: ComputeTotals(subtotal, useLoyaltyPoints),
		PotentialPoints:  EarnedPoints(subtotal),
	}
	if subtotal < FreeShippingThresholdKobo {
		quote.FreeShippingRemainingKobo = FreeShippingThresholdKobo - subtotal
	}
	return quote, nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orderStore.GetByID(ctx, orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (s *OrderService) GetByPaymentReference(ctx context.Context, reference string) (*models.Order, error) {
	order, err := s.orderStore.GetByPaymentReference(ctx, reference)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order by reference: %w", err)
	}
	return order, nil
}

// Track is the guest-facing lookup by order number and matching email.
func (s *OrderService) Track(ctx context.Context, orderNumber, customerEmail string) (*models.Order, error) {
	if strings.TrimSpace(orderNumber) == "" || strings.TrimSpace(customerEmail) == "" {
		return nil, NewValidationError("order_number", "order number and email are required")
	}
	order, err := s.orderStore.GetByOrderNumber(ctx, strings.TrimSpace(orderNumber), strings.TrimSpace(customerEmail))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to track order: %w", err)
	}
	return order, nil
}

func (s *OrderService) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]*models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	orders, err := s.orderStore.ListByCustomer(ctx, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// fulfillmentTransitions maps each reachable fulfillment state to the states
// it may be entered from.
var fulfillmentTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusConfirmed:  {models.StatusPaid},
	models.StatusProcessing: {models.StatusPaid, models.StatusConfirmed},
	models.StatusShipped:    {models.StatusPaid, models.StatusConfirmed, models.StatusProcessing},
	models.StatusDelivered:  {models.StatusShipped},
	models.StatusCancelled:  {models.StatusPending, models.StatusFailed, models.StatusPaid, models.StatusConfirmed, models.StatusProcessing},
}

// UpdateFulfillmentStatus moves an order through the fulfillment flow.
// Milestone timestamps are first-write-wins; a replayed transition fails with
// ErrInvalidStatusTransition rather than rewriting history.
func (s *OrderService) UpdateFulfillmentStatus(ctx context.Context, orderID uuid.UUID, newStatus, trackingNumber string) (*models.Order, error) {
	logger := s.loggerFromContext(ctx)

	if !models.ValidOrderStatus(newStatus) {
		return nil, NewValidationError("status", fmt.Sprintf("unknown status %q", newStatus))
	}
	to := models.OrderStatus(newStatus)
	from, ok := fulfillmentTransitions[to]
	if !ok {
		return nil, NewValidationError("status", fmt.Sprintf("status %q cannot be set directly", newStatus))
	}

	if err := s.orderStore.UpdateFulfillmentStatus(ctx, orderID, from, to, strings.TrimSpace(trackingNumber)); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update fulfillment status: %w", err)
	}

	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if to == models.StatusShipped {
		if err := s.emailSender.SendOrderShipped(ctx, order); err != nil {
			logger.Error("failed to send order shipped email", "error", err, "order_id", orderID)
		}
	}

	logger.Info("fulfillment status updated", "order_id", orderID, "status", to)
	return order, nil
}

// HandleSuccessfulPayment settles a verified successful payment. Idempotent:
// an already-settled order only re-checks the loyalty award, which the
// one-shot award flag protects from double-crediting. A failed award surfaces
// as an error so the caller retries the event.
func (s *OrderService) HandleSuccessfulPayment(ctx context.Context, order *models.Order, data *paystack.TransactionData) error {
	span := sentry.StartSpan(
		ctx,
		"service.order.handle_successful_payment",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("HandleSuccessfulPayment"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	s.recordPaymentTransaction(ctx, order, data)

	if data.AmountKobo != order.TotalKobo {
		logger.Warn("gateway amount differs from order total",
			"order_id", order.ID,
			"order_total_kobo", order.TotalKobo,
			"gateway_amount_kobo", data.AmountKobo,
		)
		meter.Count("payment.amount_mismatch", 1)
	}

	err := s.orderStore.MarkPaymentSucceeded(ctx, order.ID, db.PaymentSuccessParams{
		PaidAmountKobo:   data.AmountKobo,
		PaymentMethod:    data.Channel,
		GatewayReference: fmt.Sprintf("%d", data.ID),
	})
	if errors.Is(err, db.ErrInvalidStatusTransition) {
		logger.Info("payment already settled, skipping", "order_id", order.ID, "reference", order.PaymentReference)
		// An earlier settlement attempt may have failed between the status
		// flip and the loyalty credit. The award flag decides whether
		// anything is still owed.
		return s.AwardLoyaltyPoints(ctx, order)
	}
	if err != nil {
		return fmt.Errorf("failed to mark payment succeeded: %w", err)
	}
	meter.Count("payment.settled", 1, sentry.WithAttributes(
		attribute.String("outcome", "success"),
	))

	if err := s.AwardLoyaltyPoints(ctx, order); err != nil {
		return err
	}

	settled, err := s.GetByID(ctx, order.ID)
	if err != nil {
		logger.Error("failed to reload settled order", "error", err, "order_id", order.ID)
		settled = order
	}
	if err := s.emailSender.SendPaymentConfirmation(ctx, settled); err != nil {
		logger.Error("failed to send payment confirmation email", "error", err, "order_id", order.ID)
	}

	logger.Info("payment settled", "order_id", order.ID, "reference", order.PaymentReference, "amount_kobo", data.AmountKobo)
	return nil
}

// HandleFailedPayment settles a failed or abandoned payment. Idempotent: a
// repeated failure notice is a no-op, and the loyalty reversal is deduplicated
// by the reversal-exists ledger check.
func (s *OrderService) HandleFailedPayment(ctx context.Context, order *models.Order, to models.PaymentStatus, reason string) error {
	span := sentry.StartSpan(
		ctx,
		"service.order.handle_failed_payment",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("HandleFailedPayment"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	if to != models.PaymentFailed && to != models.PaymentCancelled {
		return fmt.Errorf("invalid failure status %q", to)
	}

	alreadyFailed := order.PaymentStatus == to

	err := s.orderStore.MarkPaymentFailed(ctx, order.ID, to, reason)
	if errors.Is(err, db.ErrInvalidStatusTransition) {
		logger.Info("payment already settled, ignoring failure notice", "order_id", order.ID, "reference", order.PaymentReference)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}
	meter.Count("payment.settled", 1, sentry.WithAttributes(
		attribute.String("outcome", string(to)),
	))

	if order.LoyaltyPointsUsed > 0 && order.CustomerID != nil {
		description := fmt.Sprintf("Reversal for failed payment on order %s", order.OrderNumber)
		reverseErr := s.loyaltyStore.ReverseUsedPoints(ctx, *order.CustomerID, order.LoyaltyPointsUsed, order.ID, description)
		if errors.Is(reverseErr, db.ErrAlreadyReversed) {
			logger.Info("loyalty points already reversed", "order_id", order.ID)
		} else if reverseErr != nil {
			logger.Error("failed to reverse loyalty points", "error", reverseErr, "order_id", order.ID)
			return fmt.Errorf("failed to reverse loyalty points: %w", reverseErr)
		}
	}

	if !alreadyFailed {
		if err := s.emailSender.SendPaymentFailed(ctx, order, reason); err != nil {
			logger.Error("failed to send payment failed email", "error", err, "order_id", order.ID)
		}
	}

	logger.Info("payment failure settled", "order_id", order.ID, "payment_status", to, "reason", reason)
	return nil
}

// HandleRefund marks a settled order refunded after the gateway confirms it.
func (s *OrderService) HandleRefund(ctx context.Context, order *models.Order) error {
	logger := s.loggerFromContext(ctx)

	err := s.orderStore.MarkRefunded(ctx, order.ID)
	if errors.Is(err, db.ErrInvalidStatusTransition) {
		logger.Info("refund notice for unsettled or already refunded order, skipping", "order_id", order.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to mark order refunded: %w", err)
	}

	logger.Info("order refunded", "order_id", order.ID, "reference", order.PaymentReference)
	return nil
}

// AwardLoyaltyPoints credits earn points exactly once per order. The claim on
// the award flag and the account credit commit in one store transaction, so a
// duplicate invocation can never double-award and a failed credit releases
// the claim for the next retry.
func (s *OrderService) AwardLoyaltyPoints(ctx context.Context, order *models.Order) error {
	logger := s.loggerFromContext(ctx)

	if order.CustomerID == nil {
		return nil
	}
	points := EarnedPoints(order.SubtotalKobo)
	if points <= 0 {
		return nil
	}

	description := fmt.Sprintf("Earned on order %s", order.OrderNumber)
	err := s.orderStore.AwardLoyaltyPoints(ctx, order.ID, *order.CustomerID, points, description)
	if errors.Is(err, db.ErrInvalidStatusTransition) {
		logger.Info("loyalty points already awarded, skipping", "order_id", order.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to award loyalty points: %w", err)
	}

	logger.Info("loyalty points awarded", "order_id", order.ID, "points", points)
	return nil
}

func (s *OrderService) recordPaymentTransaction(ctx context.Context, order *models.Order, data *paystack.TransactionData) {
	logger := s.loggerFromContext(ctx)

	authCode := data.Authorization.AuthorizationCode
	if authCode != "" && s.encryptor != nil {
		encrypted, err := s.encryptor.Encrypt(authCode)
		if err != nil {
			logger.Error("failed to encrypt authorization code", "error", err, "order_id", order.ID)
			authCode = ""
		} else {
			authCode = encrypted
		}
	}

	transaction := &models.PaymentTransaction{
		OrderID:           order.ID,
		Reference:         order.PaymentReference,
		GatewayReference:  fmt.Sprintf("%d", data.ID),
		AmountKobo:        data.AmountKobo,
		Currency:          data.Currency,
		Status:            transactionStatusFromGateway(data.Status),
		GatewayResponse:   data.GatewayResponse,
		Channel:           data.Channel,
		FeesKobo:          data.FeesKobo,
		AuthorizationCode: authCode,
	}
	if data.PaidAt != nil {
		transaction.PaidAt = *data.PaidAt
	}

	if err := s.paymentStore.Upsert(ctx, transaction); err != nil {
		logger.Error("failed to record payment transaction", "error", err, "order_id", order.ID, "reference", order.PaymentReference)
	}
}

func transactionStatusFromGateway(status string) models.PaymentTransactionStatus {
	switch status {
	case paystack.TransactionSuccess:
		return models.TransactionSuccess
	case paystack.TransactionFailed:
		return models.TransactionFailed
	case paystack.TransactionAbandoned:
		return models.TransactionAbandoned
	default:
		return models.TransactionPending
	}
}

func (s *OrderService) buildOrderItems(ctx context.Context, inputs []CreateOrderItemInput) ([]models.OrderItem, int64, error) {
	if len(inputs) == 0 {
		return nil, 0, NewValidationError("items", "at least one item is required")
	}

	ids := make([]uuid.UUID, 0, len(inputs))
	for _, input := range inputs {
		ids = append(ids, input.ProductID)
	}

	products, err := s.productStore.GetActiveByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load products: %w", err)
	}

	validationErr := &ValidationError{}
	items := make([]models.OrderItem, 0, len(inputs))
	var subtotal int64

	for i, input := range inputs {
		field := fmt.Sprintf("items[%d]", i)
		product, ok := products[input.ProductID]
		if !ok {
			validationErr.Add(field, "product not found or inactive")
			continue
		}
		if input.Quantity <= 0 {
			validationErr.Add(field, "quantity must be positive")
			continue
		}
		if input.Color != "" && !containsString(product.Colors, input.Color) {
			validationErr.Add(field, fmt.Sprintf("color %q not available for %s", input.Color, product.Name))
			continue
		}
		if input.Size != "" && !containsString(product.Sizes, input.Size) {
			validationErr.Add(field, fmt.Sprintf("size %q not available for %s", input.Size, product.Name))
			continue
		}

		lineTotal := product.PriceKobo * int64(input.Quantity)
		items = append(items, models.OrderItem{
			ProductID:     product.ID,
			ProductName:   product.Name,
			UnitPriceKobo: product.PriceKobo,
			Quantity:      input.Quantity,
			Color:         input.Color,
			Size:          input.Size,
			LineTotalKobo: lineTotal,
		})
		subtotal += lineTotal
	}

	if !validationErr.Empty() {
		return nil, 0, validationErr
	}
	return items, subtotal, nil
}

func (s *OrderService) checkLoyaltyRedemption(ctx context.Context, customerID *uuid.UUID, points int, subtotalKobo int64) error {
	if customerID == nil {
		return NewValidationError("use_loyalty_points", "loyalty points require an authenticated customer")
	}
	if LoyaltyDiscountKobo(points) > subtotalKobo {
		return NewValidationError("use_loyalty_points", "discount cannot exceed the order subtotal")
	}

	account, err := s.loyaltyStore.GetOrCreate(ctx, *customerID)
	if err != nil {
		return fmt.Errorf("failed to load loyalty account: %w", err)
	}
	if account.CurrentBalance < points {
		return NewValidationError("use_loyalty_points",
			fmt.Sprintf("insufficient balance: requested %d, available %d", points, account.CurrentBalance))
	}
	return nil
}

func validateCreateOrderInput(input CreateOrderInput) error {
	validationErr := &ValidationError{}

	email := strings.TrimSpace(input.CustomerEmail)
	if email == "" || !strings.Contains(email, "@") {
		validationErr.Add("customer_email", "a valid email address is required")
	}
	if strings.TrimSpace(input.CustomerFirstName) == "" {
		validationErr.Add("customer_first_name", "first name is required")
	}
	if strings.TrimSpace(input.CustomerLastName) == "" {
		validationErr.Add("customer_last_name", "last name is required")
	}
	if strings.TrimSpace(input.ShippingAddressLine1) == "" {
		validationErr.Add("shipping_address_line1", "address is required")
	}
	if strings.TrimSpace(input.ShippingCity) == "" {
		validationErr.Add("shipping_city", "city is required")
	}
	if strings.TrimSpace(input.ShippingState) == "" {
		validationErr.Add("shipping_state", "state is required")
	}
	if strings.TrimSpace(input.ShippingCountry) == "" {
		validationErr.Add("shipping_country", "country is required")
	}
	if input.UseLoyaltyPoints < 0 {
		validationErr.Add("use_loyalty_points", "must not be negative")
	}

	if !validationErr.Empty() {
		return validationErr
	}
	return nil
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// generateOrderNumber builds the customer-facing order number, e.g.
// MV-20260830-1A2B3C.
func generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("MV-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}

// generatePaymentReference builds the gateway correlation key. Unique per
// order, opaque to customers.
func generatePaymentReference() string {
	return "MVPAY-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
