package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/maviecommerce/mavie/internal/db"
	"github.com/maviecommerce/mavie/internal/logging"
	"github.com/maviecommerce/mavie/internal/models"
	"github.com/maviecommerce/mavie/internal/observability"
	"github.com/maviecommerce/mavie/internal/paystack"
)

// PaymentGateway is the slice of the gateway client the payment flow needs.
type PaymentGateway interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.TransactionData, error)
	RefundTransaction(ctx context.Context, reference string, amountKobo int64) (*paystack.RefundResult, error)
}

// PaymentService drives the gateway leg of an order: opening a checkout
// session, verifying outcomes, and refunds. Settlement of verified outcomes
// is delegated to the order service so the webhook path and this path share
// one set of state transitions.
type PaymentService struct {
	orderStore   *db.OrderStore
	paymentStore *db.PaymentStore
	gateway      PaymentGateway
	orders       *OrderService
	callbackURL  string
	logger       *slog.Logger
}

func NewPaymentService(orderStore *db.OrderStore, paymentStore *db.PaymentStore, gateway PaymentGateway, orders *OrderService, callbackURL string, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		orderStore:   orderStore,
		paymentStore: paymentStore,
		gateway:      gateway,
		orders:       orders,
		callbackURL:  callbackURL,
		logger:       logger,
	}
}

func (s *PaymentService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// InitializeResult is what the frontend needs to hand the customer to the
// gateway checkout page.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Initialize opens a gateway checkout session for a pending order.
func (s *PaymentService) Initialize(ctx context.Context, orderID uuid.UUID) (*InitializeResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.payment.initialize",
		sentry.WithOpName("service.payment"),
		sentry.WithDescription("Initialize"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == models.PaymentSuccess || order.PaymentStatus == models.PaymentRefunded {
		return nil, NewValidationError("order_id", "order is already paid")
	}

	result, err := s.gateway.InitializeTransaction(ctx, paystack.InitializeRequest{
		Email:       order.CustomerEmail,
		AmountKobo:  order.TotalKobo,
		Reference:   order.PaymentReference,
		Currency:    order.Currency,
		CallbackURL: s.callbackURL,
		Metadata: map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
		},
	})
	if err != nil {
		meter.Count("payment.initialize.failed", 1, sentry.WithAttributes(
			attribute.String("reason", initializeFailureReason(err)),
		))
		return nil, fmt.Errorf("failed to initialize gateway transaction: %w", err)
	}

	if err := s.orderStore.SetGatewayDetails(ctx, order.ID, result.Reference, result.AccessCode); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			return nil, NewValidationError("order_id", "order is already paid")
		}
		return nil, fmt.Errorf("failed to record gateway session: %w", err)
	}

	meter.Count("payment.initialized", 1)
	logger.Info("payment initialized", "order_id", order.ID, "reference", order.PaymentReference)
	return &InitializeResult{
		AuthorizationURL: result.AuthorizationURL,
		AccessCode:       result.AccessCode,
		Reference:        result.Reference,
	}, nil
}

// Verify asks the gateway for the authoritative outcome of a reference and
// settles the order accordingly. Safe to call any number of times; the
// customer's return from checkout and the webhook both funnel through the
// same idempotent settlement.
func (s *PaymentService) Verify(ctx context.Context, reference string) (*models.Order, error) {
	span := sentry.StartSpan(
		ctx,
		"service.payment.verify",
		sentry.WithOpName("service.payment"),
		sentry.WithDescription("Verify"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)

	order, err := s.orders.GetByPaymentReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	data, err := s.gateway.VerifyTransaction(ctx, reference)
	if errors.Is(err, paystack.ErrTransactionNotFound) {
		// The gateway never saw this reference, so the customer never
		// reached checkout.
		logger.Info("reference unknown at gateway", "order_id", order.ID, "reference", reference)
		return order, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to verify transaction: %w", err)
	}

	if err := s.settle(ctx, order, data); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, order.ID)
}

// settle routes a verified gateway outcome into the order state machine.
func (s *PaymentService) settle(ctx context.Context, order *models.Order, data *paystack.TransactionData) error {
	switch data.Status {
	case paystack.TransactionSuccess:
		return s.orders.HandleSuccessfulPayment(ctx, order, data)
	case paystack.TransactionFailed:
		return s.orders.HandleFailedPayment(ctx, order, models.PaymentFailed, data.GatewayResponse)
	case paystack.TransactionAbandoned:
		return s.orders.HandleFailedPayment(ctx, order, models.PaymentCancelled, "checkout abandoned")
	default:
		// Still in flight at the gateway. Leave the order alone; a later
		// webhook or verify settles it.
		s.loggerFromContext(ctx).Info("transaction still pending at gateway",
			"order_id", order.ID, "reference", data.Reference, "gateway_status", data.Status)
		return nil
	}
}

// PaymentStatus is the order's payment view for polling clients, including
// the gateway attempts recorded against the order.
type PaymentStatus struct {
	OrderID       uuid.UUID                    `json:"order_id"`
	OrderNumber   string                       `json:"order_number"`
	Reference     string                       `json:"reference"`
	PaymentStatus models.PaymentStatus         `json:"payment_status"`
	TotalKobo     int64                        `json:"total_kobo"`
	PaidKobo      int64                        `json:"paid_kobo"`
	CanRetry      bool                         `json:"can_retry"`
	Transactions  []*models.PaymentTransaction `json:"transactions"`
}

func (s *PaymentService) Status(ctx context.Context, orderID uuid.UUID) (*PaymentStatus, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.paymentStore.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment transactions: %w", err)
	}
	return &PaymentStatus{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Reference:     order.PaymentReference,
		PaymentStatus: order.PaymentStatus,
		TotalKobo:     order.TotalKobo,
		PaidKobo:      order.PaidAmountKobo,
		CanRetry:      order.PaymentStatus == models.PaymentFailed || order.PaymentStatus == models.PaymentCancelled,
		Transactions:  transactions,
	}, nil
}

// Refund refunds a settled order at the gateway, then marks it refunded. A
// zero amount refunds the full paid amount.
func (s *PaymentService) Refund(ctx context.Context, orderID uuid.UUID, amountKobo int64) (*models.Order, error) {
	span := sentry.StartSpan(
		ctx,
		"service.payment.refund",
		sentry.WithOpName("service.payment"),
		sentry.WithDescription("Refund"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != models.PaymentSuccess {
		return nil, NewValidationError("order_id", "only successfully paid orders can be refunded")
	}
	if amountKobo < 0 || amountKobo > order.PaidAmountKobo {
		return nil, NewValidationError("amount_kobo", "refund amount exceeds the paid amount")
	}

	result, err := s.gateway.RefundTransaction(ctx, order.PaymentReference, amountKobo)
	if err != nil {
		meter.Count("payment.refund.failed", 1)
		return nil, fmt.Errorf("failed to refund at gateway: %w", err)
	}

	if err := s.orders.HandleRefund(ctx, order); err != nil {
		return nil, err
	}

	meter.Count("payment.refunded", 1)
	logger.Info("refund issued",
		"order_id", order.ID,
		"reference", order.PaymentReference,
		"refund_status", result.Status,
		"amount_kobo", result.AmountKobo,
	)
	return s.orders.GetByID(ctx, order.ID)
}

func initializeFailureReason(err error) string {
	var apiErr *paystack.APIError
	switch {
	case errors.Is(err, paystack.ErrGatewayUnavailable):
		return "gateway_unavailable"
	case errors.As(err, &apiErr):
		return "gateway_rejected"
	default:
		return "unknown"
	}
}
