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

// EventRegistry is the slice of the event store the pipeline mutates.
type EventRegistry interface {
	ClaimForProcessing(ctx context.Context, id uuid.UUID) (int, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, orderID *uuid.UUID) error
	RecordError(ctx context.Context, id uuid.UUID, message string) error
}

// GatewayVerifier fetches the authoritative transaction state.
type GatewayVerifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.TransactionData, error)
}

// OrderSettler applies verified payment outcomes to orders.
type OrderSettler interface {
	GetByPaymentReference(ctx context.Context, reference string) (*models.Order, error)
	HandleSuccessfulPayment(ctx context.Context, order *models.Order, data *paystack.TransactionData) error
	HandleFailedPayment(ctx context.Context, order *models.Order, to models.PaymentStatus, reason string) error
	HandleRefund(ctx context.Context, order *models.Order) error
}

// WebhookService processes stored gateway events. Webhook payloads are
// treated as hints only: every settlement decision comes from a verify call
// against the gateway, so a forged or stale payload cannot move money state.
type WebhookService struct {
	events   EventRegistry
	verifier GatewayVerifier
	orders   OrderSettler
	logger   *slog.Logger
}

func NewWebhookService(events EventRegistry, verifier GatewayVerifier, orders OrderSettler, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		events:   events,
		verifier: verifier,
		orders:   orders,
		logger:   logger,
	}
}

func (s *WebhookService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// ProcessEvent runs one event through the pipeline. A nil return means the
// event reached a terminal state and is marked processed; a non-nil return
// means a retryable failure was recorded and the event stays queued.
func (s *WebhookService) ProcessEvent(ctx context.Context, event *models.PaystackEvent) error {
	span := sentry.StartSpan(
		ctx,
		"service.webhook.process_event",
		sentry.WithOpName("service.webhook"),
		sentry.WithDescription("ProcessEvent"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx).With("event_id", event.EventID, "event_type", event.EventType)
	meter := observability.MeterFromContext(ctx)

	attempt, err := s.events.ClaimForProcessing(ctx, event.ID)
	if errors.Is(err, db.ErrEventAlreadyProcessed) {
		logger.Info("event already processed, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to claim event: %w", err)
	}
	logger = logger.With("attempt", attempt)

	err = s.processClaimed(ctx, logger, event)
	if err == nil {
		meter.Count("webhook.event.processed", 1, sentry.WithAttributes(
			attribute.String("event_type", event.EventType),
		))
		return nil
	}

	meter.Count("webhook.event.retry", 1, sentry.WithAttributes(
		attribute.String("event_type", event.EventType),
	))
	logger.Warn("event processing failed, will retry", "error", err)
	if recordErr := s.events.RecordError(ctx, event.ID, err.Error()); recordErr != nil {
		logger.Error("failed to record event error", "error", recordErr)
	}
	return err
}

// processClaimed holds the terminal-vs-retryable decision tree. Terminal
// outcomes mark the event processed and return nil even when the payload
// itself was unusable; only gateway unavailability propagates for retry.
func (s *WebhookService) processClaimed(ctx context.Context, logger *slog.Logger, event *models.PaystackEvent) error {
	parsed, hint, err := paystack.ParseEvent(event.Payload)
	if err != nil {
		// A payload that never parses will never parse. Dead-letter it as
		// processed so the sweep stops retrying.
		logger.Error("unparseable event payload, dropping", "error", err)
		return s.events.MarkProcessed(ctx, event.ID, nil)
	}

	order, err := s.orders.GetByPaymentReference(ctx, hint.Reference)
	if errors.Is(err, ErrNotFound) {
		// References are minted at order creation, so an unknown one is not
		// ours. Terminal.
		logger.Info("no order for payment reference, dropping", "reference", hint.Reference)
		return s.events.MarkProcessed(ctx, event.ID, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to look up order: %w", err)
	}
	logger = logger.With("order_id", order.ID, "reference", order.PaymentReference)

	data, err := s.verifier.VerifyTransaction(ctx, hint.Reference)
	if errors.Is(err, paystack.ErrTransactionNotFound) {
		// The gateway disowns a reference it claims to have notified us
		// about. Record the order linkage but settle nothing.
		logger.Warn("gateway does not recognize the reference it sent an event for")
		return s.events.MarkProcessed(ctx, event.ID, &order.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to verify transaction: %w", err)
	}

	if err := s.settleVerified(ctx, logger, parsed, order, data); err != nil {
		return err
	}
	return s.events.MarkProcessed(ctx, event.ID, &order.ID)
}

// settleVerified routes on the verified status, not on the event type the
// webhook claimed. A charge.success event whose verification comes back
// failed settles as a failure.
func (s *WebhookService) settleVerified(ctx context.Context, logger *slog.Logger, parsed *paystack.Event, order *models.Order, data *paystack.TransactionData) error {
	if claimedOutcome(parsed.Event) != "" && claimedOutcome(parsed.Event) != data.Status {
		logger.Warn("event type disagrees with verified status",
			"claimed", parsed.Event, "verified", data.Status)
		observability.MeterFromContext(ctx).Count("webhook.verify_mismatch", 1, sentry.WithAttributes(
			attribute.String("event_type", parsed.Event),
		))
	}

	switch data.Status {
	case paystack.TransactionSuccess:
		if parsed.Event == paystack.EventRefundProcessed {
			return s.orders.HandleRefund(ctx, order)
		}
		return s.orders.HandleSuccessfulPayment(ctx, order, data)
	case paystack.TransactionFailed:
		return s.orders.HandleFailedPayment(ctx, order, models.PaymentFailed, data.GatewayResponse)
	case paystack.TransactionAbandoned:
		return s.orders.HandleFailedPayment(ctx, order, models.PaymentCancelled, "checkout abandoned")
	default:
		// Pending at the gateway. Terminal for this event; a later event or
		// verify carries the final outcome.
		logger.Info("verified status still pending, nothing to settle", "verified", data.Status)
		return nil
	}
}

// claimedOutcome maps a webhook event type to the verified status it implies,
// or "" when the type carries no settlement claim.
func claimedOutcome(eventType string) string {
	switch eventType {
	case paystack.EventChargeSuccess, paystack.EventRefundProcessed:
		return paystack.TransactionSuccess
	case paystack.EventChargeFailed:
		return paystack.TransactionFailed
	default:
		return ""
	}
}
