package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/maviecommerce/mavie/internal/db"
	"github.com/maviecommerce/mavie/internal/models"
	"github.com/maviecommerce/mavie/internal/paystack"
)

type fakeEventRegistry struct {
	claimErr  error
	attempt   int
	processed bool
	recorded  string
	orderID   *uuid.UUID
}

func (f *fakeEventRegistry) ClaimForProcessing(ctx context.Context, id uuid.UUID) (int, error) {
	if f.claimErr != nil {
		return 0, f.claimErr
	}
	f.attempt++
	return f.attempt, nil
}

func (f *fakeEventRegistry) MarkProcessed(ctx context.Context, id uuid.UUID, orderID *uuid.UUID) error {
	f.processed = true
	f.orderID = orderID
	return nil
}

func (f *fakeEventRegistry) RecordError(ctx context.Context, id uuid.UUID, message string) error {
	f.recorded = message
	return nil
}

type fakeVerifier struct {
	data *paystack.TransactionData
	err  error
}

func (f *fakeVerifier) VerifyTransaction(ctx context.Context, reference string) (*paystack.TransactionData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type fakeSettler struct {
	order *models.Order

	succeeded bool
	failed    bool
	failedTo  models.PaymentStatus
	refunded  bool
}

func (f *fakeSettler) GetByPaymentReference(ctx context.Context, reference string) (*models.Order, error) {
	if f.order == nil || f.order.PaymentReference != reference {
		return nil, ErrNotFound
	}
	return f.order, nil
}

func (f *fakeSettler) HandleSuccessfulPayment(ctx context.Context, order *models.Order, data *paystack.TransactionData) error {
	f.succeeded = true
	return nil
}

func (f *fakeSettler) HandleFailedPayment(ctx context.Context, order *models.Order, to models.PaymentStatus, reason string) error {
	f.failed = true
	f.failedTo = to
	return nil
}

func (f *fakeSettler) HandleRefund(ctx context.Context, order *models.Order) error {
	f.refunded = true
	return nil
}

func testOrder(reference string) *models.Order {
	return &models.Order{
		ID:               uuid.New(),
		OrderNumber:      "MV-20260830-ABC123",
		PaymentReference: reference,
		PaymentStatus:    models.PaymentPending,
		Status:           models.StatusPending,
		TotalKobo:        1_500_000,
	}
}

func chargeEvent(eventType, reference string) *models.PaystackEvent {
	payload := fmt.Sprintf(`{"id":"evt_1","event":%q,"data":{"reference":%q,"status":"success","amount":1500000}}`, eventType, reference)
	return &models.PaystackEvent{
		ID:        uuid.New(),
		EventID:   "evt_1",
		EventType: eventType,
		Payload:   []byte(payload),
	}
}

func newWebhookService(events EventRegistry, verifier GatewayVerifier, orders OrderSettler) *WebhookService {
	return NewWebhookService(events, verifier, orders, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProcessEventSuccessfulCharge(t *testing.T) {
	t.Parallel()

	events := &fakeEventRegistry{}
	settler := &fakeSettler{order: testOrder("MVPAY-abc")}
	verifier := &fakeVerifier{data: &paystack.TransactionData{
		Status:     paystack.TransactionSuccess,
		Reference:  "MVPAY-abc",
		AmountKobo: 1_500_000,
	}}

	svc := newWebhookService(events, verifier, settler)
	err := svc.ProcessEvent(context.Background(), chargeEvent(paystack.EventChargeSuccess, "MVPAY-abc"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !settler.succeeded {
		t.Error("expected successful payment to be settled")
	}
	if !events.processed {
		t.Error("expected event to be marked processed")
	}
	if events.orderID == nil || *events.orderID != settler.order.ID {
		t.Error("expected event linked to the order")
	}
}

func TestProcessEventRoutesOnVerifiedStatus(t *testing.T) {
	t.Parallel()

	// The webhook claims success but verification says failed. The verified
	// status wins.
	events := &fakeEventRegistry{}
	settler := &fakeSettler{order: testOrder("MVPAY-abc")}
	verifier := &fakeVerifier{data: &paystack.TransactionData{
		Status:          paystack.TransactionFailed,
		Reference:       "MVPAY-abc",
		GatewayResponse: "Declined",
	}}

	svc := newWebhookService(events, verifier, settler)
	err := svc.ProcessEvent(context.Background(), chargeEvent(paystack.EventChargeSuccess, "MVPAY-abc"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settler.succeeded {
		t.Error("claimed success must not settle when verification disagrees")
	}
	if !settler.failed || settler.failedTo != models.PaymentFailed {
		t.Errorf("expected failed settlement, got failed=%v to=%s", settler.failed, settler.failedTo)
	}
	if !events.processed {
		t.Error("expected event to be marked processed")
	}
}

func TestProcessEventAbandonedCharge(t *testing.T) {
	t.Parallel()

	events := &fakeEventRegistry{}
	settler := &fakeSettler{order: testOrder("MVPAY-abc")}
	verifier := &fakeVerifier{data: &paystack.TransactionData{
		Status:    paystack.TransactionAbandoned,
		Reference: "MVPAY-abc",
	}}

	svc := newWebhookService(events, verifier, settler)
	if err := svc.ProcessEvent(context.Background(), chargeEvent(paystack.EventChargeFailed, "MVPAY-abc")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settler.failedTo != models.PaymentCancelled {
		t.Errorf("expected cancelled settlement, got %s", settler.failedTo)
	}
}

func TestProcessEventRefund(t *testing.T) {
	t.Parallel()

	events := &fakeEventRegistry{}
	settler := &fakeSettler{order: testOrder("MVPAY-abc")}
	verifier := &fakeVerifier{data: &paystack.TransactionData{
		Status:    paystack.TransactionSuccess,
		Reference: "MVPAY-abc",
	}}

	svc := newWebhookService(events, verifier, settler)
	if err := svc.ProcessEvent(context.Background(), chargeEvent(paystack.EventRefundProcessed, "MVPAY-abc")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !settler.refunded {
		t.Error("expected refund settlement")
	}
	if settler.succeeded {
		t.Error("refund event must not settle as a regular payment")
	}
}

func TestProcessEventUnknownReferenceIsTerminal(t *testing.T) {
	t.Parallel()

	events := &fakeEventRegistry{}
	settler := &fakeSettler{order: testOrder("MVPAY-other")}
	verifier := &fakeVerifier{err: errors.New("verify must not be called")}

	svc := newWebhookService(events, verifier, settler)
	err := svc.ProcessEvent(context.Background(), chargeEvent(paystack.EventChargeSuccess, "MVPAY-missing"))
	if err != nil {
		t.Fatalf("unknown reference should be terminal, got %v", err)
	}
	if !events.processed {
		t.Error("expected event marked processed")
	}
	if events.orderID != nil {
		t.Error("expected no order linkage for unknown reference")
	}
}

func TestProcessEventGatewayUnavailableIsRetryable(t *testing.T) {
	t.Parallel()

	events := &fakeEventRegistry{}
	settler := &fakeSettler{order: testOrder("MVPAY-abc")}
	verifier := &fakeVerifier{err: paystack.ErrGatewayUnavailable}

	svc := newWebhookService(events, verifier, settler)
	err := svc.ProcessEvent(context.Background(), chargeEvent(paystack.EventChargeSuccess, "MVPAY-abc"))
	if err == nil {
		t.Fatal("expected error when the gateway is unavailable")
	}
	if events.processed {
		t.Error("event must stay unprocessed for retry")
	}
	if events.recorded == "" {
		t.Error("expected the failure to be recorded on the event")
	}
	if settler.succeeded || settler.failed {
		t.Error("nothing should be settled without verification")
	}
}

func TestProcessEventTransactionNotFoundAtGateway(t *testing.T) {
	t.Parallel()

	events := &fakeEventRegistry{}
	settler := &fakeSettler{order: testOrder("MVPAY-abc")}
	verifier := &fakeVerifier{err: paystack.ErrTransactionNotFound}

	svc := newWebhookService(events, verifier, settler)
	if err := svc.ProcessEvent(context.Background(), chargeEvent(paystack.EventChargeSuccess, "MVPAY-abc")); err != nil {
		t.Fatalf("unknown transaction should be terminal, got %v", err)
	}
	if !events.processed {
		t.Error("expected event marked processed")
	}
	if settler.succeeded || settler.failed {
		t.Error("nothing should be settled when the gateway disowns the reference")
	}
}

func TestProcessEventAlreadyProcessed(t *testing.T) {
	t.Parallel()

	events := &fakeEventRegistry{claimErr: db.ErrEventAlreadyProcessed}
	settler := &fakeSettler{order: testOrder("MVPAY-abc")}
	verifier := &fakeVerifier{err: errors.New("verify must not be called")}

	svc := newWebhookService(events, verifier, settler)
	if err := svc.ProcessEvent(context.Background(), chargeEvent(paystack.EventChargeSuccess, "MVPAY-abc")); err != nil {
		t.Fatalf("already processed should be a no-op, got %v", err)
	}
	if settler.succeeded || settler.failed {
		t.Error("already processed event must not settle anything")
	}
}

func TestProcessEventUnparseablePayloadIsTerminal(t *testing.T) {
	t.Parallel()

	events := &fakeEventRegistry{}
	settler := &fakeSettler{order: testOrder("MVPAY-abc")}
	verifier := &fakeVerifier{err: errors.New("verify must not be called")}

	event := &models.PaystackEvent{
		ID:        uuid.New(),
		EventID:   "evt_bad",
		EventType: "charge.success",
		Payload:   []byte("{not json"),
	}

	svc := newWebhookService(events, verifier, settler)
	if err := svc.ProcessEvent(context.Background(), event); err != nil {
		t.Fatalf("unparseable payload should be terminal, got %v", err)
	}
	if !events.processed {
		t.Error("expected event marked processed to stop the retry sweep")
	}
}

func TestProcessEventPendingVerifiedStatus(t *testing.T) {
	t.Parallel()

	events := &fakeEventRegistry{}
	settler := &fakeSettler{order: testOrder("MVPAY-abc")}
	verifier := &fakeVerifier{data: &paystack.TransactionData{
		Status:    "ongoing",
		Reference: "MVPAY-abc",
	}}

	svc := newWebhookService(events, verifier, settler)
	if err := svc.ProcessEvent(context.Background(), chargeEvent(paystack.EventChargeSuccess, "MVPAY-abc")); err != nil {
		t.Fatalf("pending verified status should be terminal, got %v", err)
	}
	if settler.succeeded || settler.failed || settler.refunded {
		t.Error("pending status must not settle anything")
	}
	if !events.processed {
		t.Error("expected event marked processed")
	}
}
