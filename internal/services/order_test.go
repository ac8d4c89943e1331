package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/maviecommerce/mavie/internal/db"
	"github.com/maviecommerce/mavie/internal/models"
	"github.com/maviecommerce/mavie/internal/paystack"
)

type fakeOrderStore struct {
	order     *models.Order
	createErr error
	awardErr  error
	awards    []int
}

func (f *fakeOrderStore) Create(ctx context.Context, order *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	order.ID = uuid.New()
	f.order = order
	return nil
}

func (f *fakeOrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return f.order, nil
}

func (f *fakeOrderStore) GetByPaymentReference(ctx context.Context, reference string) (*models.Order, error) {
	return f.order, nil
}

func (f *fakeOrderStore) GetByOrderNumber(ctx context.Context, orderNumber, customerEmail string) (*models.Order, error) {
	return f.order, nil
}

func (f *fakeOrderStore) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]*models.Order, error) {
	return []*models.Order{f.order}, nil
}

func (f *fakeOrderStore) MarkPaymentSucceeded(ctx context.Context, orderID uuid.UUID, params db.PaymentSuccessParams) error {
	if f.order.PaymentStatus == models.PaymentSuccess || f.order.PaymentStatus == models.PaymentRefunded {
		return db.ErrInvalidStatusTransition
	}
	f.order.PaymentStatus = models.PaymentSuccess
	f.order.Status = models.StatusPaid
	f.order.PaidAmountKobo = params.PaidAmountKobo
	f.order.PaymentMethod = params.PaymentMethod
	return nil
}

func (f *fakeOrderStore) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, to models.PaymentStatus, reason string) error {
	if f.order.PaymentStatus == models.PaymentSuccess || f.order.PaymentStatus == models.PaymentRefunded {
		return db.ErrInvalidStatusTransition
	}
	f.order.PaymentStatus = to
	f.order.Status = models.StatusFailed
	return nil
}

func (f *fakeOrderStore) MarkRefunded(ctx context.Context, orderID uuid.UUID) error {
	if f.order.PaymentStatus != models.PaymentSuccess {
		return db.ErrInvalidStatusTransition
	}
	f.order.PaymentStatus = models.PaymentRefunded
	f.order.Status = models.StatusRefunded
	return nil
}

func (f *fakeOrderStore) AwardLoyaltyPoints(ctx context.Context, orderID, customerID uuid.UUID, points int, description string) error {
	if f.order.LoyaltyPointsAwarded || f.order.PaymentStatus != models.PaymentSuccess {
		return db.ErrInvalidStatusTransition
	}
	if f.awardErr != nil {
		err := f.awardErr
		f.awardErr = nil
		return err
	}
	f.order.LoyaltyPointsAwarded = true
	f.order.LoyaltyPointsEarned = points
	f.awards = append(f.awards, points)
	return nil
}

func (f *fakeOrderStore) UpdateFulfillmentStatus(ctx context.Context, orderID uuid.UUID, from []models.OrderStatus, to models.OrderStatus, trackingNumber string) error {
	for _, status := range from {
		if f.order.Status == status {
			f.order.Status = to
			return nil
		}
	}
	return db.ErrInvalidStatusTransition
}

type fakeLoyaltyLedger struct {
	account   *models.LoyaltyAccount
	reversals int
}

func (f *fakeLoyaltyLedger) GetOrCreate(ctx context.Context, customerID uuid.UUID) (*models.LoyaltyAccount, error) {
	if f.account == nil {
		f.account = &models.LoyaltyAccount{ID: uuid.New(), CustomerID: customerID, Tier: models.TierBronze}
	}
	return f.account, nil
}

func (f *fakeLoyaltyLedger) ReverseUsedPoints(ctx context.Context, customerID uuid.UUID, points int, orderID uuid.UUID, description string) error {
	if f.reversals > 0 {
		return db.ErrAlreadyReversed
	}
	f.reversals++
	if f.account != nil {
		f.account.CurrentBalance += points
		f.account.TotalPointsUsed -= points
	}
	return nil
}

type fakeProductCatalog struct {
	products map[uuid.UUID]*models.Product
}

func (f *fakeProductCatalog) GetActiveByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	if f.products == nil {
		return map[uuid.UUID]*models.Product{}, nil
	}
	return f.products, nil
}

type fakeTransactionRecorder struct {
	upserts []*models.PaymentTransaction
}

func (f *fakeTransactionRecorder) Upsert(ctx context.Context, transaction *models.PaymentTransaction) error {
	f.upserts = append(f.upserts, transaction)
	return nil
}

type fakeOrderEmails struct {
	confirmations int
	failures      int
	shipped       int
}

func (f *fakeOrderEmails) SendPaymentConfirmation(context.Context, *models.Order) error {
	f.confirmations++
	return nil
}

func (f *fakeOrderEmails) SendPaymentFailed(context.Context, *models.Order, string) error {
	f.failures++
	return nil
}

func (f *fakeOrderEmails) SendOrderShipped(context.Context, *models.Order) error {
	f.shipped++
	return nil
}

func newSettlementService(store *fakeOrderStore, ledger *fakeLoyaltyLedger, emails *fakeOrderEmails) *OrderService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOrderService(store, &fakeProductCatalog{}, ledger, &fakeTransactionRecorder{}, nil, emails, logger)
}

func processingOrder() *models.Order {
	customerID := uuid.New()
	return &models.Order{
		ID:               uuid.New(),
		OrderNumber:      "MV-20260830-A1B2C3",
		CustomerID:       &customerID,
		CustomerEmail:    "ada@example.com",
		SubtotalKobo:     20_000_000,
		TotalKobo:        20_600_000,
		Currency:         "NGN",
		PaymentStatus:    models.PaymentProcessing,
		PaymentReference: "MVPAY-test",
		Status:           models.StatusPending,
	}
}

func successData(order *models.Order) *paystack.TransactionData {
	return &paystack.TransactionData{
		ID:         962345,
		Status:     paystack.TransactionSuccess,
		Reference:  order.PaymentReference,
		AmountKobo: order.TotalKobo,
		Currency:   "NGN",
		Channel:    "card",
	}
}

func validOrderInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerEmail:        "ada@example.com",
		CustomerFirstName:    "Ada",
		CustomerLastName:     "Obi",
		ShippingAddressLine1: "12 Marina Road",
		ShippingCity:         "Lagos",
		ShippingState:        "Lagos",
		ShippingCountry:      "Nigeria",
	}
}

func TestValidateCreateOrderInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*CreateOrderInput)
		wantField string
	}{
		{
			name:   "valid",
			mutate: func(input *CreateOrderInput) {},
		},
		{
			name:      "missing email",
			mutate:    func(input *CreateOrderInput) { input.CustomerEmail = "" },
			wantField: "customer_email",
		},
		{
			name:      "email without at sign",
			mutate:    func(input *CreateOrderInput) { input.CustomerEmail = "ada.example.com" },
			wantField: "customer_email",
		},
		{
			name:      "missing first name",
			mutate:    func(input *CreateOrderInput) { input.CustomerFirstName = "  " },
			wantField: "customer_first_name",
		},
		{
			name:      "missing address",
			mutate:    func(input *CreateOrderInput) { input.ShippingAddressLine1 = "" },
			wantField: "shipping_address_line1",
		},
		{
			name:      "missing city",
			mutate:    func(input *CreateOrderInput) { input.ShippingCity = "" },
			wantField: "shipping_city",
		},
		{
			name:      "negative loyalty points",
			mutate:    func(input *CreateOrderInput) { input.UseLoyaltyPoints = -1 },
			wantField: "use_loyalty_points",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			input := validOrderInput()
			tt.mutate(&input)

			err := validateCreateOrderInput(input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := validationErr.Fields[tt.wantField]; !ok {
				t.Errorf("expected error on field %q, got fields %v", tt.wantField, validationErr.Fields)
			}
		})
	}
}

func TestFulfillmentTransitions(t *testing.T) {
	t.Parallel()

	allowed := func(from, to models.OrderStatus) bool {
		for _, s := range fulfillmentTransitions[to] {
			if s == from {
				return true
			}
		}
		return false
	}

	tests := []struct {
		name string
		from models.OrderStatus
		to   models.OrderStatus
		want bool
	}{
		{"paid to confirmed", models.StatusPaid, models.StatusConfirmed, true},
		{"paid to shipped", models.StatusPaid, models.StatusShipped, true},
		{"confirmed to processing", models.StatusConfirmed, models.StatusProcessing, true},
		{"shipped to delivered", models.StatusShipped, models.StatusDelivered, true},
		{"pending to cancelled", models.StatusPending, models.StatusCancelled, true},
		{"paid to cancelled", models.StatusPaid, models.StatusCancelled, true},
		{"pending to confirmed", models.StatusPending, models.StatusConfirmed, false},
		{"pending to shipped", models.StatusPending, models.StatusShipped, false},
		{"delivered to cancelled", models.StatusDelivered, models.StatusCancelled, false},
		{"shipped to cancelled", models.StatusShipped, models.StatusCancelled, false},
		{"delivered to shipped", models.StatusDelivered, models.StatusShipped, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := allowed(tt.from, tt.to); got != tt.want {
				t.Errorf("allowed(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}

	t.Run("terminal states unreachable directly", func(t *testing.T) {
		t.Parallel()

		for _, status := range []models.OrderStatus{models.StatusPending, models.StatusPaid, models.StatusFailed, models.StatusRefunded} {
			if _, ok := fulfillmentTransitions[status]; ok {
				t.Errorf("status %s should not be settable through fulfillment updates", status)
			}
		}
	})
}

func TestGenerateOrderNumber(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^MV-\d{8}-[A-Z0-9]{6}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		number := generateOrderNumber()
		if !pattern.MatchString(number) {
			t.Fatalf("order number %q does not match expected format", number)
		}
		if seen[number] {
			t.Fatalf("duplicate order number %q", number)
		}
		seen[number] = true
	}
}

func TestGeneratePaymentReference(t *testing.T) {
	t.Parallel()

	reference := generatePaymentReference()
	if !strings.HasPrefix(reference, "MVPAY-") {
		t.Errorf("reference %q missing prefix", reference)
	}
	if len(reference) != len("MVPAY-")+32 {
		t.Errorf("reference %q has unexpected length %d", reference, len(reference))
	}
	if reference == generatePaymentReference() {
		t.Error("expected unique references")
	}
}

func TestHandleSuccessfulPaymentTwiceAwardsOnce(t *testing.T) {
	t.Parallel()

	store := &fakeOrderStore{order: processingOrder()}
	ledger := &fakeLoyaltyLedger{}
	emails := &fakeOrderEmails{}
	service := newSettlementService(store, ledger, emails)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := service.HandleSuccessfulPayment(ctx, store.order, successData(store.order)); err != nil {
			t.Fatalf("settlement %d failed: %v", i+1, err)
		}
	}

	if len(store.awards) != 1 {
		t.Fatalf("expected exactly one loyalty award, got %d", len(store.awards))
	}
	if want := EarnedPoints(store.order.SubtotalKobo); store.awards[0] != want {
		t.Errorf("awarded %d points, want %d", store.awards[0], want)
	}
	if !store.order.LoyaltyPointsAwarded {
		t.Error("award flag not set after settlement")
	}
	if store.order.PaymentStatus != models.PaymentSuccess {
		t.Errorf("payment status = %s, want success", store.order.PaymentStatus)
	}
	if emails.confirmations != 1 {
		t.Errorf("expected one confirmation email, got %d", emails.confirmations)
	}
}

func TestHandleSuccessfulPaymentRetriesOwedAward(t *testing.T) {
	t.Parallel()

	store := &fakeOrderStore{order: processingOrder(), awardErr: errors.New("connection reset")}
	service := newSettlementService(store, &fakeLoyaltyLedger{}, &fakeOrderEmails{})

	ctx := context.Background()
	data := successData(store.order)

	if err := service.HandleSuccessfulPayment(ctx, store.order, data); err == nil {
		t.Fatal("expected settlement to surface the failed award")
	}
	if len(store.awards) != 0 {
		t.Fatalf("no award should be recorded after a failed credit, got %d", len(store.awards))
	}
	if store.order.LoyaltyPointsAwarded {
		t.Fatal("award flag must not survive a failed credit")
	}
	if store.order.PaymentStatus != models.PaymentSuccess {
		t.Fatalf("payment status = %s, want success", store.order.PaymentStatus)
	}

	// Redelivery lands on an already settled order and completes the award.
	if err := service.HandleSuccessfulPayment(ctx, store.order, data); err != nil {
		t.Fatalf("redelivered settlement failed: %v", err)
	}
	if len(store.awards) != 1 {
		t.Fatalf("expected the retry to award exactly once, got %d", len(store.awards))
	}
	if !store.order.LoyaltyPointsAwarded {
		t.Error("award flag not set after retry")
	}
}

func TestHandleFailedPaymentTwiceReversesOnce(t *testing.T) {
	t.Parallel()

	order := processingOrder()
	order.LoyaltyPointsUsed = 500
	store := &fakeOrderStore{order: order}
	ledger := &fakeLoyaltyLedger{account: &models.LoyaltyAccount{
		ID:              uuid.New(),
		CustomerID:      *order.CustomerID,
		TotalPointsUsed: 500,
		Tier:            models.TierBronze,
	}}
	emails := &fakeOrderEmails{}
	service := newSettlementService(store, ledger, emails)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := service.HandleFailedPayment(ctx, order, models.PaymentFailed, "Declined"); err != nil {
			t.Fatalf("failure notice %d errored: %v", i+1, err)
		}
	}

	if ledger.reversals != 1 {
		t.Fatalf("expected exactly one reversal, got %d", ledger.reversals)
	}
	if ledger.account.CurrentBalance != 500 {
		t.Errorf("balance = %d, want 500 restored", ledger.account.CurrentBalance)
	}
	if ledger.account.TotalPointsUsed != 0 {
		t.Errorf("total used = %d, want 0 after reversal", ledger.account.TotalPointsUsed)
	}
	if emails.failures != 1 {
		t.Errorf("expected one failure email, got %d", emails.failures)
	}
}

func TestCreateOrderRejectsInsufficientBalance(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	catalog := &fakeProductCatalog{products: map[uuid.UUID]*models.Product{
		productID: {ID: productID, Name: "Ankara Tote", PriceKobo: 5_000_000, Active: true},
	}}
	customerID := uuid.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	input := validOrderInput()
	input.CustomerID = &customerID
	input.Items = []CreateOrderItemInput{{ProductID: productID, Quantity: 1}}
	input.UseLoyaltyPoints = 500

	t.Run("balance check", func(t *testing.T) {
		t.Parallel()

		store := &fakeOrderStore{}
		ledger := &fakeLoyaltyLedger{account: &models.LoyaltyAccount{CustomerID: customerID, CurrentBalance: 100}}
		service := NewOrderService(store, catalog, ledger, &fakeTransactionRecorder{}, nil, &fakeOrderEmails{}, logger)

		_, err := service.Create(context.Background(), input)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := validationErr.Fields["use_loyalty_points"]; !ok {
			t.Errorf("expected error on use_loyalty_points, got %v", validationErr.Fields)
		}
		if store.order != nil {
			t.Error("no order should be persisted")
		}
	})

	t.Run("store level guard", func(t *testing.T) {
		t.Parallel()

		store := &fakeOrderStore{createErr: db.ErrInsufficientPoints}
		ledger := &fakeLoyaltyLedger{account: &models.LoyaltyAccount{CustomerID: customerID, CurrentBalance: 1000}}
		service := NewOrderService(store, catalog, ledger, &fakeTransactionRecorder{}, nil, &fakeOrderEmails{}, logger)

		_, err := service.Create(context.Background(), input)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := validationErr.Fields["use_loyalty_points"]; !ok {
			t.Errorf("expected error on use_loyalty_points, got %v", validationErr.Fields)
		}
	})
}

func TestTransactionStatusFromGateway(t *testing.T) {
	t.Parallel()

	tests := []struct {
		gateway string
		want    models.PaymentTransactionStatus
	}{
		{paystack.TransactionSuccess, models.TransactionSuccess},
		{paystack.TransactionFailed, models.TransactionFailed},
		{paystack.TransactionAbandoned, models.TransactionAbandoned},
		{"ongoing", models.TransactionPending},
		{"", models.TransactionPending},
	}

	for _, tt := range tests {
		t.Run("status "+tt.gateway, func(t *testing.T) {
			t.Parallel()

			if got := transactionStatusFromGateway(tt.gateway); got != tt.want {
				t.Errorf("transactionStatusFromGateway(%q) = %s, want %s", tt.gateway, got, tt.want)
			}
		})
	}
}
