package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/maviecommerce/mavie/internal/db"
	"github.com/maviecommerce/mavie/internal/logging"
	"github.com/maviecommerce/mavie/internal/models"
)

const recentLedgerEntries = 20

// LoyaltyService is the customer-facing view of the points program. Balance
// mutations happen inside the order flows; this exposes the account and its
// recent ledger.
type LoyaltyService struct {
	store  *db.LoyaltyStore
	logger *slog.Logger
}

func NewLoyaltyService(store *db.LoyaltyStore, logger *slog.Logger) *LoyaltyService {
	return &LoyaltyService{store: store, logger: logger}
}

// AccountSummary is the loyalty account with its recent ledger attached.
type AccountSummary struct {
	Account      *models.LoyaltyAccount       `json:"account"`
	Transactions []*models.LoyaltyTransaction `json:"transactions"`
}

// Account returns the customer's account, provisioning it on first touch.
func (s *LoyaltyService) Account(ctx context.Context, customerID uuid.UUID) (*AccountSummary, error) {
	account, err := s.store.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loyalty account: %w", err)
	}

	transactions, err := s.store.RecentTransactions(ctx, account.ID, recentLedgerEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to load loyalty transactions: %w", err)
	}

	return &AccountSummary{Account: account, Transactions: transactions}, nil
}

// Provision creates the account for a new customer if it does not exist yet.
// Called on signup so the account is visible before the first purchase.
func (s *LoyaltyService) Provision(ctx context.Context, customerID uuid.UUID) (*models.LoyaltyAccount, error) {
	account, err := s.store.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to provision loyalty account: %w", err)
	}
	logging.FromContext(ctx, s.logger).Info("loyalty account ready",
		"customer_id", customerID, "tier", account.Tier)
	return account, nil
}
