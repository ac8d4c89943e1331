package models

import (
	"time"

	"github.com/google/uuid"
)

// LoyaltyTier is derived from lifetime points earned, never from balance.
type LoyaltyTier string

const (
	TierBronze   LoyaltyTier = "Bronze"
	TierSilver   LoyaltyTier = "Silver"
	TierGold     LoyaltyTier = "Gold"
	TierPlatinum LoyaltyTier = "Platinum"
)

const (
	tierSilverThreshold   = 1000
	tierGoldThreshold     = 5000
	tierPlatinumThreshold = 10000
)

// TierForPoints maps cumulative earned points to a tier.
func TierForPoints(totalEarned int) LoyaltyTier {
	switch {
	case totalEarned >= tierPlatinumThreshold:
		return TierPlatinum
	case totalEarned >= tierGoldThreshold:
		return TierGold
	case totalEarned >= tierSilverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// LoyaltyAccount holds one customer's point balance.
// Invariant: CurrentBalance == TotalPointsEarned - TotalPointsUsed, never negative.
type LoyaltyAccount struct {
	ID                uuid.UUID   `json:"id"`
	CustomerID        uuid.UUID   `json:"customer_id"`
	TotalPointsEarned int         `json:"total_points_earned"`
	TotalPointsUsed   int         `json:"total_points_used"`
	CurrentBalance    int         `json:"current_balance"`
	Tier              LoyaltyTier `json:"tier"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

type LoyaltyTransactionType string

const (
	LoyaltyEarned   LoyaltyTransactionType = "earned"
	LoyaltyUsed     LoyaltyTransactionType = "used"
	LoyaltyReversal LoyaltyTransactionType = "reversal"
	LoyaltyExpired  LoyaltyTransactionType = "expired"
	LoyaltyBonus    LoyaltyTransactionType = "bonus"
)

// LoyaltyTransaction is an append-only ledger entry. Every balance mutation
// writes exactly one of these in the same database transaction.
type LoyaltyTransaction struct {
	ID          uuid.UUID              `json:"id"`
	AccountID   uuid.UUID              `json:"account_id"`
	Type        LoyaltyTransactionType `json:"type"`
	Points      int                    `json:"points"`
	OrderID     *uuid.UUID             `json:"order_id,omitempty"`
	Description string                 `json:"description"`
	CreatedAt   time.Time              `json:"created_at"`
}
