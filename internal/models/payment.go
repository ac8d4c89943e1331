package models

import (
	"time"

	"github.com/google/uuid"
)

// PaystackEvent is one durable row per inbound gateway webhook, deduplicated
// by the gateway's event id. The row doubles as the retry queue: unprocessed
// rows below the attempt ceiling are swept and re-attempted.
type PaystackEvent struct {
	ID                  uuid.UUID  `json:"id"`
	EventID             string     `json:"event_id"`
	EventType           string     `json:"event_type"`
	Payload             []byte     `json:"-"`
	Processed           bool       `json:"processed"`
	ProcessingAttempts  int        `json:"processing_attempts"`
	LastProcessingError string     `json:"last_processing_error"`
	OrderID             *uuid.UUID `json:"order_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	ProcessedAt         time.Time  `json:"processed_at"`
}

type PaymentTransactionStatus string

const (
	TransactionPending   PaymentTransactionStatus = "pending"
	TransactionSuccess   PaymentTransactionStatus = "success"
	TransactionFailed    PaymentTransactionStatus = "failed"
	TransactionAbandoned PaymentTransactionStatus = "abandoned"
)

// PaymentTransaction records one gateway-side payment attempt, upserted by
// payment reference as verification and webhook data arrives. The reusable
// card authorization code is stored encrypted.
type PaymentTransaction struct {
	ID                uuid.UUID                `json:"id"`
	OrderID           uuid.UUID                `json:"order_id"`
	Reference         string                   `json:"reference"`
	GatewayReference  string                   `json:"gateway_reference"`
	AmountKobo        int64                    `json:"amount_kobo"`
	Currency          string                   `json:"currency"`
	Status            PaymentTransactionStatus `json:"status"`
	GatewayResponse   string                   `json:"gateway_response"`
	Channel           string                   `json:"channel"`
	FeesKobo          int64                    `json:"fees_kobo"`
	AuthorizationCode string                   `json:"-"`
	PaidAt            time.Time                `json:"paid_at"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}
