package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// SignatureHeader carries the HMAC of the raw webhook body.
const SignatureHeader = "X-Paystack-Signature"

const signaturePrefix = "sha512="

// Webhook event types dispatched by the reconciliation pipeline.
const (
	EventChargeSuccess   = "charge.success"
	EventChargeFailed    = "charge.failed"
	EventRefundProcessed = "refund.processed"
)

// Event is the envelope of one webhook delivery.
type Event struct {
	ID    string          `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EventData is the charge payload inside an event. Only the fields the
// pipeline reads; verification supplies the rest.
type EventData struct {
	Reference       string `json:"reference"`
	Status          string `json:"status"`
	AmountKobo      int64  `json:"amount"`
	Currency        string `json:"currency"`
	GatewayResponse string `json:"gateway_response"`
	Channel         string `json:"channel"`
}

// ParseEvent decodes a webhook delivery. The event id falls back to
// "<type>:<reference>" when the gateway omits one, keeping dedup stable
// across redeliveries.
func ParseEvent(payload []byte) (*Event, *EventData, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	if event.Event == "" {
		return nil, nil, fmt.Errorf("webhook payload missing event type")
	}

	var data EventData
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return nil, nil, fmt.Errorf("failed to parse webhook event data: %w", err)
		}
	}

	if event.ID == "" {
		if data.Reference == "" {
			return nil, nil, fmt.Errorf("webhook payload missing both event id and reference")
		}
		event.ID = event.Event + ":" + data.Reference
	}

	return &event, &data, nil
}

// VerifyWebhookSignature checks the HMAC-SHA512 of the raw request body
// against the signature header. The comparison is constant time. The raw
// bytes must be exactly as received; re-serialized JSON will not match.
func VerifyWebhookSignature(rawBody []byte, signatureHeader, secret string) bool {
	if signatureHeader == "" || secret == "" {
		return false
	}

	provided := strings.TrimPrefix(signatureHeader, signaturePrefix)
	providedMAC, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(rawBody)
	return hmac.Equal(providedMAC, mac.Sum(nil))
}

// SignWebhookBody produces the header value for a body, as the gateway
// would. Used by tests and local tooling.
func SignWebhookBody(rawBody []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(rawBody)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
