// Package paystack provides the outbound Paystack API client and webhook
// signature verification.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maviecommerce/mavie/internal/observability"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found at gateway")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
)

// APIError is a definitive rejection from the gateway, as opposed to a
// transport failure worth retrying.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack API error (%d): %s", e.StatusCode, e.Message)
}

const defaultBaseURL = "https://api.paystack.co"

type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewClient(secretKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		secretKey:  secretKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: observability.NewHTTPClient(30 * time.Second),
	}
}

type InitializeRequest struct {
	Email       string         `json:"email"`
	AmountKobo  int64          `json:"amount"`
	Reference   string         `json:"reference"`
	Currency    string         `json:"currency"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Authorization struct {
	AuthorizationCode string `json:"authorization_code"`
	CardType          string `json:"card_type"`
	Last4             string `json:"last4"`
	Bank              string `json:"bank"`
	Channel           string `json:"channel"`
	Reusable          bool   `json:"reusable"`
}

type Customer struct {
	Email string `json:"email"`
}

// TransactionData is the gateway's record of one payment attempt. Amount and
// fees are in the currency's minor unit.
type TransactionData struct {
	ID              int64         `json:"id"`
	Status          string        `json:"status"`
	Reference       string        `json:"reference"`
	AmountKobo      int64         `json:"amount"`
	Currency        string        `json:"currency"`
	GatewayResponse string        `json:"gateway_response"`
	Channel         string        `json:"channel"`
	FeesKobo        int64         `json:"fees"`
	PaidAt          *time.Time    `json:"paid_at"`
	Authorization   Authorization `json:"authorization"`
	Customer        Customer      `json:"customer"`
}

const (
	TransactionSuccess   = "success"
	TransactionFailed    = "failed"
	TransactionAbandoned = "abandoned"
)

type RefundResult struct {
	TransactionRef string `json:"transaction_reference"`
	Status         string `json:"status"`
	AmountKobo     int64  `json:"amount"`
}

// InitializeTransaction opens a checkout session at the gateway. Amounts are
// transmitted in kobo.
func (c *Client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	var result InitializeResult
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifyTransaction fetches the gateway's authoritative state for a
// reference. Webhook payloads are hints; this call is the source of truth.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*TransactionData, error) {
	var result TransactionData
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RefundTransaction refunds a settled transaction. A zero amount refunds in
// full.
func (c *Client) RefundTransaction(ctx context.Context, reference string, amountKobo int64) (*RefundResult, error) {
	body := map[string]any{"transaction": reference}
	if amountKobo > 0 {
		body["amount"] = amountKobo
	}
	var result RefundResult
	if err := c.do(ctx, http.MethodPost, "/refund", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	respBody, readErr := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("failed to read gateway response: %w", readErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close gateway response body: %w", closeErr)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: gateway returned status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("%w: unparseable response (status %d): %v", ErrGatewayUnavailable, resp.StatusCode, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrTransactionNotFound, envelope.Message)
	}
	if resp.StatusCode >= http.StatusBadRequest || !envelope.Status {
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%w: unparseable response data: %v", ErrGatewayUnavailable, err)
		}
	}
	return nil
}
