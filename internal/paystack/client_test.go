package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInitializeTransaction(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_abc" {
			t.Errorf("unexpected authorization header: %q", got)
		}

		var req InitializeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.AmountKobo != 11330000 {
			t.Errorf("unexpected amount: %d", req.AmountKobo)
		}
		if req.Currency != "NGN" {
			t.Errorf("unexpected currency: %q", req.Currency)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code":       "abc123",
				"reference":         req.Reference,
			},
		})
	}))
	defer server.Close()

	client := NewClient("sk_test_abc", server.URL)
	result, err := client.InitializeTransaction(context.Background(), InitializeRequest{
		Email:      "ada@example.com",
		AmountKobo: 11330000,
		Reference:  "MV-20260830-0001",
		Currency:   "NGN",
	})
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if result.AuthorizationURL != "https://checkout.paystack.com/abc123" {
		t.Errorf("unexpected authorization url: %q", result.AuthorizationURL)
	}
	if result.AccessCode != "abc123" {
		t.Errorf("unexpected access code: %q", result.AccessCode)
	}
}

func TestVerifyTransaction(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/transaction/verify/MV-20260830-0001" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":  true,
				"message": "Verification successful",
				"data": map[string]any{
					"id":               962345,
					"status":           "success",
					"reference":        "MV-20260830-0001",
					"amount":           11330000,
					"currency":         "NGN",
					"gateway_response": "Successful",
					"channel":          "card",
					"fees":             169950,
					"paid_at":          "2026-08-30T12:04:05.000Z",
					"authorization": map[string]any{
						"authorization_code": "AUTH_8dfhty38",
						"card_type":          "visa",
						"last4":              "1234",
						"reusable":           true,
					},
					"customer": map[string]any{"email": "ada@example.com"},
				},
			})
		}))
		defer server.Close()

		client := NewClient("sk_test_abc", server.URL)
		data, err := client.VerifyTransaction(context.Background(), "MV-20260830-0001")
		if err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		if data.Status != TransactionSuccess {
			t.Errorf("unexpected status: %q", data.Status)
		}
		if data.AmountKobo != 11330000 {
			t.Errorf("unexpected amount: %d", data.AmountKobo)
		}
		if data.Authorization.AuthorizationCode != "AUTH_8dfhty38" {
			t.Errorf("unexpected authorization code: %q", data.Authorization.AuthorizationCode)
		}
		if data.PaidAt == nil || data.PaidAt.IsZero() {
			t.Error("expected paid_at to be set")
		}
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":  false,
				"message": "Transaction reference not found",
			})
		}))
		defer server.Close()

		client := NewClient("sk_test_abc", server.URL)
		_, err := client.VerifyTransaction(context.Background(), "MV-unknown")
		if !errors.Is(err, ErrTransactionNotFound) {
			t.Fatalf("expected ErrTransactionNotFound, got %v", err)
		}
	})

	t.Run("gateway down", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient("sk_test_abc", server.URL)
		_, err := client.VerifyTransaction(context.Background(), "MV-20260830-0001")
		if !errors.Is(err, ErrGatewayUnavailable) {
			t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
		}
	})

	t.Run("non-JSON body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>upstream proxy error</html>"))
		}))
		defer server.Close()

		client := NewClient("sk_test_abc", server.URL)
		_, err := client.VerifyTransaction(context.Background(), "MV-20260830-0001")
		if !errors.Is(err, ErrGatewayUnavailable) {
			t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
		}
	})

	t.Run("declined envelope", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":  false,
				"message": "Invalid key",
			})
		}))
		defer server.Close()

		client := NewClient("sk_test_abc", server.URL)
		_, err := client.VerifyTransaction(context.Background(), "MV-20260830-0001")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Message != "Invalid key" {
			t.Errorf("unexpected message: %q", apiErr.Message)
		}
	})
}

func TestRefundTransaction(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/refund" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if body["transaction"] != "MV-20260830-0001" {
			t.Errorf("unexpected transaction: %v", body["transaction"])
		}
		if _, ok := body["amount"]; ok {
			t.Error("full refund should omit amount")
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Refund has been queued for processing",
			"data": map[string]any{
				"transaction_reference": "MV-20260830-0001",
				"status":                "pending",
				"amount":                11330000,
			},
		})
	}))
	defer server.Close()

	client := NewClient("sk_test_abc", server.URL)
	result, err := client.RefundTransaction(context.Background(), "MV-20260830-0001", 0)
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if result.Status != "pending" {
		t.Errorf("unexpected refund status: %q", result.Status)
	}
}
