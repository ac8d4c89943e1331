package paystack

import (
	"strings"
	"testing"
)

func TestVerifyWebhookSignature(t *testing.T) {
	t.Parallel()

	secret := "sk_test_webhook_secret"
	body := []byte(`{"event":"charge.success","data":{"reference":"MV-1"}}`)

	t.Run("valid signature", func(t *testing.T) {
		t.Parallel()

		header := SignWebhookBody(body, secret)
		if !VerifyWebhookSignature(body, header, secret) {
			t.Fatal("expected signature to verify")
		}
	})

	t.Run("signature without prefix", func(t *testing.T) {
		t.Parallel()

		header := strings.TrimPrefix(SignWebhookBody(body, secret), "sha512=")
		if !VerifyWebhookSignature(body, header, secret) {
			t.Fatal("expected bare hex signature to verify")
		}
	})

	t.Run("tampered body", func(t *testing.T) {
		t.Parallel()

		header := SignWebhookBody(body, secret)
		tampered := []byte(`{"event":"charge.success","data":{"reference":"MV-2"}}`)
		if VerifyWebhookSignature(tampered, header, secret) {
			t.Fatal("expected tampered body to fail verification")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		header := SignWebhookBody(body, "sk_test_other_secret")
		if VerifyWebhookSignature(body, header, secret) {
			t.Fatal("expected wrong secret to fail verification")
		}
	})

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()

		if VerifyWebhookSignature(body, "", secret) {
			t.Fatal("expected empty header to fail verification")
		}
	})

	t.Run("invalid hex", func(t *testing.T) {
		t.Parallel()

		if VerifyWebhookSignature(body, "sha512=not-hex", secret) {
			t.Fatal("expected invalid hex to fail verification")
		}
	})
}

func TestParseEvent(t *testing.T) {
	t.Parallel()

	t.Run("full envelope", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"id": "evt_123",
			"event": "charge.success",
			"data": {
				"reference": "MV-20260830-0001",
				"status": "success",
				"amount": 11330000,
				"currency": "NGN",
				"channel": "card"
			}
		}`)

		event, data, err := ParseEvent(payload)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if event.ID != "evt_123" {
			t.Errorf("unexpected event id: %q", event.ID)
		}
		if event.Event != EventChargeSuccess {
			t.Errorf("unexpected event type: %q", event.Event)
		}
		if data.Reference != "MV-20260830-0001" {
			t.Errorf("unexpected reference: %q", data.Reference)
		}
		if data.AmountKobo != 11330000 {
			t.Errorf("unexpected amount: %d", data.AmountKobo)
		}
	})

	t.Run("missing id falls back to type and reference", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{"event":"charge.failed","data":{"reference":"MV-20260830-0002"}}`)
		event, _, err := ParseEvent(payload)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if event.ID != "charge.failed:MV-20260830-0002" {
			t.Errorf("unexpected fallback id: %q", event.ID)
		}
	})

	t.Run("missing event type", func(t *testing.T) {
		t.Parallel()

		_, _, err := ParseEvent([]byte(`{"data":{"reference":"MV-1"}}`))
		if err == nil {
			t.Fatal("expected error for missing event type")
		}
	})

	t.Run("missing id and reference", func(t *testing.T) {
		t.Parallel()

		_, _, err := ParseEvent([]byte(`{"event":"charge.success","data":{}}`))
		if err == nil {
			t.Fatal("expected error when dedup key cannot be built")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()

		_, _, err := ParseEvent([]byte(`{"event":`))
		if err == nil {
			t.Fatal("expected error for malformed payload")
		}
	})
}
