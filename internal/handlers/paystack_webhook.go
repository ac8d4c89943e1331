package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/maviecommerce/mavie/internal/cache"
	"github.com/maviecommerce/mavie/internal/paystack"
)

// paystackWebhookIdempotencyTTL is how long webhook event IDs are kept in the
// cache for fast deduplication. The database unique constraint is the real
// guard; the cache just short-circuits gateway redeliveries.
const paystackWebhookIdempotencyTTL = 24 * time.Hour

// PaystackWebhook receives gateway deliveries. It authenticates the
// signature, persists the event, and hands it to the background worker. Any
// gateway interaction happens off this request so the delivery is
// acknowledged fast.
func (h *Handlers) PaystackWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("failed to read webhook body", "error", err)
		http.Error(w, "Invalid webhook", http.StatusBadRequest)
		return
	}

	if !paystack.VerifyWebhookSignature(body, r.Header.Get(paystack.SignatureHeader), h.config.PaystackWebhookSecret) {
		logger.Warn("rejected webhook with invalid signature", "remote_ip", clientIP(r))
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	event, _, err := paystack.ParseEvent(body)
	if err != nil {
		logger.Error("failed to parse webhook payload", "error", err)
		http.Error(w, "Invalid webhook", http.StatusBadRequest)
		return
	}

	cacheKey := cache.WebhookKey("paystack", event.ID)
	if _, err := h.cacheProvider.Get(ctx, cacheKey); err == nil {
		logger.Info("webhook already received", "event_id", event.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	stored, created, err := h.eventStore.GetOrCreate(ctx, event.ID, event.Event, body)
	if err != nil {
		logger.Error("failed to store webhook event", "error", err, "event_id", event.ID)
		http.Error(w, "Storage failed", http.StatusInternalServerError)
		return
	}

	if err := h.cacheProvider.Set(ctx, cacheKey, "received", paystackWebhookIdempotencyTTL); err != nil {
		logger.Error("failed to mark webhook in cache", "error", err)
	}

	if created || !stored.Processed {
		h.webhookWorker.Enqueue(stored.ID)
	}

	logger.Info("webhook accepted", "event_id", event.ID, "event_type", event.Event, "new", created)
	w.WriteHeader(http.StatusOK)
}
