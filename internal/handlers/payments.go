package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/maviecommerce/mavie/internal/models"
)

// InitializePayment opens a gateway checkout session for an order and returns
// the authorization URL the customer is redirected to.
func (h *Handlers) InitializePayment(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid order id")
		return
	}

	result, err := h.paymentService.Initialize(r.Context(), orderID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// VerifyPayment is hit when the customer returns from gateway checkout. It
// asks the gateway for the authoritative outcome and settles the order.
func (h *Handlers) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	reference := mux.Vars(r)["reference"]
	if reference == "" {
		respondMessage(w, http.StatusBadRequest, "missing reference")
		return
	}

	order, err := h.paymentService.Verify(r.Context(), reference)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// PaymentStatus is the polling endpoint for checkout pages. Guests prove
// access with the email the order was placed with.
func (h *Handlers) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orderService.GetByID(ctx, orderID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	if !h.isAdminRequest(r) && !isOrderOwner(ctx, order) {
		email := strings.TrimSpace(r.URL.Query().Get("email"))
		if email == "" || !strings.EqualFold(email, order.CustomerEmail) {
			respondMessage(w, http.StatusNotFound, "not found")
			return
		}
	}

	status, err := h.paymentService.Status(ctx, orderID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}

func isOrderOwner(ctx context.Context, order *models.Order) bool {
	customerID, ok := CustomerIDFromContext(ctx)
	return ok && order.CustomerID != nil && *order.CustomerID == customerID
}

type refundRequest struct {
	AmountKobo int64 `json:"amount_kobo"`
}

// RefundPayment refunds an order at the gateway. Admin only. A zero or absent
// amount refunds in full.
func (h *Handlers) RefundPayment(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req refundRequest
	if r.ContentLength > 0 {
		if err := decodeJSONBody(r, &req); err != nil {
			respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	order, err := h.paymentService.Refund(r.Context(), orderID, req.AmountKobo)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}
