package handlers

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/maviecommerce/mavie/internal/models"
	"github.com/maviecommerce/mavie/internal/services"
)

// CreateOrder handles checkout. Both guests and authenticated customers land
// here; a customer token binds the order to the account and unlocks loyalty
// redemption.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input services.CreateOrderInput
	if err := decodeJSONBody(r, &input); err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if customerID, ok := CustomerIDFromContext(ctx); ok {
		input.CustomerID = &customerID
	}

	order, err := h.orderService.Create(ctx, input)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

type orderSummaryRequest struct {
	Items            []services.CreateOrderItemInput `json:"items"`
	UseLoyaltyPoints int                             `json:"use_loyalty_points"`
}

// OrderSummary prices a cart without creating anything, so the frontend can
// show totals before checkout.
func (h *Handlers) OrderSummary(w http.ResponseWriter, r *http.Request) {
	var req orderSummaryRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.orderService.Quote(r.Context(), req.Items, req.UseLoyaltyPoints)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, ok := CustomerIDFromContext(ctx)
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	orders, err := h.orderService.ListByCustomer(ctx, customerID, limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

// GetOrder returns one order. Customers see their own orders, the admin token
// sees all of them, and a guest order is reachable with the email it was
// placed with. Orders bound to a customer are never served on email alone.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
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

	if !h.isAdminRequest(r) && !isOrderOwner(ctx, order) && !isGuestOrderEmailMatch(r, order) {
		respondMessage(w, http.StatusNotFound, "not found")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func isGuestOrderEmailMatch(r *http.Request, order *models.Order) bool {
	if order.CustomerID != nil {
		return false
	}
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	return email != "" && strings.EqualFold(email, order.CustomerEmail)
}

// TrackOrder is the guest lookup: order number plus the email it was placed
// with.
func (h *Handlers) TrackOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := mux.Vars(r)["number"]
	email := strings.TrimSpace(r.URL.Query().Get("email"))

	order, err := h.orderService.Track(r.Context(), orderNumber, email)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

type updateOrderStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
}

// UpdateOrderStatus moves an order through fulfillment. Admin only.
func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateOrderStatusRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderService.UpdateFulfillmentStatus(r.Context(), orderID, req.Status, req.TrackingNumber)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *Handlers) isAdminRequest(r *http.Request) bool {
	token := strings.TrimSpace(r.Header.Get("X-Admin-Token"))
	return token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(h.config.AdminToken)) == 1
}
