package handlers

import (
	"net/http"
)

// LoyaltyAccount returns the authenticated customer's account with its recent
// ledger, provisioning the account on first touch.
func (h *Handlers) LoyaltyAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, ok := CustomerIDFromContext(ctx)
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	summary, err := h.loyaltyService.Account(ctx, customerID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// ProvisionLoyaltyAccount creates the account ahead of the first purchase,
// called on signup.
func (h *Handlers) ProvisionLoyaltyAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, ok := CustomerIDFromContext(ctx)
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	account, err := h.loyaltyService.Provision(ctx, customerID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, account)
}
