package handler

import (
	"log/slog"
	"net/http"

	billingSvc "maimai/internal/domain/services/billing"
	"maimai/internal/httputil"
)

// CreditsHandler serves balances, estimates and the rate card
type CreditsHandler struct {
	credits  billingSvc.CreditService
	rateCard billingSvc.RateCardService
	logger   *slog.Logger
}

// NewCreditsHandler creates a new credits handler
func NewCreditsHandler(credits billingSvc.CreditService, rateCard billingSvc.RateCardService, logger *slog.Logger) *CreditsHandler {
	return &CreditsHandler{
		credits:  credits,
		rateCard: rateCard,
		logger:   logger,
	}
}

type balanceResponse struct {
	Balance int `json:"balance"`
}

// GetBalance returns the user's credit balance
// GET /api/credits
func (h *CreditsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.credits.GetBalance(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

// Estimate quotes the reservation for sending text
// POST /api/credits/estimate
func (h *CreditsHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text  string `json:"text"`
		Model string `json:"model"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	estimate, err := h.rateCard.Estimate(r.Context(), req.Model, req.Text)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, estimate)
}

// ListModelCosts returns every active rate record
// GET /api/models/costs
func (h *CreditsHandler) ListModelCosts(w http.ResponseWriter, r *http.Request) {
	rates, err := h.rateCard.ListActiveRates(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, rates)
}

// AddCredits grants credits in dev environments (stands in for purchases)
// POST /debug/api/credits
func (h *CreditsHandler) AddCredits(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req struct {
		Amount int `json:"amount"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	balance, err := h.credits.AddCredits(r.Context(), userID, req.Amount)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Warn("debug credits granted", "user_id", userID, "credits", req.Amount, "balance", balance)
	httputil.RespondJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}
