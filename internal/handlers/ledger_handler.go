package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Vasu-4795-cmd/Bank2/internal/middleware"
	"github.com/Vasu-4795-cmd/Bank2/internal/services"
)

// LedgerHandler exposes deposits, withdrawals and history reads over
// HTTP. Every mutation goes through LedgerService; the handler adds no
// ledger semantics.
type LedgerHandler struct {
	ledger    *services.LedgerService
	validator *services.ValidationHelper
}

func NewLedgerHandler(ledger *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

// AmountRequest carries a deposit or withdrawal amount. The engine
// enforces positivity; the handler only decodes.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// BalanceResponse reports the balance after a committed operation.
type BalanceResponse struct {
	AccountNo int64           `json:"account_no"`
	Balance   decimal.Decimal `json:"balance"`
}

// Deposit credits the authenticated account
// @Summary Deposit funds
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /transactions/deposit [post]
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	accountNo, ok := r.Context().Value(middleware.ContextKeyAccountNo).(int64)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req AmountRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	newBalance, err := h.ledger.Deposit(r.Context(), accountNo, req.Amount)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BalanceResponse{AccountNo: accountNo, Balance: newBalance})
}

// Withdraw debits the authenticated account
// @Summary Withdraw funds
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /transactions/withdraw [post]
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	accountNo, ok := r.Context().Value(middleware.ContextKeyAccountNo).(int64)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req AmountRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	newBalance, err := h.ledger.Withdraw(r.Context(), accountNo, req.Amount)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BalanceResponse{AccountNo: accountNo, Balance: newBalance})
}

// GetHistory lists the authenticated account's recent transactions
// @Summary Get transaction history
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of records to return (default 10, max 100)"
// @Router /transactions/history [get]
func (h *LedgerHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	accountNo, ok := r.Context().Value(middleware.ContextKeyAccountNo).(int64)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	records, err := h.ledger.GetHistory(r.Context(), accountNo, limit)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"transactions": records,
		"count":        len(records),
	})
}
