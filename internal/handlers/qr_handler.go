package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Vasu-4795-cmd/Bank2/internal/middleware"
	"github.com/Vasu-4795-cmd/Bank2/internal/services"
)

// QRHandler exposes payment-request codes: generate one for the
// authenticated account, or pay one (which runs a normal deposit against
// the requesting account).
type QRHandler struct {
	qr        *services.QRService
	ledger    *services.LedgerService
	validator *services.ValidationHelper
}

func NewQRHandler(qr *services.QRService, ledger *services.LedgerService) *QRHandler {
	return &QRHandler{
		qr:        qr,
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

// GenerateQR creates a payment request for the authenticated account
// @Summary Generate a payment-request QR code
// @Tags qr
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /qr/generate [post]
func (h *QRHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	accountNo, ok := r.Context().Value(middleware.ContextKeyAccountNo).(int64)
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	code, image, err := h.qr.GeneratePaymentRequest(r.Context(), accountNo, req.Amount)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"code":  code,
		"image": image,
	})
}

// PayQR resolves a payment-request code and deposits its amount into the
// requesting account
// @Summary Pay a payment request
// @Tags qr
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /qr/pay [post]
func (h *QRHandler) PayQR(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code" validate:"required"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	request, err := h.qr.ResolvePaymentRequest(r.Context(), req.Code)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	newBalance, err := h.ledger.Deposit(r.Context(), request.AccountNo, request.Amount)
	if err != nil {
		sendDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BalanceResponse{AccountNo: request.AccountNo, Balance: newBalance})
}
