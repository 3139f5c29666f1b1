package handlers

import (
	"errors"
	"net/http"

	"github.com/Vasu-4795-cmd/Bank2/internal/services"
)

// statusForError maps a domain error onto an HTTP status and a message
// safe to show callers. Anything outside the taxonomy is a 500 with no
// internals leaked.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		return http.StatusBadRequest, services.ErrInvalidAmount.Error()
	case errors.Is(err, services.ErrAccountNotFound):
		return http.StatusNotFound, services.ErrAccountNotFound.Error()
	case errors.Is(err, services.ErrDuplicateIdentity):
		return http.StatusConflict, services.ErrDuplicateIdentity.Error()
	case errors.Is(err, services.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, services.ErrInsufficientFunds.Error()
	case errors.Is(err, services.ErrPaymentRequestNotFound):
		return http.StatusNotFound, services.ErrPaymentRequestNotFound.Error()
	default:
		return http.StatusInternalServerError, "An internal error occurred"
	}
}

func sendDomainError(w http.ResponseWriter, err error) {
	status, message := statusForError(err)
	services.SendErrorResponse(w, message, status, nil)
}
