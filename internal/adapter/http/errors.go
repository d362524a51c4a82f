package http

import (
	"errors"
	"net/http"

	"github.com/mecber11/farmacia/internal/usecase"
)

// statusFor maps usecase errors onto HTTP statuses and stable error codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound):
		return http.StatusUnauthorized, "session_not_found"
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, usecase.ErrNotAuthenticated):
		return http.StatusUnauthorized, "not_authenticated"
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, usecase.ErrMedicationUnavailable):
		return http.StatusNotFound, "medication_unavailable"
	case errors.Is(err, usecase.ErrPhoneTaken):
		return http.StatusConflict, "phone_taken"
	case errors.Is(err, usecase.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, usecase.ErrDuplicateCheckout):
		return http.StatusConflict, "duplicate_checkout"
	case errors.Is(err, usecase.ErrMissingRedirect):
		return http.StatusBadGateway, "missing_redirect"
	case errors.Is(err, usecase.ErrDispatchFailed):
		return http.StatusBadGateway, "dispatch_failed"
	case errors.Is(err, usecase.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
