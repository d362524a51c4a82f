package usecase

import (
	"errors"
	"fmt"

	domain "github.com/mecber11/farmacia/internal/entity"
)

var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrNotFound              = errors.New("not found")
	ErrInvalidCredentials    = errors.New("invalid phone or password")
	ErrPhoneTaken            = errors.New("phone already registered")
	ErrInvalidInput          = errors.New("invalid input")
	ErrMedicationUnavailable = errors.New("medication unavailable")
	ErrStoreUnavailable      = errors.New("store unavailable")
	ErrDispatchFailed        = errors.New("order dispatch failed")
	ErrMissingRedirect       = errors.New("dispatch response has no redirect url")
	ErrDuplicateCheckout     = errors.New("duplicate checkout")
	ErrEmptyCart             = errors.New("cart is empty")

	ErrNotAuthenticated  = domain.ErrNotAuthenticated
	ErrInvalidTransition = domain.ErrInvalidTransition
)

// storeErr tags an unexpected persistence failure as a connectivity error.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
