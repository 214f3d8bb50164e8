package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/vehicle-rental/internal/repository"
)

// ErrValidation marks input the caller must fix (bad date range, unknown
// payment method, page bounds).
var ErrValidation = errors.New("validation failed")

// ErrStateConflict is returned when a payment outcome arrives for a
// payment that already settled the other way.
var ErrStateConflict = errors.New("state conflict")

// ErrPaymentNotPaid is returned by a success callback whose checkout
// session the provider has not collected.
var ErrPaymentNotPaid = fmt.Errorf("checkout not paid: %w", ErrStateConflict)

// Not-found sentinels wrap repository.ErrNotFound so callers can match
// either the specific or the generic value.
var (
	ErrPersonNotFound      = fmt.Errorf("person %w", repository.ErrNotFound)
	ErrGroupNotFound       = fmt.Errorf("group %w", repository.ErrNotFound)
	ErrAccessoryNotFound   = fmt.Errorf("accessory %w", repository.ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", repository.ErrNotFound)
	ErrPaymentNotFound     = fmt.Errorf("payment %w", repository.ErrNotFound)
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
