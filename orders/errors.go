package orders

import "errors"

var (
	// ErrNotFound is returned when no order carries the requested id.
	ErrNotFound = errors.New("order not found")
	// ErrConflict is returned when a caller-supplied order id already exists.
	ErrConflict = errors.New("order already exists")
	// ErrInvalidTransition is returned when the requested status is not reachable from the current one.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrCancelWindowClosed is returned when an order is too old to be cancelled.
	ErrCancelWindowClosed = errors.New("cancellation window has closed")
	// ErrBusy is returned when the service goroutine does not accept work in time.
	ErrBusy = errors.New("order queue is busy")
)

type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

func newValidationError(msg string) error {
	return validationError{message: msg}
}

// IsValidation reports whether err was caused by bad caller input.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}
