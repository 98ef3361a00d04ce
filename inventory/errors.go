package inventory

import "errors"

var (
	// ErrNotFound is returned when a product id is missing so HTTP handlers can respond with 404.
	ErrNotFound = errors.New("product not found")
	// ErrConflict is returned when a write carries a stale version or reuses an existing id.
	ErrConflict = errors.New("product was modified concurrently")
	// ErrBusy is returned when the service goroutine does not accept work in time.
	ErrBusy = errors.New("inventory queue is busy")
)

// validationError communicates rule violations back to HTTP handlers.
type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

func newValidationError(msg string) error {
	return validationError{message: msg}
}

// IsValidation helps callers distinguish between business and infrastructure failures.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}
