package widget

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("widget not found")

// NotFound wraps ErrNotFound with the missing id.
func NotFound(id uuid.UUID) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// ValidationError reports a value that breaks a widget or page invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
