package notes

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the id does not resolve to an active note.
	// Inactive (soft-deleted) notes report this, not ErrForbidden,
	// so their existence is not leaked to non-owners.
	ErrNotFound = errors.New("note not found")

	// ErrForbidden means the authorization guard rejected the caller.
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable wraps storage-layer failures. No partial
	// mutation is committed when it is returned.
	ErrUnavailable = errors.New("storage unavailable")
)

// ValidationError reports malformed input with a field-level message.
// The operation is not attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// unavailable marks a storage failure, keeping the cause in the chain.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
