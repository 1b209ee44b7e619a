package core

import (
	"errors"
	"fmt"
)

var (
	// ErrModelNotFound is wrapped by EntityStore implementations when an
	// entity has no backing table or model.
	ErrModelNotFound = errors.New("model not found")

	// ErrUniqueViolation and ErrForeignKeyViolation are wrapped by stores
	// that detect constraint failures themselves.
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")

	// ErrInvalidOrder is returned when a descriptor references an entity
	// declared at a later position.
	ErrInvalidOrder = errors.New("invalid descriptor order")
)

// SkipError marks a row as intentionally dropped by a transform. It is
// reported as a warning rather than an error.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return e.Reason
}

// Skipf builds a SkipError with a formatted reason.
func Skipf(format string, args ...any) error {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

// IsSkip reports whether err asks for a soft skip.
func IsSkip(err error) bool {
	var se *SkipError
	return errors.As(err, &se)
}
