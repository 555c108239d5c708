package validation

import "fmt"

// ErrorKind classifies a validation failure.
type ErrorKind string

// Validation failure kinds, in check order: shape, numeric domain, enum
// literals, non-emptiness.
const (
	KindMissingField ErrorKind = "MissingField"
	KindTypeMismatch ErrorKind = "TypeMismatch"
	KindInvalidEnum  ErrorKind = "InvalidEnum"
	KindEmptyResult  ErrorKind = "EmptyResult"
)

// Error is a structured validation failure for one candidate result.
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed (%s) at %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed (%s): %s", e.Kind, e.Message)
}
