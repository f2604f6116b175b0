package errors

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by blob stores for missing objects.
var ErrNotFound = errors.New("not found")

// Is reports whether err or anything it wraps is of type T.
func Is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// ValidationError is input that passed request decoding but breaks a domain
// rule, e.g. a reference to an unknown category.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation error: %s", e.Message)
}
