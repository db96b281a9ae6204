// Package apperr holds the error kinds shared by services and handlers.
// Services wrap these with context; handlers map them to status codes with
// errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrPersistence  = errors.New("persistence failure")
	ErrValidation   = errors.New("validation failed")
)

// Persistence marks err as a store failure while keeping the cause in the chain.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", ErrPersistence, op, err)
}
