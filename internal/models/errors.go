package models

import (
	"errors"
	"fmt"
)

// Failure taxonomy surfaced to callers. Store failures are passed through
// wrapped, never retried and never transformed beyond the operation tag.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrPermissionDenied = errors.New("permission denied")
)

// WrapStore tags a failed store call with the operation that issued it,
// keeping both the taxonomy sentinel and the underlying cause reachable
// through errors.Is.
func WrapStore(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStoreUnavailable, err))
}

// Invalid rejects bad input before any store call is made.
func Invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}
