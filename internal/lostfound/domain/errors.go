package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the usecase layer matches exactly one of these with errors.Is.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("service unavailable")
)

var (
	ErrListingNotFound = fmt.Errorf("%w: listing", ErrNotFound)
	ErrMessageNotFound = fmt.Errorf("%w: message", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("%w: user", ErrNotFound)

	ErrNotListingOwner  = fmt.Errorf("%w: only the listing owner may do this", ErrForbidden)
	ErrSelfMessage      = fmt.Errorf("%w: owners cannot message their own listing", ErrForbidden)
	ErrNotMessageTarget = fmt.Errorf("%w: only the receiver may mark a message read", ErrForbidden)

	ErrListingClosed    = fmt.Errorf("%w: listing already closed", ErrConflict)
	ErrNoReunionPartner = fmt.Errorf("%w: listing has no messages to confirm a reunion with", ErrConflict)
)

var kinds = []error{ErrValidation, ErrNotFound, ErrForbidden, ErrConflict, ErrUnavailable}

// Kind returns the taxonomy member err belongs to, or nil when it belongs to none.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Invalid builds a validation error for a named field.
func Invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}

// Unavailable wraps a collaborator failure as retryable. Errors already carrying a kind pass through.
func Unavailable(op string, err error) error {
	if err == nil || Kind(err) != nil {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
