// Package apperr defines the error taxonomy shared by the booking and messaging core.
package apperr

import (
	"errors"
	"fmt"
	"log"

	"rental-service/internal/models"
)

var (
	ErrInvalidRange      = errors.New("end date is before start date")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrForbidden         = errors.New("forbidden")
	ErrEmptyMessage      = errors.New("message body is empty")
	ErrNotFound          = errors.New("not found")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidInput      = errors.New("invalid input")
	ErrStorage           = errors.New("storage error")
)

// ConflictError describes a booking that cannot be placed on the calendar.
type ConflictError struct {
	ListingID int64
	Range     models.DateRange
	Reason    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("listing %d is not available from %s to %s: %s",
		e.ListingID, e.Range.Start.Format(models.DateLayout), e.Range.End.Format(models.DateLayout), e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// TransitionError names a lifecycle edge that does not exist.
type TransitionError struct {
	From models.RentalStatus
	To   models.RentalStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move rental from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// NotFound wraps ErrNotFound with the missing entity.
func NotFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}

// Forbidden wraps ErrForbidden with a reason.
func Forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

// Invalid wraps ErrInvalidInput with a reason.
func Invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}

// Storage logs the underlying failure and hides it behind ErrStorage.
func Storage(op string, err error) error {
	log.Printf("storage failure op=%s: %v", op, err)
	return ErrStorage
}
