package repositories

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrListingNotFound      = errors.New("listing not found")
	ErrRentalNotFound       = errors.New("rental not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrRentalOverlap        = errors.New("rental overlaps an active rental")
	ErrDuplicateCode        = errors.New("rental code already taken")
	ErrStaleStatus          = errors.New("row status changed concurrently")
	ErrThreadNotFound       = errors.New("thread not found")
)

// Postgres SQLSTATE codes the repositories translate.
const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
	pqExclusionViolation  = "23P01"
)

const rentalCodeConstraint = "rentals_code_key"

func pqCode(err error) (pq.ErrorCode, string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code, pqErr.Constraint
	}
	return "", ""
}

func translateRentalInsert(err error) error {
	code, constraint := pqCode(err)
	switch {
	case code == pqExclusionViolation:
		return ErrRentalOverlap
	case code == pqUniqueViolation && constraint == rentalCodeConstraint:
		return ErrDuplicateCode
	case code == pqForeignKeyViolation:
		return ErrListingNotFound
	}
	return err
}
