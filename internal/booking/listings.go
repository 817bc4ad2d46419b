package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

// NewListing describes a listing to register.
type NewListing struct {
	OwnerID         int64
	Title           string
	DailyPrice      decimal.Decimal
	SecurityDeposit decimal.Decimal
	Currency        string
}

// CreateListing registers a listing in draft.
func (s *Service) CreateListing(ctx context.Context, req NewListing) (models.Listing, error) {
	if req.OwnerID == 0 {
		return models.Listing{}, apperr.ErrUnauthenticated
	}
	if strings.TrimSpace(req.Title) == "" {
		return models.Listing{}, apperr.Invalid("title is required")
	}
	if req.DailyPrice.IsNegative() || req.SecurityDeposit.IsNegative() {
		return models.Listing{}, apperr.Invalid("prices must not be negative")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return models.Listing{}, apperr.Invalid("currency must be a 3-letter code")
	}

	listing, err := s.listings.CreateListing(ctx, models.Listing{
		OwnerID:         req.OwnerID,
		Title:           strings.TrimSpace(req.Title),
		DailyPrice:      req.DailyPrice,
		SecurityDeposit: req.SecurityDeposit,
		Currency:        currency,
	})
	if err != nil {
		return models.Listing{}, apperr.Storage("create listing", err)
	}
	return listing, nil
}

// GetListing fetches a listing.
func (s *Service) GetListing(ctx context.Context, listingID int64) (models.Listing, error) {
	return s.calendar.listing(ctx, listingID)
}

// SetListingStatus publishes or withdraws a listing. Listings are never deleted.
func (s *Service) SetListingStatus(ctx context.Context, listingID int64, actor models.Actor, status models.ListingStatus) (models.Listing, error) {
	listing, err := s.calendar.listing(ctx, listingID)
	if err != nil {
		return models.Listing{}, err
	}
	if !actor.Admin && actor.UserID != listing.OwnerID {
		return models.Listing{}, apperr.Forbidden("only the owner can change a listing")
	}
	if !listing.CanMoveTo(status) {
		return models.Listing{}, apperr.Invalid("listing cannot move from " + string(listing.Status) + " to " + string(status))
	}

	updated, err := s.listings.UpdateListingStatus(ctx, listing.ID, listing.Status, status)
	if errors.Is(err, repositories.ErrStaleStatus) {
		return models.Listing{}, apperr.Invalid("listing status changed concurrently")
	}
	if err != nil {
		return models.Listing{}, apperr.Storage("update listing status", err)
	}
	return updated, nil
}
