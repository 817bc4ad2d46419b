package booking

import (
	"context"
	"errors"
	"sort"
	"time"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

// Calendar answers availability questions for a listing from its active rentals.
type Calendar struct {
	listings repositories.ListingRepository
	rentals  repositories.RentalRepository
}

// NewCalendar builds a Calendar.
func NewCalendar(listings repositories.ListingRepository, rentals repositories.RentalRepository) *Calendar {
	return &Calendar{listings: listings, rentals: rentals}
}

// BlockedRanges returns the ranges held by every non-canceled rental of the listing,
// ascending by start date.
func (c *Calendar) BlockedRanges(ctx context.Context, listingID int64) ([]models.DateRange, error) {
	if _, err := c.listing(ctx, listingID); err != nil {
		return nil, err
	}
	return c.blocked(ctx, listingID)
}

// IsDateBlocked reports whether day falls inside any blocked range, ends included.
func (c *Calendar) IsDateBlocked(ctx context.Context, listingID int64, day time.Time) (bool, error) {
	ranges, err := c.BlockedRanges(ctx, listingID)
	if err != nil {
		return false, err
	}
	for _, r := range ranges {
		if r.Contains(day) {
			return true, nil
		}
	}
	return false, nil
}

// ValidateRange checks [start, end] against the calendar and returns the
// inclusive day count used for pricing. A nil error is only a pre-filter: the
// store still rejects a conflicting insert that raced past this check.
func (c *Calendar) ValidateRange(ctx context.Context, listingID int64, start, end time.Time) (int, error) {
	requested, err := normalize(start, end)
	if err != nil {
		return 0, err
	}
	if _, err := c.listing(ctx, listingID); err != nil {
		return 0, err
	}
	if err := c.check(ctx, listingID, requested); err != nil {
		return 0, err
	}
	return requested.Days(), nil
}

func normalize(start, end time.Time) (models.DateRange, error) {
	r := models.DateRange{Start: models.Day(start), End: models.Day(end)}
	if r.End.Before(r.Start) {
		return models.DateRange{}, apperr.ErrInvalidRange
	}
	return r, nil
}

func (c *Calendar) check(ctx context.Context, listingID int64, requested models.DateRange) error {
	ranges, err := c.blocked(ctx, listingID)
	if err != nil {
		return err
	}
	for _, r := range ranges {
		if r.Overlaps(requested) {
			return &apperr.ConflictError{ListingID: listingID, Range: requested, Reason: "dates overlap an existing booking"}
		}
	}
	return nil
}

func (c *Calendar) blocked(ctx context.Context, listingID int64) ([]models.DateRange, error) {
	ranges, err := c.rentals.ActiveRanges(ctx, listingID)
	if err != nil {
		return nil, apperr.Storage("load blocked ranges", err)
	}
	out := make([]models.DateRange, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, models.DateRange{Start: models.Day(r.Start), End: models.Day(r.End)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (c *Calendar) listing(ctx context.Context, listingID int64) (models.Listing, error) {
	listing, err := c.listings.GetListing(ctx, listingID)
	if errors.Is(err, repositories.ErrListingNotFound) {
		return models.Listing{}, apperr.NotFound("listing", listingID)
	}
	if err != nil {
		return models.Listing{}, apperr.Storage("get listing", err)
	}
	return listing, nil
}
