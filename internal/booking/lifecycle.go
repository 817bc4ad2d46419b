package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
	"rental-service/internal/observability"
	"rental-service/internal/repositories"
)

var tracer = otel.Tracer("rental-service/booking")

// Notifier receives lifecycle events. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, event models.ThreadEvent)
}

// NewRental is a booking request. OwnerID may be zero, in which case the
// listing's owner is used.
type NewRental struct {
	ListingID int64
	RenterID  int64
	OwnerID   int64
	Start     time.Time
	End       time.Time
}

// Service runs the rental lifecycle on top of the calendar.
type Service struct {
	calendar     *Calendar
	listings     repositories.ListingRepository
	rentals      repositories.RentalRepository
	notifier     Notifier
	generateCode func() (string, error)
}

// NewService builds the lifecycle service.
func NewService(calendar *Calendar, listings repositories.ListingRepository, rentals repositories.RentalRepository, notifier Notifier) *Service {
	return &Service{
		calendar:     calendar,
		listings:     listings,
		rentals:      rentals,
		notifier:     notifier,
		generateCode: GenerateCode,
	}
}

// Calendar exposes the availability component the service books against.
func (s *Service) Calendar() *Calendar {
	return s.calendar
}

// CreateRental validates the range, prices it and stores the rental in
// waiting_for_payment with a fresh access code.
func (s *Service) CreateRental(ctx context.Context, req NewRental) (models.Rental, error) {
	ctx, span := tracer.Start(ctx, "booking.CreateRental")
	defer span.End()
	span.SetAttributes(attribute.Int64("listing.id", req.ListingID))

	rental, err := s.createRental(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		observability.IncBooking(bookingResult(err))
		return models.Rental{}, err
	}
	observability.IncBooking("created")
	s.notify(ctx, rental)
	return rental, nil
}

func (s *Service) createRental(ctx context.Context, req NewRental) (models.Rental, error) {
	if req.RenterID == 0 {
		return models.Rental{}, apperr.ErrUnauthenticated
	}
	requested, err := normalize(req.Start, req.End)
	if err != nil {
		return models.Rental{}, err
	}

	listing, err := s.calendar.listing(ctx, req.ListingID)
	if err != nil {
		return models.Rental{}, err
	}
	if req.OwnerID != 0 && req.OwnerID != listing.OwnerID {
		return models.Rental{}, apperr.Forbidden("owner does not own this listing")
	}
	if listing.OwnerID == req.RenterID {
		return models.Rental{}, apperr.Forbidden("owners cannot rent their own listing")
	}
	if listing.Status != models.ListingActive {
		return models.Rental{}, &apperr.ConflictError{ListingID: listing.ID, Range: requested, Reason: "listing is not available"}
	}
	if err := s.calendar.check(ctx, listing.ID, requested); err != nil {
		return models.Rental{}, err
	}

	rental := models.Rental{
		ListingID:  listing.ID,
		RenterID:   req.RenterID,
		OwnerID:    listing.OwnerID,
		StartDate:  requested.Start,
		EndDate:    requested.End,
		TotalPrice: listing.DailyPrice.Mul(decimal.NewFromInt(int64(requested.Days()))),
		Currency:   listing.Currency,
		Status:     models.RentalWaitingForPayment,
	}

	for {
		rental.Code, err = s.uniqueCode(ctx)
		if err != nil {
			return models.Rental{}, err
		}
		created, err := s.rentals.CreateRental(ctx, rental)
		switch {
		case err == nil:
			return created, nil
		case errors.Is(err, repositories.ErrDuplicateCode):
			// Another booking took the code between the check and the insert.
			continue
		case errors.Is(err, repositories.ErrRentalOverlap):
			return models.Rental{}, &apperr.ConflictError{ListingID: listing.ID, Range: requested, Reason: "dates overlap an existing booking"}
		case errors.Is(err, repositories.ErrListingNotFound):
			return models.Rental{}, apperr.NotFound("listing", listing.ID)
		default:
			return models.Rental{}, apperr.Storage("insert rental", err)
		}
	}
}

// uniqueCode regenerates until a code with no exact match exists.
func (s *Service) uniqueCode(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := s.generateCode()
		if err != nil {
			return "", apperr.Storage("generate rental code", err)
		}
		exists, err := s.rentals.CodeExists(ctx, code)
		if err != nil {
			return "", apperr.Storage("check rental code", err)
		}
		if !exists {
			return code, nil
		}
	}
}

// Transition moves a rental along the lifecycle graph on behalf of actor.
// Renters may only cancel; owners and admins may take any edge.
func (s *Service) Transition(ctx context.Context, rentalID int64, actor models.Actor, target models.RentalStatus) (models.Rental, error) {
	ctx, span := tracer.Start(ctx, "booking.Transition")
	defer span.End()
	span.SetAttributes(attribute.Int64("rental.id", rentalID), attribute.String("rental.target", string(target)))

	rental, err := s.GetRental(ctx, rentalID, actor)
	if err != nil {
		return models.Rental{}, err
	}
	if err := authorizeTransition(rental, actor, target); err != nil {
		return models.Rental{}, err
	}
	if !rental.Status.CanTransition(target) {
		return models.Rental{}, &apperr.TransitionError{From: rental.Status, To: target}
	}

	updated, err := s.rentals.UpdateRentalStatus(ctx, rental.ID, rental.Status, target)
	if errors.Is(err, repositories.ErrStaleStatus) {
		current, getErr := s.rentals.GetRental(ctx, rental.ID)
		if getErr != nil {
			return models.Rental{}, apperr.Storage("reload rental", getErr)
		}
		return models.Rental{}, &apperr.TransitionError{From: current.Status, To: target}
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.Rental{}, apperr.Storage("update rental status", err)
	}

	observability.IncTransition(string(rental.Status), string(target))
	log.Printf("rental transition rental_id=%d actor=%d from=%s to=%s", rental.ID, actor.UserID, rental.Status, target)
	s.notify(ctx, updated)
	return updated, nil
}

func authorizeTransition(rental models.Rental, actor models.Actor, target models.RentalStatus) error {
	switch {
	case actor.Admin, actor.UserID == rental.OwnerID:
		return nil
	case actor.UserID == rental.RenterID:
		if target != models.RentalCanceled {
			return apperr.Forbidden(fmt.Sprintf("renter cannot move rental to %s", target))
		}
		return nil
	}
	return apperr.Forbidden("not a party to this rental")
}

// RecordPaymentReference stores a free-text payment note on an open rental.
func (s *Service) RecordPaymentReference(ctx context.Context, rentalID int64, actor models.Actor, reference string) (models.Rental, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return models.Rental{}, apperr.Invalid("payment reference is empty")
	}
	rental, err := s.GetRental(ctx, rentalID, actor)
	if err != nil {
		return models.Rental{}, err
	}
	if rental.Status.Terminal() {
		return models.Rental{}, fmt.Errorf("%w: payment reference cannot change once rental is %s", apperr.ErrInvalidTransition, rental.Status)
	}

	updated, err := s.rentals.SetPaymentReference(ctx, rental.ID, reference)
	if errors.Is(err, repositories.ErrStaleStatus) {
		return models.Rental{}, fmt.Errorf("%w: rental was closed concurrently", apperr.ErrInvalidTransition)
	}
	if err != nil {
		return models.Rental{}, apperr.Storage("set payment reference", err)
	}
	return updated, nil
}

// GetRental returns a rental visible to its renter, its owner or an admin.
func (s *Service) GetRental(ctx context.Context, rentalID int64, actor models.Actor) (models.Rental, error) {
	rental, err := s.rentals.GetRental(ctx, rentalID)
	if errors.Is(err, repositories.ErrRentalNotFound) {
		return models.Rental{}, apperr.NotFound("rental", rentalID)
	}
	if err != nil {
		return models.Rental{}, apperr.Storage("get rental", err)
	}
	if !actor.Admin && !rental.IsParty(actor.UserID) {
		return models.Rental{}, apperr.Forbidden("not a party to this rental")
	}
	return rental, nil
}

// ListRentals returns the user's rentals on either side, newest first.
func (s *Service) ListRentals(ctx context.Context, userID int64) ([]models.Rental, error) {
	rentals, err := s.rentals.ListRentalsForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("list rentals", err)
	}
	return rentals, nil
}

func (s *Service) notify(ctx context.Context, rental models.Rental) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, models.ThreadEvent{
		Type:    models.EventRentalStatus,
		UserIDs: []int64{rental.RenterID, rental.OwnerID},
		Rental:  &rental,
	})
}

func bookingResult(err error) string {
	switch {
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	case errors.Is(err, apperr.ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, apperr.ErrStorage):
		return "storage_error"
	}
	return "rejected"
}
