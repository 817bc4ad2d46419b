package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"rental-service/internal/booking"
	"rental-service/internal/models"
)

type ListingServiceMock struct {
	mock.Mock
}

func (m *ListingServiceMock) CreateListing(ctx context.Context, req booking.NewListing) (models.Listing, error) {
	args := m.Called(ctx, req)
	var out models.Listing
	if val := args.Get(0); val != nil {
		out = val.(models.Listing)
	}
	return out, args.Error(1)
}

func (m *ListingServiceMock) GetListing(ctx context.Context, listingID int64) (models.Listing, error) {
	args := m.Called(ctx, listingID)
	var out models.Listing
	if val := args.Get(0); val != nil {
		out = val.(models.Listing)
	}
	return out, args.Error(1)
}

func (m *ListingServiceMock) SetListingStatus(ctx context.Context, listingID int64, actor models.Actor, status models.ListingStatus) (models.Listing, error) {
	args := m.Called(ctx, listingID, actor, status)
	var out models.Listing
	if val := args.Get(0); val != nil {
		out = val.(models.Listing)
	}
	return out, args.Error(1)
}

type AvailabilityServiceMock struct {
	mock.Mock
}

func (m *AvailabilityServiceMock) BlockedRanges(ctx context.Context, listingID int64) ([]models.DateRange, error) {
	args := m.Called(ctx, listingID)
	var out []models.DateRange
	if val := args.Get(0); val != nil {
		out = val.([]models.DateRange)
	}
	return out, args.Error(1)
}

func (m *AvailabilityServiceMock) IsDateBlocked(ctx context.Context, listingID int64, day time.Time) (bool, error) {
	args := m.Called(ctx, listingID, day)
	return args.Bool(0), args.Error(1)
}

func (m *AvailabilityServiceMock) ValidateRange(ctx context.Context, listingID int64, start, end time.Time) (int, error) {
	args := m.Called(ctx, listingID, start, end)
	return args.Int(0), args.Error(1)
}

type RentalServiceMock struct {
	mock.Mock
}

func (m *RentalServiceMock) CreateRental(ctx context.Context, req booking.NewRental) (models.Rental, error) {
	args := m.Called(ctx, req)
	var out models.Rental
	if val := args.Get(0); val != nil {
		out = val.(models.Rental)
	}
	return out, args.Error(1)
}

func (m *RentalServiceMock) Transition(ctx context.Context, rentalID int64, actor models.Actor, target models.RentalStatus) (models.Rental, error) {
	args := m.Called(ctx, rentalID, actor, target)
	var out models.Rental
	if val := args.Get(0); val != nil {
		out = val.(models.Rental)
	}
	return out, args.Error(1)
}

func (m *RentalServiceMock) RecordPaymentReference(ctx context.Context, rentalID int64, actor models.Actor, reference string) (models.Rental, error) {
	args := m.Called(ctx, rentalID, actor, reference)
	var out models.Rental
	if val := args.Get(0); val != nil {
		out = val.(models.Rental)
	}
	return out, args.Error(1)
}

func (m *RentalServiceMock) GetRental(ctx context.Context, rentalID int64, actor models.Actor) (models.Rental, error) {
	args := m.Called(ctx, rentalID, actor)
	var out models.Rental
	if val := args.Get(0); val != nil {
		out = val.(models.Rental)
	}
	return out, args.Error(1)
}

func (m *RentalServiceMock) ListRentals(ctx context.Context, userID int64) ([]models.Rental, error) {
	args := m.Called(ctx, userID)
	var out []models.Rental
	if val := args.Get(0); val != nil {
		out = val.([]models.Rental)
	}
	return out, args.Error(1)
}

type ThreadResolverMock struct {
	mock.Mock
}

func (m *ThreadResolverMock) ResolveThread(ctx context.Context, listingID, partyA, partyB int64, rentalID *int64) (models.Thread, error) {
	args := m.Called(ctx, listingID, partyA, partyB, rentalID)
	var out models.Thread
	if val := args.Get(0); val != nil {
		out = val.(models.Thread)
	}
	return out, args.Error(1)
}

func (m *ThreadResolverMock) ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var out []models.ConversationSummary
	if val := args.Get(0); val != nil {
		out = val.([]models.ConversationSummary)
	}
	return out, args.Error(1)
}

type MessageLedgerMock struct {
	mock.Mock
}

func (m *MessageLedgerMock) Thread(ctx context.Context, ref models.ThreadRef) (models.Thread, error) {
	args := m.Called(ctx, ref)
	var out models.Thread
	if val := args.Get(0); val != nil {
		out = val.(models.Thread)
	}
	return out, args.Error(1)
}

func (m *MessageLedgerMock) Send(ctx context.Context, ref models.ThreadRef, senderID int64, body string) (models.Message, error) {
	args := m.Called(ctx, ref, senderID, body)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageLedgerMock) ListMessages(ctx context.Context, ref models.ThreadRef) ([]models.Message, error) {
	args := m.Called(ctx, ref)
	var out []models.Message
	if val := args.Get(0); val != nil {
		out = val.([]models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageLedgerMock) MarkRead(ctx context.Context, ref models.ThreadRef, readerID int64) (int64, error) {
	args := m.Called(ctx, ref, readerID)
	return args.Get(0).(int64), args.Error(1)
}

type UnreadCounterMock struct {
	mock.Mock
}

func (m *UnreadCounterMock) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
