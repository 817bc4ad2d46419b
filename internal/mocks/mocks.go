package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

type ListingRepositoryMock struct {
	mock.Mock
}

func (m *ListingRepositoryMock) CreateListing(ctx context.Context, listing models.Listing) (models.Listing, error) {
	args := m.Called(ctx, listing)
	var out models.Listing
	if val := args.Get(0); val != nil {
		out = val.(models.Listing)
	}
	return out, args.Error(1)
}

func (m *ListingRepositoryMock) GetListing(ctx context.Context, listingID int64) (models.Listing, error) {
	args := m.Called(ctx, listingID)
	var out models.Listing
	if val := args.Get(0); val != nil {
		out = val.(models.Listing)
	}
	return out, args.Error(1)
}

func (m *ListingRepositoryMock) UpdateListingStatus(ctx context.Context, listingID int64, from, to models.ListingStatus) (models.Listing, error) {
	args := m.Called(ctx, listingID, from, to)
	var out models.Listing
	if val := args.Get(0); val != nil {
		out = val.(models.Listing)
	}
	return out, args.Error(1)
}

type RentalRepositoryMock struct {
	mock.Mock
}

func (m *RentalRepositoryMock) ActiveRanges(ctx context.Context, listingID int64) ([]models.DateRange, error) {
	args := m.Called(ctx, listingID)
	var out []models.DateRange
	if val := args.Get(0); val != nil {
		out = val.([]models.DateRange)
	}
	return out, args.Error(1)
}

func (m *RentalRepositoryMock) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *RentalRepositoryMock) CreateRental(ctx context.Context, rental models.Rental) (models.Rental, error) {
	args := m.Called(ctx, rental)
	var out models.Rental
	if val := args.Get(0); val != nil {
		out = val.(models.Rental)
	}
	return out, args.Error(1)
}

func (m *RentalRepositoryMock) GetRental(ctx context.Context, rentalID int64) (models.Rental, error) {
	args := m.Called(ctx, rentalID)
	var out models.Rental
	if val := args.Get(0); val != nil {
		out = val.(models.Rental)
	}
	return out, args.Error(1)
}

func (m *RentalRepositoryMock) ListRentalsForUser(ctx context.Context, userID int64) ([]models.Rental, error) {
	args := m.Called(ctx, userID)
	var out []models.Rental
	if val := args.Get(0); val != nil {
		out = val.([]models.Rental)
	}
	return out, args.Error(1)
}

func (m *RentalRepositoryMock) UpdateRentalStatus(ctx context.Context, rentalID int64, from, to models.RentalStatus) (models.Rental, error) {
	args := m.Called(ctx, rentalID, from, to)
	var out models.Rental
	if val := args.Get(0); val != nil {
		out = val.(models.Rental)
	}
	return out, args.Error(1)
}

func (m *RentalRepositoryMock) SetPaymentReference(ctx context.Context, rentalID int64, reference string) (models.Rental, error) {
	args := m.Called(ctx, rentalID, reference)
	var out models.Rental
	if val := args.Get(0); val != nil {
		out = val.(models.Rental)
	}
	return out, args.Error(1)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) FindConversation(ctx context.Context, listingID, partyA, partyB int64) (models.Conversation, error) {
	args := m.Called(ctx, listingID, partyA, partyB)
	var out models.Conversation
	if val := args.Get(0); val != nil {
		out = val.(models.Conversation)
	}
	return out, args.Error(1)
}

func (m *ConversationRepositoryMock) CreateConversation(ctx context.Context, listingID, senderID, recipientID int64) (models.Conversation, error) {
	args := m.Called(ctx, listingID, senderID, recipientID)
	var out models.Conversation
	if val := args.Get(0); val != nil {
		out = val.(models.Conversation)
	}
	return out, args.Error(1)
}

func (m *ConversationRepositoryMock) GetConversation(ctx context.Context, conversationID int64) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var out models.Conversation
	if val := args.Get(0); val != nil {
		out = val.(models.Conversation)
	}
	return out, args.Error(1)
}

func (m *ConversationRepositoryMock) ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var out []models.ConversationSummary
	if val := args.Get(0); val != nil {
		out = val.([]models.ConversationSummary)
	}
	return out, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, thread models.ThreadRef, senderID int64, body string) (models.Message, error) {
	args := m.Called(ctx, thread, senderID, body)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, thread models.ThreadRef) ([]models.Message, error) {
	args := m.Called(ctx, thread)
	var out []models.Message
	if val := args.Get(0); val != nil {
		out = val.([]models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, thread models.ThreadRef, readerID int64) (int64, error) {
	args := m.Called(ctx, thread, readerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

var (
	_ repositories.ListingRepository      = (*ListingRepositoryMock)(nil)
	_ repositories.RentalRepository       = (*RentalRepositoryMock)(nil)
	_ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
	_ repositories.MessageRepository      = (*MessageRepositoryMock)(nil)
)
