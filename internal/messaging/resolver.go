package messaging

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

var tracer = otel.Tracer("rental-service/messaging")

// Resolver finds the canonical thread for two parties about one listing.
type Resolver struct {
	listings      repositories.ListingRepository
	rentals       repositories.RentalRepository
	conversations repositories.ConversationRepository
}

// NewResolver builds a Resolver.
func NewResolver(listings repositories.ListingRepository, rentals repositories.RentalRepository, conversations repositories.ConversationRepository) *Resolver {
	return &Resolver{listings: listings, rentals: rentals, conversations: conversations}
}

// ResolveThread returns the rental's own thread when rentalID is given (a
// non-zero listingID must then match the rental's listing), and
// otherwise finds or creates the single conversation for the listing and the
// unordered pair. Pre-booking and post-booking threads are never merged.
func (r *Resolver) ResolveThread(ctx context.Context, listingID, partyA, partyB int64, rentalID *int64) (models.Thread, error) {
	ctx, span := tracer.Start(ctx, "messaging.ResolveThread")
	defer span.End()

	if partyA == 0 {
		return models.Thread{}, apperr.ErrUnauthenticated
	}
	if rentalID != nil {
		return r.rentalThread(ctx, listingID, *rentalID, partyA)
	}
	if partyA == partyB || partyB <= 0 {
		return models.Thread{}, apperr.Invalid("a conversation needs two different parties")
	}

	if _, err := r.listings.GetListing(ctx, listingID); err != nil {
		if errors.Is(err, repositories.ErrListingNotFound) {
			return models.Thread{}, apperr.NotFound("listing", listingID)
		}
		return models.Thread{}, apperr.Storage("get listing", err)
	}

	conv, err := r.conversations.FindConversation(ctx, listingID, partyA, partyB)
	if errors.Is(err, repositories.ErrConversationNotFound) {
		conv, err = r.conversations.CreateConversation(ctx, listingID, partyA, partyB)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrListingNotFound) {
			return models.Thread{}, apperr.NotFound("listing", listingID)
		}
		return models.Thread{}, apperr.Storage("resolve conversation", err)
	}
	return conversationThread(conv), nil
}

func (r *Resolver) rentalThread(ctx context.Context, listingID, rentalID, caller int64) (models.Thread, error) {
	rental, err := r.rentals.GetRental(ctx, rentalID)
	if errors.Is(err, repositories.ErrRentalNotFound) {
		return models.Thread{}, apperr.NotFound("rental", rentalID)
	}
	if err != nil {
		return models.Thread{}, apperr.Storage("get rental", err)
	}
	if !rental.IsParty(caller) {
		return models.Thread{}, apperr.Forbidden("not a party to this rental")
	}
	if listingID != 0 && listingID != rental.ListingID {
		return models.Thread{}, apperr.Invalid("rental does not belong to the listing")
	}
	return rentalThread(rental), nil
}

// ListConversations returns the user's conversations with unread counts.
func (r *Resolver) ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	summaries, err := r.conversations.ListConversations(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("list conversations", err)
	}
	return summaries, nil
}

func conversationThread(conv models.Conversation) models.Thread {
	return models.Thread{
		Ref:       models.ConversationThread(conv.ID),
		ListingID: conv.ListingID,
		PartyA:    conv.SenderID,
		PartyB:    conv.RecipientID,
	}
}

func rentalThread(rental models.Rental) models.Thread {
	return models.Thread{
		Ref:       models.RentalThread(rental.ID),
		ListingID: rental.ListingID,
		PartyA:    rental.RenterID,
		PartyB:    rental.OwnerID,
	}
}
