package messaging

import (
	"context"
	"sync"
	"time"

	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

// memStore is an in-memory stand-in for the listing, rental, conversation
// and message tables, with the pair uniqueness and last-message rules of the
// real schema.
type memStore struct {
	mu            sync.Mutex
	clock         time.Time
	nextID        int64
	listings      map[int64]models.Listing
	rentals       map[int64]models.Rental
	conversations map[int64]models.Conversation
	messages      []models.Message
}

func newMemStore() *memStore {
	return &memStore{
		clock:         time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		listings:      map[int64]models.Listing{},
		rentals:       map[int64]models.Rental{},
		conversations: map[int64]models.Conversation{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) addListing(ownerID int64) models.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing := models.Listing{ID: s.id(), OwnerID: ownerID, Status: models.ListingActive, Currency: "EUR"}
	s.listings[listing.ID] = listing
	return listing
}

func (s *memStore) addRental(listing models.Listing, renterID int64) models.Rental {
	s.mu.Lock()
	defer s.mu.Unlock()
	rental := models.Rental{ID: s.id(), ListingID: listing.ID, RenterID: renterID, OwnerID: listing.OwnerID, Status: models.RentalWaitingForPayment}
	s.rentals[rental.ID] = rental
	return rental
}

func (s *memStore) CreateListing(ctx context.Context, listing models.Listing) (models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing.ID = s.id()
	s.listings[listing.ID] = listing
	return listing, nil
}

func (s *memStore) GetListing(ctx context.Context, listingID int64) (models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[listingID]
	if !ok {
		return models.Listing{}, repositories.ErrListingNotFound
	}
	return listing, nil
}

func (s *memStore) UpdateListingStatus(ctx context.Context, listingID int64, from, to models.ListingStatus) (models.Listing, error) {
	return models.Listing{}, repositories.ErrStaleStatus
}

func (s *memStore) ActiveRanges(ctx context.Context, listingID int64) ([]models.DateRange, error) {
	return nil, nil
}

func (s *memStore) CodeExists(ctx context.Context, code string) (bool, error) {
	return false, nil
}

func (s *memStore) CreateRental(ctx context.Context, rental models.Rental) (models.Rental, error) {
	return models.Rental{}, repositories.ErrRentalOverlap
}

func (s *memStore) GetRental(ctx context.Context, rentalID int64) (models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rental, ok := s.rentals[rentalID]
	if !ok {
		return models.Rental{}, repositories.ErrRentalNotFound
	}
	return rental, nil
}

func (s *memStore) ListRentalsForUser(ctx context.Context, userID int64) ([]models.Rental, error) {
	return nil, nil
}

func (s *memStore) UpdateRentalStatus(ctx context.Context, rentalID int64, from, to models.RentalStatus) (models.Rental, error) {
	return models.Rental{}, repositories.ErrStaleStatus
}

func (s *memStore) SetPaymentReference(ctx context.Context, rentalID int64, reference string) (models.Rental, error) {
	return models.Rental{}, repositories.ErrStaleStatus
}

func (s *memStore) FindConversation(ctx context.Context, listingID, partyA, partyB int64) (models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(listingID, partyA, partyB)
}

func (s *memStore) find(listingID, partyA, partyB int64) (models.Conversation, error) {
	for _, conv := range s.conversations {
		if conv.ListingID == listingID && conv.IsParty(partyA) && conv.IsParty(partyB) {
			return conv, nil
		}
	}
	return models.Conversation{}, repositories.ErrConversationNotFound
}

func (s *memStore) CreateConversation(ctx context.Context, listingID, senderID, recipientID int64) (models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, err := s.find(listingID, senderID, recipientID); err == nil {
		return conv, nil
	}
	now := s.tick()
	conv := models.Conversation{ID: s.id(), ListingID: listingID, SenderID: senderID, RecipientID: recipientID, CreatedAt: now, UpdatedAt: now}
	s.conversations[conv.ID] = conv
	return conv, nil
}

func (s *memStore) GetConversation(ctx context.Context, conversationID int64) (models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return models.Conversation{}, repositories.ErrConversationNotFound
	}
	return conv, nil
}

func (s *memStore) ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ConversationSummary
	for _, conv := range s.conversations {
		if !conv.IsParty(userID) {
			continue
		}
		summary := models.ConversationSummary{Conversation: conv}
		for _, msg := range s.messages {
			if msg.Thread == models.ConversationThread(conv.ID) && msg.SenderID != userID && !msg.Read {
				summary.UnreadCount++
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *memStore) CreateMessage(ctx context.Context, thread models.ThreadRef, senderID int64, body string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.threadExists(thread) {
		return models.Message{}, repositories.ErrThreadNotFound
	}
	msg := models.Message{ID: s.id(), Thread: thread, SenderID: senderID, Body: body, CreatedAt: s.tick()}
	s.messages = append(s.messages, msg)
	if thread.Kind == models.ThreadConversation {
		conv := s.conversations[thread.ID]
		if newerThanSummary(conv, msg) {
			conv.LastMessageText = body
			conv.LastMessageAt = &msg.CreatedAt
			conv.LastMessageID = &msg.ID
			s.conversations[thread.ID] = conv
		}
	}
	return msg, nil
}

func (s *memStore) ListMessages(ctx context.Context, thread models.ThreadRef) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, msg := range s.messages {
		if msg.Thread == thread {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s *memStore) MarkRead(ctx context.Context, thread models.ThreadRef, readerID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var flipped int64
	for i, msg := range s.messages {
		if msg.Thread == thread && msg.SenderID != readerID && !msg.Read {
			s.messages[i].Read = true
			flipped++
		}
	}
	return flipped, nil
}

func (s *memStore) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, msg := range s.messages {
		if msg.SenderID == userID || msg.Read {
			continue
		}
		if s.participates(msg.Thread, userID) {
			count++
		}
	}
	return count, nil
}

func (s *memStore) participates(ref models.ThreadRef, userID int64) bool {
	if ref.Kind == models.ThreadConversation {
		return s.conversations[ref.ID].IsParty(userID)
	}
	return s.rentals[ref.ID].IsParty(userID)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.ThreadEvent
}

func (n *recordingNotifier) Notify(ctx context.Context, event models.ThreadEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (s *memStore) threadExists(ref models.ThreadRef) bool {
	if ref.Kind == models.ThreadConversation {
		_, ok := s.conversations[ref.ID]
		return ok
	}
	_, ok := s.rentals[ref.ID]
	return ok
}

// newerThanSummary mirrors the (last_message_at, last_message_id) guard of the SQL store.
func newerThanSummary(conv models.Conversation, msg models.Message) bool {
	if conv.LastMessageAt == nil || conv.LastMessageID == nil {
		return true
	}
	if msg.CreatedAt.Equal(*conv.LastMessageAt) {
		return msg.ID > *conv.LastMessageID
	}
	return msg.CreatedAt.After(*conv.LastMessageAt)
}
