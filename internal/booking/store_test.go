package booking

import (
	"context"
	"sync"
	"time"

	"rental-service/internal/models"
	"rental-service/internal/repositories"
)

// memStore keeps listings and rentals in memory and enforces the same
// no-overlap and unique-code rules as the database constraints.
type memStore struct {
	mu       sync.Mutex
	listings map[int64]models.Listing
	rentals  map[int64]models.Rental
	nextID   int64
	// beforeInsert runs inside CreateRental before the constraint check.
	beforeInsert func()
}

func newMemStore() *memStore {
	return &memStore{listings: map[int64]models.Listing{}, rentals: map[int64]models.Rental{}}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) CreateListing(ctx context.Context, listing models.Listing) (models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing.ID = s.id()
	if listing.Status == "" {
		listing.Status = models.ListingDraft
	}
	listing.CreatedAt = time.Now()
	listing.UpdatedAt = listing.CreatedAt
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
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[listingID]
	if !ok {
		return models.Listing{}, repositories.ErrListingNotFound
	}
	if listing.Status != from {
		return models.Listing{}, repositories.ErrStaleStatus
	}
	listing.Status = to
	s.listings[listingID] = listing
	return listing, nil
}

func (s *memStore) ActiveRanges(ctx context.Context, listingID int64) ([]models.DateRange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DateRange
	for _, r := range s.rentals {
		if r.ListingID == listingID && r.Status != models.RentalCanceled {
			out = append(out, r.Range())
		}
	}
	return out, nil
}

func (s *memStore) CodeExists(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rentals {
		if r.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CreateRental(ctx context.Context, rental models.Rental) (models.Rental, error) {
	if s.beforeInsert != nil {
		s.beforeInsert()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[rental.ListingID]; !ok {
		return models.Rental{}, repositories.ErrListingNotFound
	}
	for _, existing := range s.rentals {
		if existing.Code == rental.Code {
			return models.Rental{}, repositories.ErrDuplicateCode
		}
		if existing.ListingID == rental.ListingID && existing.Status != models.RentalCanceled && existing.Range().Overlaps(rental.Range()) {
			return models.Rental{}, repositories.ErrRentalOverlap
		}
	}
	rental.ID = s.id()
	rental.CreatedAt = time.Now()
	rental.UpdatedAt = rental.CreatedAt
	s.rentals[rental.ID] = rental
	return rental, nil
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
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Rental
	for _, r := range s.rentals {
		if r.IsParty(userID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) UpdateRentalStatus(ctx context.Context, rentalID int64, from, to models.RentalStatus) (models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rental, ok := s.rentals[rentalID]
	if !ok {
		return models.Rental{}, repositories.ErrRentalNotFound
	}
	if rental.Status != from {
		return models.Rental{}, repositories.ErrStaleStatus
	}
	rental.Status = to
	s.rentals[rentalID] = rental
	return rental, nil
}

func (s *memStore) SetPaymentReference(ctx context.Context, rentalID int64, reference string) (models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rental, ok := s.rentals[rentalID]
	if !ok {
		return models.Rental{}, repositories.ErrRentalNotFound
	}
	if rental.Status.Terminal() {
		return models.Rental{}, repositories.ErrStaleStatus
	}
	rental.PaymentReference = reference
	s.rentals[rentalID] = rental
	return rental, nil
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
