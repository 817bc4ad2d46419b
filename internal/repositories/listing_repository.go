package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"rental-service/internal/models"
)

// ListingRepository abstracts listing persistence.
type ListingRepository interface {
	CreateListing(ctx context.Context, listing models.Listing) (models.Listing, error)
	GetListing(ctx context.Context, listingID int64) (models.Listing, error)
	UpdateListingStatus(ctx context.Context, listingID int64, from, to models.ListingStatus) (models.Listing, error)
}

// ListingRepo is a sqlx implementation of ListingRepository.
type ListingRepo struct {
	db *sqlx.DB
}

// NewListingRepo constructs a ListingRepo.
func NewListingRepo(db *sqlx.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

const listingColumns = `id, owner_id, title, daily_price, security_deposit, currency, status, created_at, updated_at`

// CreateListing stores a new listing in draft.
func (r *ListingRepo) CreateListing(ctx context.Context, listing models.Listing) (models.Listing, error) {
	var created models.Listing
	err := r.db.QueryRowxContext(ctx, `INSERT INTO listings (owner_id, title, daily_price, security_deposit, currency, status)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+listingColumns,
		listing.OwnerID, listing.Title, listing.DailyPrice, listing.SecurityDeposit, listing.Currency, models.ListingDraft).
		StructScan(&created)
	return created, err
}

// GetListing fetches a listing by id.
func (r *ListingRepo) GetListing(ctx context.Context, listingID int64) (models.Listing, error) {
	var listing models.Listing
	err := r.db.GetContext(ctx, &listing, `SELECT `+listingColumns+` FROM listings WHERE id=$1`, listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Listing{}, ErrListingNotFound
	}
	return listing, err
}

// UpdateListingStatus moves a listing from one status to another, failing with
// ErrStaleStatus when the stored status is no longer from.
func (r *ListingRepo) UpdateListingStatus(ctx context.Context, listingID int64, from, to models.ListingStatus) (models.Listing, error) {
	var listing models.Listing
	err := r.db.GetContext(ctx, &listing, `UPDATE listings SET status=$3, updated_at=NOW() WHERE id=$1 AND status=$2 RETURNING `+listingColumns, listingID, from, to)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Listing{}, ErrStaleStatus
	}
	return listing, err
}
