package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"rental-service/internal/models"
)

// RentalRepository abstracts rental persistence.
type RentalRepository interface {
	ActiveRanges(ctx context.Context, listingID int64) ([]models.DateRange, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	CreateRental(ctx context.Context, rental models.Rental) (models.Rental, error)
	GetRental(ctx context.Context, rentalID int64) (models.Rental, error)
	ListRentalsForUser(ctx context.Context, userID int64) ([]models.Rental, error)
	UpdateRentalStatus(ctx context.Context, rentalID int64, from, to models.RentalStatus) (models.Rental, error)
	SetPaymentReference(ctx context.Context, rentalID int64, reference string) (models.Rental, error)
}

// RentalRepo is a sqlx implementation of RentalRepository.
type RentalRepo struct {
	db *sqlx.DB
}

// NewRentalRepo constructs a RentalRepo.
func NewRentalRepo(db *sqlx.DB) *RentalRepo {
	return &RentalRepo{db: db}
}

const rentalColumns = `id, listing_id, renter_id, owner_id, start_date, end_date, total_price, currency, status, code, payment_reference, created_at, updated_at`

// ActiveRanges returns the reserved ranges of every non-canceled rental, ordered by start date.
func (r *RentalRepo) ActiveRanges(ctx context.Context, listingID int64) ([]models.DateRange, error) {
	ranges := []models.DateRange{}
	err := r.db.SelectContext(ctx, &ranges, `SELECT start_date, end_date FROM rentals
        WHERE listing_id=$1 AND status <> $2
        ORDER BY start_date ASC`, listingID, models.RentalCanceled)
	return ranges, err
}

// CodeExists checks the whole code space for an exact match.
func (r *RentalRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM rentals WHERE code=$1)`, code)
	return exists, err
}

// CreateRental inserts a rental. The rentals_no_overlap constraint rejects a
// second active rental whose days intersect an existing one.
func (r *RentalRepo) CreateRental(ctx context.Context, rental models.Rental) (models.Rental, error) {
	var created models.Rental
	err := r.db.QueryRowxContext(ctx, `INSERT INTO rentals (listing_id, renter_id, owner_id, start_date, end_date, total_price, currency, status, code)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING `+rentalColumns,
		rental.ListingID, rental.RenterID, rental.OwnerID, rental.StartDate, rental.EndDate,
		rental.TotalPrice, rental.Currency, rental.Status, rental.Code).
		StructScan(&created)
	if err != nil {
		return models.Rental{}, translateRentalInsert(err)
	}
	return created, nil
}

// GetRental fetches a rental by id.
func (r *RentalRepo) GetRental(ctx context.Context, rentalID int64) (models.Rental, error) {
	var rental models.Rental
	err := r.db.GetContext(ctx, &rental, `SELECT `+rentalColumns+` FROM rentals WHERE id=$1`, rentalID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Rental{}, ErrRentalNotFound
	}
	return rental, err
}

// ListRentalsForUser returns rentals where the user is renter or owner, newest first.
func (r *RentalRepo) ListRentalsForUser(ctx context.Context, userID int64) ([]models.Rental, error) {
	rentals := []models.Rental{}
	err := r.db.SelectContext(ctx, &rentals, `SELECT `+rentalColumns+` FROM rentals
        WHERE renter_id=$1 OR owner_id=$1
        ORDER BY created_at DESC, id DESC`, userID)
	return rentals, err
}

// UpdateRentalStatus applies a transition only if the stored status still equals from.
func (r *RentalRepo) UpdateRentalStatus(ctx context.Context, rentalID int64, from, to models.RentalStatus) (models.Rental, error) {
	var rental models.Rental
	err := r.db.GetContext(ctx, &rental, `UPDATE rentals SET status=$3, updated_at=NOW()
        WHERE id=$1 AND status=$2 RETURNING `+rentalColumns, rentalID, from, to)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Rental{}, ErrStaleStatus
	}
	return rental, err
}

// SetPaymentReference stores the external payment note on an open rental.
func (r *RentalRepo) SetPaymentReference(ctx context.Context, rentalID int64, reference string) (models.Rental, error) {
	var rental models.Rental
	err := r.db.GetContext(ctx, &rental, `UPDATE rentals SET payment_reference=$2, updated_at=NOW()
        WHERE id=$1 AND status IN ($3, $4) RETURNING `+rentalColumns,
		rentalID, reference, models.RentalWaitingForPayment, models.RentalPaid)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Rental{}, ErrStaleStatus
	}
	return rental, err
}
