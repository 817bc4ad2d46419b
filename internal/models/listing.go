package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingStatus is the publication state of a listing.
type ListingStatus string

const (
	ListingDraft    ListingStatus = "draft"
	ListingActive   ListingStatus = "active"
	ListingInactive ListingStatus = "inactive"
)

// Listing is a single lendable item. One listing is one exclusive resource.
type Listing struct {
	ID              int64           `db:"id" json:"id"`
	OwnerID         int64           `db:"owner_id" json:"owner_id"`
	Title           string          `db:"title" json:"title"`
	DailyPrice      decimal.Decimal `db:"daily_price" json:"daily_price"`
	SecurityDeposit decimal.Decimal `db:"security_deposit" json:"security_deposit"`
	Currency        string          `db:"currency" json:"currency"`
	Status          ListingStatus   `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// CanMoveTo reports whether the listing may change from its current status to next.
func (l Listing) CanMoveTo(next ListingStatus) bool {
	switch l.Status {
	case ListingDraft:
		return next == ListingActive
	case ListingActive:
		return next == ListingInactive
	case ListingInactive:
		return next == ListingActive
	}
	return false
}
