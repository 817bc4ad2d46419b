package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// RentalStatus is a state of the rental lifecycle.
type RentalStatus string

const (
	RentalWaitingForPayment RentalStatus = "waiting_for_payment"
	RentalPaid              RentalStatus = "paid"
	RentalCompleted         RentalStatus = "completed"
	RentalCanceled          RentalStatus = "canceled"
)

var rentalTransitions = map[RentalStatus][]RentalStatus{
	RentalWaitingForPayment: {RentalPaid, RentalCanceled},
	RentalPaid:              {RentalCompleted, RentalCanceled},
}

// Valid reports whether s is one of the known lifecycle states.
func (s RentalStatus) Valid() bool {
	switch s {
	case RentalWaitingForPayment, RentalPaid, RentalCompleted, RentalCanceled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s RentalStatus) Terminal() bool {
	return s == RentalCompleted || s == RentalCanceled
}

// CanTransition reports whether the lifecycle graph has an edge from s to next.
func (s RentalStatus) CanTransition(next RentalStatus) bool {
	for _, allowed := range rentalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Rental is one reservation of a listing for an inclusive range of whole days.
type Rental struct {
	ID               int64           `db:"id" json:"id"`
	ListingID        int64           `db:"listing_id" json:"listing_id"`
	RenterID         int64           `db:"renter_id" json:"renter_id"`
	OwnerID          int64           `db:"owner_id" json:"owner_id"`
	StartDate        time.Time       `db:"start_date" json:"start_date"`
	EndDate          time.Time       `db:"end_date" json:"end_date"`
	TotalPrice       decimal.Decimal `db:"total_price" json:"total_price"`
	Currency         string          `db:"currency" json:"currency"`
	Status           RentalStatus    `db:"status" json:"status"`
	Code             string          `db:"code" json:"code"`
	PaymentReference string          `db:"payment_reference" json:"payment_reference,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Range returns the reserved days.
func (r Rental) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// IsParty reports whether the user is the renter or the owner.
func (r Rental) IsParty(userID int64) bool {
	return r.RenterID == userID || r.OwnerID == userID
}

// DateRange is a closed interval of whole days.
type DateRange struct {
	Start time.Time `db:"start_date"`
	End   time.Time `db:"end_date"`
}

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Days returns the inclusive number of days in the range. It counts from Unix
// seconds since time.Duration saturates at roughly 292 years.
func (r DateRange) Days() int {
	return int((Day(r.End).Unix()-Day(r.Start).Unix())/secondsPerDay) + 1
}

const secondsPerDay = 24 * 60 * 60

// Contains reports whether day lies within the range, both ends included.
func (r DateRange) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(Day(r.Start)) && !d.After(Day(r.End))
}

// Overlaps reports whether the two ranges share at least one day.
func (r DateRange) Overlaps(other DateRange) bool {
	return !Day(r.End).Before(Day(other.Start)) && !Day(other.End).Before(Day(r.Start))
}

func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}{r.Start.Format(DateLayout), r.End.Format(DateLayout)})
}
