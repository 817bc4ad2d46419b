package models

import (
	"errors"
	"fmt"
)

// ThreadKind names the parent type of a message sequence.
type ThreadKind string

const (
	ThreadConversation ThreadKind = "conversation"
	ThreadRental       ThreadKind = "rental"
)

// ErrInvalidThread is returned for references that do not name exactly one parent.
var ErrInvalidThread = errors.New("invalid thread reference")

// ThreadRef points at exactly one message parent.
type ThreadRef struct {
	Kind ThreadKind `json:"kind"`
	ID   int64      `json:"id"`
}

// ConversationThread references a conversation.
func ConversationThread(id int64) ThreadRef {
	return ThreadRef{Kind: ThreadConversation, ID: id}
}

// RentalThread references a rental.
func RentalThread(id int64) ThreadRef {
	return ThreadRef{Kind: ThreadRental, ID: id}
}

// ParseThreadRef builds a reference from its path form.
func ParseThreadRef(kind string, id int64) (ThreadRef, error) {
	ref := ThreadRef{Kind: ThreadKind(kind), ID: id}
	return ref, ref.Validate()
}

func (t ThreadRef) Validate() error {
	if t.Kind != ThreadConversation && t.Kind != ThreadRental {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidThread, t.Kind)
	}
	if t.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidThread)
	}
	return nil
}

func (t ThreadRef) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

// Thread is a resolved message parent with its two participants.
type Thread struct {
	Ref       ThreadRef `json:"thread"`
	ListingID int64     `json:"listing_id"`
	PartyA    int64     `json:"party_a"`
	PartyB    int64     `json:"party_b"`
}

// IsParty reports whether the user participates in the thread.
func (t Thread) IsParty(userID int64) bool {
	return t.PartyA == userID || t.PartyB == userID
}

// Counterpart returns the other participant.
func (t Thread) Counterpart(userID int64) int64 {
	if t.PartyA == userID {
		return t.PartyB
	}
	return t.PartyA
}
