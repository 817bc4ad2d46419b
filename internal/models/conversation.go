package models

import "time"

// Conversation is the pre-booking inquiry thread between two parties about one listing.
type Conversation struct {
	ID              int64      `db:"id" json:"id"`
	ListingID       int64      `db:"listing_id" json:"listing_id"`
	SenderID        int64      `db:"sender_id" json:"sender_id"`
	RecipientID     int64      `db:"recipient_id" json:"recipient_id"`
	LastMessageText string     `db:"last_message_text" json:"last_message_text,omitempty"`
	LastMessageAt   *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
	LastMessageID   *int64     `db:"last_message_id" json:"-"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// IsParty reports whether the user is one of the two participants.
func (c Conversation) IsParty(userID int64) bool {
	return c.SenderID == userID || c.RecipientID == userID
}

// ConversationSummary is a conversation as listed for one of its participants.
type ConversationSummary struct {
	Conversation
	UnreadCount int64 `db:"unread_count" json:"unread_count"`
}
