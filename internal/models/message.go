package models

import "time"

// Message is one entry in a thread. It is never edited; only Read flips.
type Message struct {
	ID        int64     `json:"id"`
	Thread    ThreadRef `json:"thread"`
	SenderID  int64     `json:"sender_id"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Event kinds pushed to live observers and the notification bus.
const (
	EventMessageCreated = "message.created"
	EventMessagesRead   = "messages.read"
	EventUnreadChanged  = "unread.changed"
	EventRentalStatus   = "rental.status"
)

// ThreadEvent is emitted through websockets and the notification bus.
type ThreadEvent struct {
	Type    string     `json:"type"`
	Thread  *ThreadRef `json:"thread,omitempty"`
	UserIDs []int64    `json:"user_ids,omitempty"`
	Message *Message   `json:"message,omitempty"`
	Count   int64      `json:"count"`
	Rental  *Rental    `json:"rental,omitempty"`
}
