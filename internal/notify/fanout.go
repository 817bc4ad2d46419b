package notify

import (
	"context"
	"log"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
	"rental-service/internal/observability"
	"rental-service/internal/repositories"
)

// LocalDelivery pushes an event to the sessions connected to this process.
type LocalDelivery interface {
	Deliver(event models.ThreadEvent)
}

// Broadcaster relays an event to every instance, each of which delivers locally.
type Broadcaster interface {
	Broadcast(ctx context.Context, event models.ThreadEvent) error
}

// BusPublisher is the external notification bus.
type BusPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Fanout keeps unread counters current for live sessions and forwards every
// event to the notification bus. Nothing it does can fail the write that
// produced the event.
type Fanout struct {
	messages repositories.MessageRepository
	local    LocalDelivery
	bridge   Broadcaster
	bus      BusPublisher
}

// NewFanout builds a Fanout. bridge and bus may be nil.
func NewFanout(messages repositories.MessageRepository, local LocalDelivery, bridge Broadcaster, bus BusPublisher) *Fanout {
	return &Fanout{messages: messages, local: local, bridge: bridge, bus: bus}
}

// UnreadCount sums the user's unread messages across conversations and rentals.
// It reads the store directly, so a completed MarkRead is always reflected.
func (f *Fanout) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	count, err := f.messages.UnreadCount(ctx, userID)
	if err != nil {
		return 0, apperr.Storage("unread count", err)
	}
	return count, nil
}

// Notify dispatches event and, for message events, a fresh unread counter to
// every affected user.
func (f *Fanout) Notify(ctx context.Context, event models.ThreadEvent) {
	f.dispatch(ctx, event)

	if event.Type != models.EventMessageCreated && event.Type != models.EventMessagesRead {
		return
	}
	for _, userID := range event.UserIDs {
		count, err := f.messages.UnreadCount(ctx, userID)
		if err != nil {
			log.Printf("notify unread count failed user_id=%d: %v", userID, err)
			observability.IncNotifyFailure("unread_count")
			continue
		}
		f.dispatch(ctx, models.ThreadEvent{
			Type:    models.EventUnreadChanged,
			UserIDs: []int64{userID},
			Count:   count,
		})
	}
}

func (f *Fanout) dispatch(ctx context.Context, event models.ThreadEvent) {
	switch {
	case f.bridge != nil:
		if err := f.bridge.Broadcast(ctx, event); err != nil {
			log.Printf("notify broadcast failed event=%s: %v", event.Type, err)
			observability.IncNotifyFailure("bridge")
		}
	case f.local != nil:
		f.local.Deliver(event)
	}

	if f.bus != nil {
		if err := f.bus.Publish(ctx, "notifications."+event.Type, event); err != nil {
			log.Printf("notify publish failed event=%s: %v", event.Type, err)
			observability.IncNotifyFailure("bus")
		}
	}
}
