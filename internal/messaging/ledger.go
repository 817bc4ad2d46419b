package messaging

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
	"rental-service/internal/observability"
	"rental-service/internal/repositories"
)

// Notifier receives ledger events. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, event models.ThreadEvent)
}

// Ledger is the append-only message store of every thread.
type Ledger struct {
	messages      repositories.MessageRepository
	conversations repositories.ConversationRepository
	rentals       repositories.RentalRepository
	notifier      Notifier
}

// NewLedger builds a Ledger.
func NewLedger(messages repositories.MessageRepository, conversations repositories.ConversationRepository, rentals repositories.RentalRepository, notifier Notifier) *Ledger {
	return &Ledger{messages: messages, conversations: conversations, rentals: rentals, notifier: notifier}
}

// Thread loads the parent behind ref and its participants.
func (l *Ledger) Thread(ctx context.Context, ref models.ThreadRef) (models.Thread, error) {
	if err := ref.Validate(); err != nil {
		return models.Thread{}, apperr.Invalid(err.Error())
	}
	switch ref.Kind {
	case models.ThreadConversation:
		conv, err := l.conversations.GetConversation(ctx, ref.ID)
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return models.Thread{}, apperr.NotFound("conversation", ref.ID)
		}
		if err != nil {
			return models.Thread{}, apperr.Storage("get conversation", err)
		}
		return conversationThread(conv), nil
	default:
		rental, err := l.rentals.GetRental(ctx, ref.ID)
		if errors.Is(err, repositories.ErrRentalNotFound) {
			return models.Thread{}, apperr.NotFound("rental", ref.ID)
		}
		if err != nil {
			return models.Thread{}, apperr.Storage("get rental", err)
		}
		return rentalThread(rental), nil
	}
}

// Send appends a message from senderID to the thread.
func (l *Ledger) Send(ctx context.Context, ref models.ThreadRef, senderID int64, body string) (models.Message, error) {
	ctx, span := tracer.Start(ctx, "messaging.Send")
	defer span.End()
	span.SetAttributes(attribute.String("thread", ref.String()))

	if strings.TrimSpace(body) == "" {
		return models.Message{}, apperr.ErrEmptyMessage
	}
	thread, err := l.Thread(ctx, ref)
	if err != nil {
		return models.Message{}, err
	}
	if !thread.IsParty(senderID) {
		return models.Message{}, apperr.Forbidden("sender is not a participant of this thread")
	}

	msg, err := l.messages.CreateMessage(ctx, ref, senderID, body)
	if errors.Is(err, repositories.ErrThreadNotFound) {
		return models.Message{}, apperr.NotFound(string(ref.Kind), ref.ID)
	}
	if err != nil {
		return models.Message{}, apperr.Storage("insert message", err)
	}

	observability.IncMessage(string(ref.Kind))
	l.notify(ctx, models.ThreadEvent{
		Type:    models.EventMessageCreated,
		Thread:  &ref,
		UserIDs: []int64{thread.Counterpart(senderID)},
		Message: &msg,
	})
	return msg, nil
}

// ListMessages returns the thread's messages in creation order. Every call
// reads the store afresh.
func (l *Ledger) ListMessages(ctx context.Context, ref models.ThreadRef) ([]models.Message, error) {
	if _, err := l.Thread(ctx, ref); err != nil {
		return nil, err
	}
	msgs, err := l.messages.ListMessages(ctx, ref)
	if err != nil {
		return nil, apperr.Storage("list messages", err)
	}
	return msgs, nil
}

// MarkRead flips every unread message in the thread not sent by readerID and
// returns the number flipped. Repeating it is a no-op.
func (l *Ledger) MarkRead(ctx context.Context, ref models.ThreadRef, readerID int64) (int64, error) {
	thread, err := l.Thread(ctx, ref)
	if err != nil {
		return 0, err
	}
	if !thread.IsParty(readerID) {
		return 0, apperr.Forbidden("reader is not a participant of this thread")
	}

	flipped, err := l.messages.MarkRead(ctx, ref, readerID)
	if err != nil {
		return 0, apperr.Storage("mark messages read", err)
	}
	if flipped > 0 {
		l.notify(ctx, models.ThreadEvent{
			Type:    models.EventMessagesRead,
			Thread:  &ref,
			UserIDs: []int64{readerID},
			Count:   flipped,
		})
	}
	return flipped, nil
}

func (l *Ledger) notify(ctx context.Context, event models.ThreadEvent) {
	if l.notifier == nil {
		return
	}
	l.notifier.Notify(ctx, event)
}
