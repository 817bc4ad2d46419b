package observability

import (
	"context"
	"sync"
	"time"
)

// Publisher is the bus websocket lifecycle events are published to.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// EventEnvelope wraps websocket lifecycle events on the bus.
type EventEnvelope struct {
	EventType  string      `json:"event_type"`
	EventName  string      `json:"event_name"`
	OccurredAt time.Time   `json:"occurred_at"`
	RequestID  string      `json:"request_id,omitempty"`
	TraceID    string      `json:"trace_id,omitempty"`
	Payload    interface{} `json:"payload"`
}

var (
	publisherMu      sync.RWMutex
	defaultPublisher Publisher
)

// SetPublisher installs the process-wide bus. nil disables publishing.
func SetPublisher(publisher Publisher) {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	defaultPublisher = publisher
}

func PublishEvent(ctx context.Context, routingKey string, event EventEnvelope) error {
	publisherMu.RLock()
	publisher := defaultPublisher
	publisherMu.RUnlock()
	if publisher == nil {
		return nil
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := publisher.Publish(ctx, routingKey, event); err != nil {
		IncAMQPPublishError()
		return err
	}
	return nil
}
