package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/trace"

	"rental-service/internal/models"
	"rental-service/internal/observability"
	"rental-service/internal/telemetry"
)

// Publisher publishes notification, audit and websocket events to a topic exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// NewPublisher builds a RabbitMQ publisher, or a noop publisher when AMQP is
// not configured or unreachable at startup.
func NewPublisher(amqpURL, exchange string) Publisher {
	if amqpURL == "" {
		log.Printf("rabbitmq disabled, using noop: empty amqp url")
		return noopPublisher{reason: "empty amqp url"}
	}

	p := &amqpPublisher{url: amqpURL, exchange: exchange}
	if err := p.connect(); err != nil {
		log.Printf("rabbitmq disabled, using noop: %v", err)
		return noopPublisher{reason: err.Error()}
	}
	log.Printf("rabbitmq connected exchange=%s", exchange)
	return p
}

type amqpPublisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// connect dials and declares the exchange. Callers hold mu or own p exclusively.
func (p *amqpPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         routingKey,
		Timestamp:    time.Now().UTC(),
		Headers:      headersFrom(ctx),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		p.closeLocked()
		if err := p.connect(); err != nil {
			log.Printf("rabbitmq reconnect failed: %v", err)
			return fmt.Errorf("rabbitmq reconnect: %w", err)
		}
		log.Printf("rabbitmq reconnected exchange=%s", p.exchange)
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		log.Printf("rabbitmq publish failed routing_key=%s: %v", routingKey, err)
		return err
	}
	return nil
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *amqpPublisher) closeLocked() error {
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	return err
}

// headersFrom carries the active trace id so consumers can join the trace.
func headersFrom(ctx context.Context) amqp.Table {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return nil
	}
	return amqp.Table{"trace_id": sc.TraceID().String(), "span_id": sc.SpanID().String()}
}

type noopPublisher struct {
	reason string
}

func (noopPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	log.Printf("rabbitmq noop publish routing_key=%s %s", routingKey, describe(event))
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

func describe(event any) string {
	switch e := event.(type) {
	case telemetry.AuditEnvelope:
		return fmt.Sprintf("audit=%q subject=%s request_id=%s", e.Payload.Text, e.Payload.Subject, e.RequestID)
	case models.ThreadEvent:
		return fmt.Sprintf("event=%s users=%v", e.Type, e.UserIDs)
	case observability.EventEnvelope:
		return fmt.Sprintf("event_name=%s request_id=%s", e.EventName, e.RequestID)
	default:
		return fmt.Sprintf("payload=%T", event)
	}
}

// Mode reports how p delivers and, for the noop publisher, why AMQP is off.
func Mode(p Publisher) (mode, reason string) {
	switch publisher := p.(type) {
	case *amqpPublisher:
		return "amqp", ""
	case noopPublisher:
		return "noop", publisher.reason
	default:
		return "unknown", ""
	}
}
