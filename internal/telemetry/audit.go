package telemetry

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type Level string

const (
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

// Record is one auditable action on a listing, rental or thread.
type Record struct {
	Level     Level
	Text      string
	Subject   string
	RequestID string
	UserID    *int64
}

// AuditEmitter publishes audit records for booking and messaging actions.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	TraceID       string       `json:"trace_id,omitempty"`
	UserID        *int64       `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level   Level  `json:"level"`
	Text    string `json:"text"`
	Subject string `json:"subject,omitempty"`
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes rec. Publish failures are logged, never returned.
func (e *AuditEmitter) Emit(ctx context.Context, rec Record) {
	if e == nil || e.publisher == nil {
		return
	}
	if rec.Level == "" {
		rec.Level = LevelInfo
	}

	if err := e.publisher.Publish(ctx, e.routingKey, e.envelope(ctx, rec)); err != nil {
		log.Printf("audit publish failed subject=%s: %v", rec.Subject, err)
	}
}

func (e *AuditEmitter) envelope(ctx context.Context, rec Record) AuditEnvelope {
	env := AuditEnvelope{
		SchemaVersion: 2,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     rec.RequestID,
		UserID:        rec.UserID,
		Payload:       AuditPayload{Level: rec.Level, Text: rec.Text, Subject: rec.Subject},
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		env.TraceID = sc.TraceID().String()
	}
	return env
}
