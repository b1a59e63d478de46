package eventing

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"balancegrid/internal/auth"
	"balancegrid/internal/eventing/eventbus"
)

// Envelope is the persisted wire form of an event in the outbox.
type Envelope struct {
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	TenantID   string          `json:"tenantId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Meta carries envelope context captured at publish time.
type Meta struct {
	TenantID string
}

// MetaFromContext derives envelope meta from the request context,
// falling back to the given tenant id when the context carries none.
func MetaFromContext(ctx context.Context, fallbackTenantID string) Meta {
	tenantID := auth.TenantIDFromContext(ctx)
	if tenantID == "" {
		tenantID = fallbackTenantID
	}
	return Meta{TenantID: tenantID}
}

// BuildEnvelope wraps an event for outbox storage.
func BuildEnvelope(event any, meta Meta) (Envelope, error) {
	if event == nil {
		return Envelope{}, eventbus.ErrNilEvent
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:    NewEventID(),
		EventType:  eventbus.EventType(event),
		TenantID:   meta.TenantID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}, nil
}

// NewEventID returns a fresh event id.
func NewEventID() string {
	return "evt-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

type envelopeContextKey struct{}

// WithEnvelope attaches the envelope being delivered to the context.
func WithEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, envelopeContextKey{}, env)
}

// EnvelopeFromContext returns the envelope being delivered, if any.
func EnvelopeFromContext(ctx context.Context) (Envelope, bool) {
	env, ok := ctx.Value(envelopeContextKey{}).(Envelope)
	return env, ok
}
