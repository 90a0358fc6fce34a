// Package events publishes resolution outcome events for downstream
// consumers. Publishing is best-effort and never influences a resolution.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// EventTypeResolutionCompleted is emitted once per finished resolution call.
	EventTypeResolutionCompleted = "resolution.completed"

	// DefaultSource identifies this service in event envelopes.
	DefaultSource = "literature-resolution-service"
)

// Outcome values carried by ResolutionCompleted.
const (
	OutcomeSuccess  = "success"
	OutcomeOverride = "override"
	OutcomeStub     = "stub"
	OutcomeListing  = "listing"
)

// ResolutionCompleted is the payload of a resolution.completed event.
type ResolutionCompleted struct {
	RequestID  string `json:"request_id"`
	Query      string `json:"query"`
	Kind       string `json:"kind"`
	Outcome    string `json:"outcome"`
	Source     string `json:"source"`
	Records    int    `json:"records"`
	Attempts   int    `json:"attempts"`
	DurationMs int64  `json:"duration_ms"`
}

// Envelope is the wire form of every event.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	Source     string          `json:"source"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher delivers resolution events.
type Publisher interface {
	PublishResolution(ctx context.Context, event ResolutionCompleted) error
	Close() error
}

// NewEnvelope wraps a resolution event with a fresh event ID and timestamp.
func NewEnvelope(source string, event ResolutionCompleted, now time.Time) (Envelope, error) {
	if event.RequestID == "" {
		return Envelope{}, fmt.Errorf("request_id is required")
	}
	if source == "" {
		source = DefaultSource
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal payload: %w", err)
	}

	return Envelope{
		EventID:    uuid.NewString(),
		EventType:  EventTypeResolutionCompleted,
		Source:     source,
		OccurredAt: now.UTC(),
		Payload:    payload,
	}, nil
}

// NopPublisher discards every event.
type NopPublisher struct{}

// PublishResolution implements Publisher.
func (NopPublisher) PublishResolution(context.Context, ResolutionCompleted) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
