// Package events provides a minimal in-process event system used to
// decouple the study core from external collaborators (notifications,
// analytics, ad breaks) that react to session lifecycle changes.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the study core.
const (
	// TypeSessionCompleted fires when a study session's graduation
	// re-scan comes back empty and the session aggregate is persisted.
	TypeSessionCompleted = "session.completed"

	// TypeSelectionFinished fires when the picking flow exhausts its
	// candidates and the prepare-session pass has run.
	TypeSelectionFinished = "selection.finished"
)

// Event is a lifecycle notification with a JSON payload. It carries no
// behavior; handlers decide what a given type means to them.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event of the given type with the payload
// serialized to JSON.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// SessionCompletedPayload is the payload of a TypeSessionCompleted event.
type SessionCompletedPayload struct {
	SessionID uuid.UUID `json:"session_id"`
	Studied   int       `json:"studied"`
	Correct   int       `json:"correct"`
	ElapsedMS int64     `json:"elapsed_ms"`
}

// SelectionFinishedPayload is the payload of a TypeSelectionFinished event.
type SelectionFinishedPayload struct {
	Selected int `json:"selected"`
	Skipped  int `json:"skipped"`
}

// Handler defines an interface for components that can handle events.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// Emitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of
// handlers.
type Emitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
