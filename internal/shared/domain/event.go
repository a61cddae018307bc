// Package domain holds building blocks shared by the bounded contexts.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventMetadata identifies a published event and ties it to the request
// that caused it.
type EventMetadata struct {
	EventID       uuid.UUID `json:"event_id"`
	RoutingKey    string    `json:"routing_key"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewEventMetadata stamps a new event. The occurrence time is stored in UTC.
func NewEventMetadata(routingKey, correlationID string, occurredAt time.Time) EventMetadata {
	return EventMetadata{
		EventID:       uuid.New(),
		RoutingKey:    routingKey,
		CorrelationID: correlationID,
		OccurredAt:    occurredAt.UTC(),
	}
}
