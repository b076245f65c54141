package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact about an aggregate, published after it is persisted.
// Notification templates and inventory handlers key off EventType.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
}

// BaseDomainEvent carries the envelope fields; concrete events embed it and
// add their payload.
type BaseDomainEvent struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	At          time.Time `json:"occurred_at"`
	Aggregate   string    `json:"aggregate_type"`
	AggregateOf uuid.UUID `json:"aggregate_id"`
}

// NewBaseDomainEvent stamps a new event for the aggregate aggType/aggID
func NewBaseDomainEvent(eventType, aggType string, aggID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:          uuid.New(),
		Type:        eventType,
		At:          time.Now().UTC(),
		Aggregate:   aggType,
		AggregateOf: aggID,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID { return e.ID }
func (e *BaseDomainEvent) EventType() string { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time { return e.At }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.AggregateOf }
func (e *BaseDomainEvent) AggregateType() string { return e.Aggregate }
