package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the envelope every domain event satisfies. Events are
// collected on the aggregate during a state transition and drained by the
// application layer after the transaction commits.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	TenantID() uuid.UUID
	OccurredAt() time.Time
}

// BaseDomainEvent carries the envelope fields. Concrete events embed it and
// add their own payload.
type BaseDomainEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Aggregate uuid.UUID `json:"aggregate_id"`
	Tenant    uuid.UUID `json:"tenant_id"`
	At        time.Time `json:"occurred_at"`
}

// NewBaseDomainEvent stamps a fresh envelope for the given aggregate.
func NewBaseDomainEvent(eventType string, aggregateID, tenantID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Aggregate: aggregateID,
		Tenant:    tenantID,
		At:        time.Now(),
	}
}

// EventID returns the unique event identifier.
func (e *BaseDomainEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType names the transition that produced the event.
func (e *BaseDomainEvent) EventType() string {
	return e.Type
}

// AggregateID returns the ID of the aggregate the event belongs to.
func (e *BaseDomainEvent) AggregateID() uuid.UUID {
	return e.Aggregate
}

// TenantID returns the tenant that owns the aggregate.
func (e *BaseDomainEvent) TenantID() uuid.UUID {
	return e.Tenant
}

// OccurredAt returns when the event was raised.
func (e *BaseDomainEvent) OccurredAt() time.Time {
	return e.At
}
