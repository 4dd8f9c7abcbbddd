package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is something that happened to a tenant's aggregate. Handlers
// dedupe on EventID, so it must be unique per occurrence.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	TenantID() uuid.UUID
	OccurredAt() time.Time
}

// BaseDomainEvent is embedded by every concrete event and serialises as the
// common envelope.
type BaseDomainEvent struct {
	ID        uuid.UUID `json:"event_id"`
	Type      string    `json:"event_type"`
	Aggregate string    `json:"aggregate_type"`
	SubjectID uuid.UUID `json:"aggregate_id"`
	Tenant    uuid.UUID `json:"tenant_id"`
	At        time.Time `json:"occurred_at"`
}

// NewBaseDomainEvent fills the envelope for an event raised now.
func NewBaseDomainEvent(eventType, aggregate string, subjectID, tenantID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Aggregate: aggregate,
		SubjectID: subjectID,
		Tenant:    tenantID,
		At:        time.Now().UTC(),
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.SubjectID }
func (e *BaseDomainEvent) TenantID() uuid.UUID    { return e.Tenant }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.At }
