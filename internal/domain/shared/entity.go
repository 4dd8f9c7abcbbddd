package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is the identity and audit header shared by persisted records.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity stamps a fresh id and creation time.
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch marks the entity as modified now.
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// TenantAggregateRoot heads every bakery-owned aggregate: batches, locations,
// recipes and runs. Version backs the optimistic check in the repositories
// and events queue up until the surrounding transaction commits.
type TenantAggregateRoot struct {
	BaseEntity
	TenantID uuid.UUID
	Version  int
	pending  []DomainEvent
}

// NewTenantAggregateRoot starts a new aggregate at version 1.
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{BaseEntity: NewBaseEntity(), TenantID: tenantID, Version: 1}
}

// RestoreTenantAggregateRoot rebuilds the header of a loaded aggregate.
func RestoreTenantAggregateRoot(e BaseEntity, tenantID uuid.UUID, version int) TenantAggregateRoot {
	return TenantAggregateRoot{BaseEntity: e, TenantID: tenantID, Version: version}
}

// BumpVersion is called by repositories after a successful versioned update.
func (a *TenantAggregateRoot) BumpVersion() {
	a.Version++
}

// Raise queues an event for publication.
func (a *TenantAggregateRoot) Raise(e DomainEvent) {
	a.pending = append(a.pending, e)
}

// Pending returns the queued events without removing them.
func (a *TenantAggregateRoot) Pending() []DomainEvent {
	return a.pending
}

// Drain hands over the queued events and empties the queue.
func (a *TenantAggregateRoot) Drain() []DomainEvent {
	out := a.pending
	a.pending = nil
	return out
}
