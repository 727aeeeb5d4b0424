package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps for everything the ledger
// persists. Sessions, ledger entries, receivables and receipts all embed it.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity mints a fresh identity with both timestamps set to now.
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BaseAggregateRoot layers optimistic-lock versioning and an in-memory event
// buffer on top of BaseEntity. Repositories compare-and-swap on Version when
// flushing state changes; the event buffer is never persisted.
type BaseAggregateRoot struct {
	BaseEntity
	Version int           `gorm:"not null;default:1"`
	events  []DomainEvent `gorm:"-"`
}

// NewBaseAggregateRoot starts a new aggregate at version 1.
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// GetVersion reports the current optimistic-lock version.
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion bumps the version after a state transition. The repository
// writes the new version only when the row still holds the previous one.
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent buffers an event raised by a state transition.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

// GetDomainEvents returns the buffered events in the order they were raised.
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.events
}

// ClearDomainEvents drops the buffer once the events have been handed off.
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.events = nil
}

// TenantAggregateRoot scopes an aggregate to a tenant. Every aggregate in the
// ledger is tenant-scoped; the tenant ID is always an explicit parameter
// threaded from the caller, never ambient state.
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// NewTenantAggregateRoot starts a new aggregate owned by the given tenant.
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		TenantID:          tenantID,
	}
}
