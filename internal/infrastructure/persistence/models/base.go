package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
)

// BaseModel carries the identity and timestamp columns shared by every table.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) entity() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (m *BaseModel) setEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// TenantAggregateModel carries the columns shared by tenant-scoped aggregate
// roots: base identity, the optimistic-lock version and the owning tenant.
type TenantAggregateModel struct {
	BaseModel
	Version  int       `gorm:"not null;default:1"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (m *TenantAggregateModel) root() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.entity(),
			Version:    m.Version,
		},
		TenantID: m.TenantID,
	}
}

func (m *TenantAggregateModel) setRoot(t shared.TenantAggregateRoot) {
	m.setEntity(t.BaseEntity)
	m.Version = t.Version
	m.TenantID = t.TenantID
}
