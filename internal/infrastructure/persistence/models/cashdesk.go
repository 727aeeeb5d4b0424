package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
)

// CashSessionModel is the persistence model for the CashSession aggregate root.
// The single-open-session rule is enforced by a partial unique index on
// (tenant_id) WHERE closed_at IS NULL; the status is derived from closed_at
// and never stored.
type CashSessionModel struct {
	TenantAggregateModel
	OpeningAmount decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	CountedAmount *decimal.Decimal `gorm:"type:decimal(18,4)"`
	OpenedBy      uuid.UUID        `gorm:"type:uuid;not null;index"`
	ClosedBy      *uuid.UUID       `gorm:"type:uuid"`
	OpenedAt      time.Time        `gorm:"not null;index"`
	ClosedAt      *time.Time       `gorm:"index"`
}

// TableName returns the table name for GORM
func (CashSessionModel) TableName() string {
	return "cash_sessions"
}

// ToDomain converts the persistence model to a domain CashSession entity.
func (m *CashSessionModel) ToDomain() *cashdesk.CashSession {
	return &cashdesk.CashSession{
		TenantAggregateRoot: m.root(),
		OpeningAmount:       m.OpeningAmount,
		CountedAmount:       m.CountedAmount,
		OpenedBy:            m.OpenedBy,
		ClosedBy:            m.ClosedBy,
		OpenedAt:            m.OpenedAt,
		ClosedAt:            m.ClosedAt,
	}
}

// FromDomain populates the persistence model from a domain CashSession entity.
func (m *CashSessionModel) FromDomain(cs *cashdesk.CashSession) {
	m.setRoot(cs.TenantAggregateRoot)
	m.OpeningAmount = cs.OpeningAmount
	m.CountedAmount = cs.CountedAmount
	m.OpenedBy = cs.OpenedBy
	m.ClosedBy = cs.ClosedBy
	m.OpenedAt = cs.OpenedAt
	m.ClosedAt = cs.ClosedAt
}

// CashSessionModelFromDomain creates a persistence model from a domain entity
func CashSessionModelFromDomain(cs *cashdesk.CashSession) *CashSessionModel {
	m := &CashSessionModel{}
	m.FromDomain(cs)
	return m
}

// LedgerEntryModel is the persistence model for a ledger journal entry.
// Rows are append-only: entries are never updated or deleted once written.
type LedgerEntryModel struct {
	BaseModel
	TenantID      uuid.UUID                  `gorm:"type:uuid;not null;index:idx_ledger_tenant_session,priority:1"`
	CashSessionID uuid.UUID                  `gorm:"type:uuid;not null;index:idx_ledger_tenant_session,priority:2"`
	Kind          cashdesk.EntryKind         `gorm:"type:varchar(20);not null"`
	Variant       cashdesk.AdjustmentVariant `gorm:"type:varchar(20)"`
	Amount        decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	Category      string                     `gorm:"type:varchar(100)"`
	Method        cashdesk.PaymentMethod     `gorm:"type:varchar(20);index"`
	ReferenceKind cashdesk.ReferenceKind     `gorm:"type:varchar(30);not null"`
	ReferenceID   *uuid.UUID                 `gorm:"type:uuid;index"`
	OccurredAt    time.Time                  `gorm:"not null;index"`
	Notes         string                     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry entity.
func (m *LedgerEntryModel) ToDomain() *cashdesk.LedgerEntry {
	return &cashdesk.LedgerEntry{
		BaseEntity:    m.entity(),
		TenantID:      m.TenantID,
		CashSessionID: m.CashSessionID,
		Kind:          m.Kind,
		Variant:       m.Variant,
		Amount:        m.Amount,
		Category:      m.Category,
		Method:        m.Method,
		ReferenceKind: m.ReferenceKind,
		ReferenceID:   m.ReferenceID,
		OccurredAt:    m.OccurredAt,
		Notes:         m.Notes,
	}
}

// FromDomain populates the persistence model from a domain LedgerEntry entity.
func (m *LedgerEntryModel) FromDomain(e *cashdesk.LedgerEntry) {
	m.setEntity(e.BaseEntity)
	m.TenantID = e.TenantID
	m.CashSessionID = e.CashSessionID
	m.Kind = e.Kind
	m.Variant = e.Variant
	m.Amount = e.Amount
	m.Category = e.Category
	m.Method = e.Method
	m.ReferenceKind = e.ReferenceKind
	m.ReferenceID = e.ReferenceID
	m.OccurredAt = e.OccurredAt
	m.Notes = e.Notes
}

// LedgerEntryModelFromDomain creates a persistence model from a domain entity
func LedgerEntryModelFromDomain(e *cashdesk.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{}
	m.FromDomain(e)
	return m
}
