package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/receivable"
)

// ReceivableModel is the persistence model for the Receivable aggregate root.
type ReceivableModel struct {
	TenantAggregateModel
	CustomerID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	Description       string            `gorm:"type:varchar(500);not null"`
	DueDate           *time.Time        `gorm:"index"`
	Amount            decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	ReceivedAmount    decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	OutstandingAmount decimal.Decimal   `gorm:"type:decimal(18,4);not null;index"`
	Status            receivable.Status `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	PaidAt            *time.Time
	CancelledAt       *time.Time
	CancelReason      string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ReceivableModel) TableName() string {
	return "receivables"
}

// ToDomain converts the persistence model to a domain Receivable entity.
func (m *ReceivableModel) ToDomain() *receivable.Receivable {
	return &receivable.Receivable{
		TenantAggregateRoot: m.root(),
		CustomerID:          m.CustomerID,
		Description:         m.Description,
		DueDate:             m.DueDate,
		Amount:              m.Amount,
		ReceivedAmount:      m.ReceivedAmount,
		OutstandingAmount:   m.OutstandingAmount,
		Status:              m.Status,
		PaidAt:              m.PaidAt,
		CancelledAt:         m.CancelledAt,
		CancelReason:        m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain Receivable entity.
func (m *ReceivableModel) FromDomain(r *receivable.Receivable) {
	m.setRoot(r.TenantAggregateRoot)
	m.CustomerID = r.CustomerID
	m.Description = r.Description
	m.DueDate = r.DueDate
	m.Amount = r.Amount
	m.ReceivedAmount = r.ReceivedAmount
	m.OutstandingAmount = r.OutstandingAmount
	m.Status = r.Status
	m.PaidAt = r.PaidAt
	m.CancelledAt = r.CancelledAt
	m.CancelReason = r.CancelReason
}

// ReceivableModelFromDomain creates a persistence model from a domain entity
func ReceivableModelFromDomain(r *receivable.Receivable) *ReceivableModel {
	m := &ReceivableModel{}
	m.FromDomain(r)
	return m
}

// ReceiptModel is the persistence model for a payment receipt. Receipts are
// immutable; cash_session_id is the only column ever rewritten, and only from
// NULL to a session, when a pending cash receipt is attached to a till.
type ReceiptModel struct {
	BaseModel
	TenantID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	ReceivableID  uuid.UUID              `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Method        cashdesk.PaymentMethod `gorm:"type:varchar(20);not null;index"`
	CashSessionID *uuid.UUID             `gorm:"type:uuid;index"`
	Notes         string                 `gorm:"type:varchar(500)"`
	ReceivedAt    time.Time              `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "receipts"
}

// ToDomain converts the persistence model to a domain Receipt entity.
func (m *ReceiptModel) ToDomain() *receivable.Receipt {
	return &receivable.Receipt{
		BaseEntity:    m.entity(),
		TenantID:      m.TenantID,
		ReceivableID:  m.ReceivableID,
		Amount:        m.Amount,
		Method:        m.Method,
		CashSessionID: m.CashSessionID,
		Notes:         m.Notes,
		ReceivedAt:    m.ReceivedAt,
	}
}

// FromDomain populates the persistence model from a domain Receipt entity.
func (m *ReceiptModel) FromDomain(rc *receivable.Receipt) {
	m.setEntity(rc.BaseEntity)
	m.TenantID = rc.TenantID
	m.ReceivableID = rc.ReceivableID
	m.Amount = rc.Amount
	m.Method = rc.Method
	m.CashSessionID = rc.CashSessionID
	m.Notes = rc.Notes
	m.ReceivedAt = rc.ReceivedAt
}

// ReceiptModelFromDomain creates a persistence model from a domain entity
func ReceiptModelFromDomain(rc *receivable.Receipt) *ReceiptModel {
	m := &ReceiptModel{}
	m.FromDomain(rc)
	return m
}
