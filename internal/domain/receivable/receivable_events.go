package receivable

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
)

// ReceivableCreatedEvent is raised when a new receivable is created
type ReceivableCreatedEvent struct {
	shared.BaseDomainEvent
	ReceivableID uuid.UUID       `json:"receivable_id"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
}

// EventType returns the event type name
func (e *ReceivableCreatedEvent) EventType() string {
	return "ReceivableCreated"
}

// NewReceivableCreatedEvent creates a new ReceivableCreatedEvent
func NewReceivableCreatedEvent(r *Receivable) *ReceivableCreatedEvent {
	return &ReceivableCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ReceivableCreated", r.ID, r.TenantID),
		ReceivableID:    r.ID,
		CustomerID:      r.CustomerID,
		Amount:          r.Amount,
		DueDate:         r.DueDate,
	}
}

// ReceivablePartiallyPaidEvent is raised when a receipt leaves a balance open
type ReceivablePartiallyPaidEvent struct {
	shared.BaseDomainEvent
	ReceivableID      uuid.UUID       `json:"receivable_id"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	ReceiptAmount     decimal.Decimal `json:"receipt_amount"`
	ReceivedAmount    decimal.Decimal `json:"received_amount"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
}

// EventType returns the event type name
func (e *ReceivablePartiallyPaidEvent) EventType() string {
	return "ReceivablePartiallyPaid"
}

// NewReceivablePartiallyPaidEvent creates a new ReceivablePartiallyPaidEvent
func NewReceivablePartiallyPaidEvent(r *Receivable, receiptAmount decimal.Decimal) *ReceivablePartiallyPaidEvent {
	return &ReceivablePartiallyPaidEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("ReceivablePartiallyPaid", r.ID, r.TenantID),
		ReceivableID:      r.ID,
		CustomerID:        r.CustomerID,
		ReceiptAmount:     receiptAmount,
		ReceivedAmount:    r.ReceivedAmount,
		OutstandingAmount: r.OutstandingAmount,
	}
}

// ReceivablePaidEvent is raised when a receivable is fully settled
type ReceivablePaidEvent struct {
	shared.BaseDomainEvent
	ReceivableID   uuid.UUID       `json:"receivable_id"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	Amount         decimal.Decimal `json:"amount"`
	ReceivedAmount decimal.Decimal `json:"received_amount"`
	PaidAt         time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *ReceivablePaidEvent) EventType() string {
	return "ReceivablePaid"
}

// NewReceivablePaidEvent creates a new ReceivablePaidEvent
func NewReceivablePaidEvent(r *Receivable) *ReceivablePaidEvent {
	paidAt := time.Now()
	if r.PaidAt != nil {
		paidAt = *r.PaidAt
	}
	return &ReceivablePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("ReceivablePaid", r.ID, r.TenantID),
		ReceivableID:    r.ID,
		CustomerID:      r.CustomerID,
		Amount:          r.Amount,
		ReceivedAmount:  r.ReceivedAmount,
		PaidAt:          paidAt,
	}
}

// ReceivableCancelledEvent is raised when a receivable is cancelled
type ReceivableCancelledEvent struct {
	shared.BaseDomainEvent
	ReceivableID      uuid.UUID       `json:"receivable_id"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	CancelReason      string          `json:"cancel_reason"`
}

// EventType returns the event type name
func (e *ReceivableCancelledEvent) EventType() string {
	return "ReceivableCancelled"
}

// NewReceivableCancelledEvent creates a new ReceivableCancelledEvent
func NewReceivableCancelledEvent(r *Receivable) *ReceivableCancelledEvent {
	return &ReceivableCancelledEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("ReceivableCancelled", r.ID, r.TenantID),
		ReceivableID:      r.ID,
		CustomerID:        r.CustomerID,
		OutstandingAmount: r.OutstandingAmount,
		CancelReason:      r.CancelReason,
	}
}
