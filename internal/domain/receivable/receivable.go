package receivable

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared/valueobject"
)

// Status represents the status of a receivable
type Status string

const (
	StatusOpen      Status = "OPEN"      // Unpaid, outstanding == amount
	StatusPartial   Status = "PARTIAL"   // Partially paid, 0 < outstanding < amount
	StatusPaid      Status = "PAID"      // Fully paid, outstanding == 0
	StatusCancelled Status = "CANCELLED" // Cancelled before full payment; terminal
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusPartial, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the receivable is in a terminal state
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// CanApplyReceipt returns true if receipts can be applied in this status
func (s Status) CanApplyReceipt() bool {
	return s == StatusOpen || s == StatusPartial
}

// Receivable represents a customer debt ("fiado") aggregate root.
// Received and outstanding amounts are derived from the receipt history; the
// status is a pure function of those amounts and is recomputed on every
// receipt, never toggled directly. The only explicit override is CANCELLED.
type Receivable struct {
	shared.TenantAggregateRoot
	CustomerID        uuid.UUID       `json:"customer_id"`
	Description       string          `json:"description"`
	DueDate           *time.Time      `json:"due_date,omitempty"`
	Amount            decimal.Decimal `json:"amount"`             // Original amount due
	ReceivedAmount    decimal.Decimal `json:"received_amount"`    // Sum of applied receipts
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"` // Remaining amount due
	Status            Status          `json:"status"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	CancelledAt       *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason      string          `json:"cancel_reason,omitempty"`
}

// NewReceivable creates a new receivable in OPEN state
func NewReceivable(
	tenantID, customerID uuid.UUID,
	description string,
	dueDate *time.Time,
	amount valueobject.Money,
) (*Receivable, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}
	if len(description) > 500 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Receivable amount must be positive")
	}

	r := &Receivable{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CustomerID:          customerID,
		Description:         description,
		DueDate:             dueDate,
		Amount:              amount.Amount(),
		ReceivedAmount:      decimal.Zero,
		OutstandingAmount:   amount.Amount(),
		Status:              StatusOpen,
	}

	r.AddDomainEvent(NewReceivableCreatedEvent(r))

	return r, nil
}

// ApplyReceipt applies a payment to the receivable and recomputes the derived
// status. Overpayment is strictly rejected: a receipt may never push the
// outstanding amount below zero.
func (r *Receivable) ApplyReceipt(amount valueobject.Money) error {
	if r.Status == StatusCancelled {
		return shared.NewDomainError("RECEIVABLE_CANCELLED", "Cannot apply a receipt to a cancelled receivable")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Receipt amount must be positive")
	}
	if amount.Amount().GreaterThan(r.OutstandingAmount) {
		return shared.NewDomainError("EXCEEDS_OUTSTANDING", fmt.Sprintf(
			"Receipt amount %s exceeds outstanding amount %s",
			amount.Amount().StringFixed(2), r.OutstandingAmount.StringFixed(2)))
	}

	r.ReceivedAmount = r.ReceivedAmount.Add(amount.Amount())
	r.OutstandingAmount = r.Amount.Sub(r.ReceivedAmount)

	if r.OutstandingAmount.IsZero() {
		now := time.Now()
		r.Status = StatusPaid
		r.PaidAt = &now
		r.AddDomainEvent(NewReceivablePaidEvent(r))
	} else {
		r.Status = StatusPartial
		r.AddDomainEvent(NewReceivablePartiallyPaidEvent(r, amount.Amount()))
	}

	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return nil
}

// Cancel cancels the receivable. Allowed only from OPEN or PARTIAL.
func (r *Receivable) Cancel(reason string) error {
	if r.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot cancel receivable in %s status", r.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	r.Status = StatusCancelled
	r.CancelledAt = &now
	r.CancelReason = reason
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewReceivableCancelledEvent(r))

	return nil
}

// GetAmountMoney returns the original amount as Money
func (r *Receivable) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(r.Amount)
}

// GetOutstandingAmountMoney returns the outstanding amount as Money
func (r *Receivable) GetOutstandingAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(r.OutstandingAmount)
}

// IsOverdue returns true if the receivable is past due date and still owed
func (r *Receivable) IsOverdue() bool {
	if r.Status.IsTerminal() || r.DueDate == nil {
		return false
	}
	return time.Now().After(*r.DueDate)
}

// DaysOverdue returns the number of days past due (0 if not overdue)
func (r *Receivable) DaysOverdue() int {
	if !r.IsOverdue() {
		return 0
	}
	return int(time.Since(*r.DueDate).Hours() / 24)
}
