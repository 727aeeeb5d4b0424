package cashdesk

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared/valueobject"
)

// SessionStatus represents the lifecycle status of a cash session
type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "OPEN"   // Till is open, movements may be appended
	SessionStatusClosed SessionStatus = "CLOSED" // Till is closed, session is immutable
)

// IsValid checks if the status is a valid SessionStatus
func (s SessionStatus) IsValid() bool {
	return s == SessionStatusOpen || s == SessionStatusClosed
}

// String returns the string representation of SessionStatus
func (s SessionStatus) String() string {
	return string(s)
}

// CashSession represents a cash session ("till") aggregate root.
// It bounds the period during which cash movements are tracked; for a given
// tenant at most one session may be open at any time. A session is created by
// opening and mutated exactly once, by closing; it is never deleted.
type CashSession struct {
	shared.TenantAggregateRoot
	OpeningAmount decimal.Decimal  `json:"opening_amount"`
	CountedAmount *decimal.Decimal `json:"counted_amount"` // Physical cash counted at close
	OpenedBy      uuid.UUID        `json:"opened_by"`
	ClosedBy      *uuid.UUID       `json:"closed_by"`
	OpenedAt      time.Time        `json:"opened_at"`
	ClosedAt      *time.Time       `json:"closed_at"`
}

// NewCashSession opens a new cash session for a tenant
func NewCashSession(tenantID, openedBy uuid.UUID, openingAmount valueobject.Money) (*CashSession, error) {
	if openedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OPERATOR", "Operator ID cannot be empty")
	}
	if openingAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Opening amount cannot be negative")
	}

	cs := &CashSession{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OpeningAmount:       openingAmount.Amount(),
		OpenedBy:            openedBy,
		OpenedAt:            time.Now(),
	}

	cs.AddDomainEvent(NewCashSessionOpenedEvent(cs))

	return cs, nil
}

// Status derives the session status from ClosedAt.
// The status is never stored as a separately mutated flag.
func (cs *CashSession) Status() SessionStatus {
	if cs.ClosedAt == nil {
		return SessionStatusOpen
	}
	return SessionStatusClosed
}

// IsOpen returns true if the session has not been closed
func (cs *CashSession) IsOpen() bool {
	return cs.ClosedAt == nil
}

// Close closes the session with the physically counted amount.
// expectedAmount is the ledger-computed balance (opening amount plus the sum of
// all entries); it is passed in because the journal lives in the store, not in
// the aggregate. Returns the closing report. A closed session cannot be closed
// again.
func (cs *CashSession) Close(countedAmount valueobject.Money, expectedAmount valueobject.Money, closedBy uuid.UUID) (*ClosingReport, error) {
	if !cs.IsOpen() {
		return nil, shared.NewDomainError("SESSION_NOT_OPEN", fmt.Sprintf("Cash session %s is already closed", cs.ID))
	}
	if closedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OPERATOR", "Operator ID cannot be empty")
	}
	if countedAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Counted amount cannot be negative")
	}

	now := time.Now()
	counted := countedAmount.Amount()
	cs.CountedAmount = &counted
	cs.ClosedBy = &closedBy
	cs.ClosedAt = &now
	cs.UpdatedAt = now
	cs.IncrementVersion()

	report := NewClosingReport(cs, expectedAmount.Amount(), counted)

	cs.AddDomainEvent(NewCashSessionClosedEvent(cs, report))

	return report, nil
}

// GetOpeningAmountMoney returns the opening amount as Money
func (cs *CashSession) GetOpeningAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(cs.OpeningAmount)
}

// Duration returns how long the session has been (or was) open
func (cs *CashSession) Duration() time.Duration {
	if cs.ClosedAt != nil {
		return cs.ClosedAt.Sub(cs.OpenedAt)
	}
	return time.Since(cs.OpenedAt)
}
