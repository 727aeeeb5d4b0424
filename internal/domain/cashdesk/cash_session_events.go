package cashdesk

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
)

// CashSessionOpenedEvent is raised when a till is opened
type CashSessionOpenedEvent struct {
	shared.BaseDomainEvent
	SessionID     uuid.UUID       `json:"session_id"`
	OpeningAmount decimal.Decimal `json:"opening_amount"`
	OpenedBy      uuid.UUID       `json:"opened_by"`
	OpenedAt      time.Time       `json:"opened_at"`
}

// EventType returns the event type name
func (e *CashSessionOpenedEvent) EventType() string {
	return "CashSessionOpened"
}

// NewCashSessionOpenedEvent creates a new CashSessionOpenedEvent
func NewCashSessionOpenedEvent(cs *CashSession) *CashSessionOpenedEvent {
	return &CashSessionOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CashSessionOpened", cs.ID, cs.TenantID),
		SessionID:       cs.ID,
		OpeningAmount:   cs.OpeningAmount,
		OpenedBy:        cs.OpenedBy,
		OpenedAt:        cs.OpenedAt,
	}
}

// CashSessionClosedEvent is raised when a till is closed and reconciled
type CashSessionClosedEvent struct {
	shared.BaseDomainEvent
	SessionID      uuid.UUID       `json:"session_id"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	CountedAmount  decimal.Decimal `json:"counted_amount"`
	Difference     decimal.Decimal `json:"difference"`
	Classification DifferenceClass `json:"classification"`
	ClosedBy       uuid.UUID       `json:"closed_by"`
	ClosedAt       time.Time       `json:"closed_at"`
}

// EventType returns the event type name
func (e *CashSessionClosedEvent) EventType() string {
	return "CashSessionClosed"
}

// NewCashSessionClosedEvent creates a new CashSessionClosedEvent
func NewCashSessionClosedEvent(cs *CashSession, report *ClosingReport) *CashSessionClosedEvent {
	return &CashSessionClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CashSessionClosed", cs.ID, cs.TenantID),
		SessionID:       cs.ID,
		ExpectedAmount:  report.ExpectedAmount,
		CountedAmount:   report.CountedAmount,
		Difference:      report.Difference,
		Classification:  report.Classification,
		ClosedBy:        report.ClosedBy,
		ClosedAt:        report.ClosedAt,
	}
}
