package receivable

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared/valueobject"
)

// Receipt is a single payment applied against one receivable. Receipts are
// immutable once created; a receivable may accumulate many of them
// (installments). CashSessionID is nil for receipts taken while no till was
// open; such cash receipts are later bound to a session by
// AttachPendingCashReceipts.
type Receipt struct {
	shared.BaseEntity
	TenantID      uuid.UUID              `json:"tenant_id"`
	ReceivableID  uuid.UUID              `json:"receivable_id"`
	Amount        decimal.Decimal        `json:"amount"`
	Method        cashdesk.PaymentMethod `json:"method"`
	CashSessionID *uuid.UUID             `json:"cash_session_id,omitempty"`
	Notes         string                 `json:"notes,omitempty"`
	ReceivedAt    time.Time              `json:"received_at"`
}

// NewReceipt creates a new receipt for a receivable
func NewReceipt(
	tenantID, receivableID uuid.UUID,
	amount valueobject.Money,
	method cashdesk.PaymentMethod,
	cashSessionID *uuid.UUID,
	notes string,
) (*Receipt, error) {
	if receivableID == uuid.Nil {
		return nil, shared.NewDomainError("RECEIVABLE_NOT_FOUND", "Receivable ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Receipt amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment method is not valid")
	}

	return &Receipt{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      tenantID,
		ReceivableID:  receivableID,
		Amount:        amount.Amount(),
		Method:        method,
		CashSessionID: cashSessionID,
		Notes:         notes,
		ReceivedAt:    time.Now(),
	}, nil
}

// IsPendingCash reports whether this is a cash receipt not yet tied to a till
func (r *Receipt) IsPendingCash() bool {
	return r.Method == cashdesk.PaymentMethodCash && r.CashSessionID == nil
}

// GetAmountMoney returns the receipt amount as Money
func (r *Receipt) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(r.Amount)
}
