package cashdesk

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared/valueobject"
)

// EntryKind represents the kind of a ledger entry
type EntryKind string

const (
	EntryKindDeposit    EntryKind = "DEPOSIT"    // Cash in, amount >= 0
	EntryKindWithdrawal EntryKind = "WITHDRAWAL" // Cash out, amount <= 0
	EntryKindAdjustment EntryKind = "ADJUSTMENT" // Correction entry, sign given by variant
)

// IsValid checks if the kind is a valid EntryKind
func (k EntryKind) IsValid() bool {
	switch k {
	case EntryKindDeposit, EntryKindWithdrawal, EntryKindAdjustment:
		return true
	}
	return false
}

// String returns the string representation of EntryKind
func (k EntryKind) String() string {
	return string(k)
}

// AdjustmentVariant distinguishes the two adjustment flavors:
// a reinforcement ("reforço") puts cash into the till, a sangria takes it out.
type AdjustmentVariant string

const (
	AdjustmentVariantNone          AdjustmentVariant = ""
	AdjustmentVariantReinforcement AdjustmentVariant = "REINFORCEMENT" // amount >= 0
	AdjustmentVariantSangria       AdjustmentVariant = "SANGRIA"       // amount <= 0
)

// IsValid checks if the variant is valid for the given kind
func (v AdjustmentVariant) IsValid(kind EntryKind) bool {
	if kind == EntryKindAdjustment {
		return v == AdjustmentVariantReinforcement || v == AdjustmentVariantSangria
	}
	return v == AdjustmentVariantNone
}

// PaymentMethod represents how the money moved
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodPix      PaymentMethod = "PIX"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodPix, PaymentMethodTransfer:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// ReferenceKind represents the type of source that originated a ledger entry
type ReferenceKind string

const (
	ReferenceKindManual            ReferenceKind = "MANUAL"             // Manually registered movement
	ReferenceKindSale              ReferenceKind = "SALE"               // Direct sale
	ReferenceKindReceivableReceipt ReferenceKind = "RECEIVABLE_RECEIPT" // Receipt applied to a receivable
)

// IsValid checks if the reference kind is valid
func (r ReferenceKind) IsValid() bool {
	switch r {
	case ReferenceKindManual, ReferenceKindSale, ReferenceKindReceivableReceipt:
		return true
	}
	return false
}

// LedgerEntry is a signed, immutable cash movement belonging to exactly one
// cash session. Entries are only ever appended while the session is open;
// corrections are new ADJUSTMENT entries, never updates.
type LedgerEntry struct {
	shared.BaseEntity
	TenantID      uuid.UUID         `json:"tenant_id"`
	CashSessionID uuid.UUID         `json:"cash_session_id"`
	Kind          EntryKind         `json:"kind"`
	Variant       AdjustmentVariant `json:"variant,omitempty"`
	Amount        decimal.Decimal   `json:"amount"` // Signed; sign is derived from kind/variant
	Category      string            `json:"category,omitempty"`
	Method        PaymentMethod     `json:"method,omitempty"`
	ReferenceKind ReferenceKind     `json:"reference_kind"`
	ReferenceID   *uuid.UUID        `json:"reference_id,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
	Notes         string            `json:"notes,omitempty"`
}

// NewLedgerEntry creates a ledger entry from an unsigned amount, applying the
// sign dictated by kind and variant. The unsigned amount must be positive.
func NewLedgerEntry(
	tenantID, cashSessionID uuid.UUID,
	kind EntryKind,
	variant AdjustmentVariant,
	unsignedAmount valueobject.Money,
	category string,
	method PaymentMethod,
	referenceKind ReferenceKind,
	referenceID *uuid.UUID,
	notes string,
) (*LedgerEntry, error) {
	if cashSessionID == uuid.Nil {
		return nil, shared.NewDomainError("SESSION_NOT_FOUND", "Cash session ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Entry kind is not valid")
	}
	if !variant.IsValid(kind) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Adjustment variant is not valid for this entry kind")
	}
	if !unsignedAmount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Movement amount must be positive")
	}
	if method != "" && !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment method is not valid")
	}
	if !referenceKind.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Reference kind is not valid")
	}

	amount := unsignedAmount.Amount()
	if signForKind(kind, variant) < 0 {
		amount = amount.Neg()
	}

	return &LedgerEntry{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      tenantID,
		CashSessionID: cashSessionID,
		Kind:          kind,
		Variant:       variant,
		Amount:        amount,
		Category:      category,
		Method:        method,
		ReferenceKind: referenceKind,
		ReferenceID:   referenceID,
		OccurredAt:    time.Now(),
		Notes:         notes,
	}, nil
}

// signForKind returns +1 for entries that put cash in and -1 for entries that
// take cash out.
func signForKind(kind EntryKind, variant AdjustmentVariant) int {
	switch kind {
	case EntryKindWithdrawal:
		return -1
	case EntryKindAdjustment:
		if variant == AdjustmentVariantSangria {
			return -1
		}
	}
	return 1
}

// IsInflow returns true if the entry puts cash into the till
func (e *LedgerEntry) IsInflow() bool {
	return !e.Amount.IsNegative()
}

// GetAmountMoney returns the signed amount as Money
func (e *LedgerEntry) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyBRL(e.Amount)
}
