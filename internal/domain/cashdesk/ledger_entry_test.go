package cashdesk

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostcode-dev/cashdesk/internal/domain/shared/valueobject"
)

// ============================================
// EntryKind / AdjustmentVariant Tests
// ============================================

func TestEntryKind_IsValid(t *testing.T) {
	tests := []struct {
		kind    EntryKind
		isValid bool
	}{
		{EntryKindDeposit, true},
		{EntryKindWithdrawal, true},
		{EntryKindAdjustment, true},
		{EntryKind("INVALID"), false},
		{EntryKind(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.kind.IsValid())
		})
	}
}

func TestAdjustmentVariant_IsValid(t *testing.T) {
	tests := []struct {
		name    string
		variant AdjustmentVariant
		kind    EntryKind
		isValid bool
	}{
		{"reinforcement on adjustment", AdjustmentVariantReinforcement, EntryKindAdjustment, true},
		{"sangria on adjustment", AdjustmentVariantSangria, EntryKindAdjustment, true},
		{"none on adjustment", AdjustmentVariantNone, EntryKindAdjustment, false},
		{"none on deposit", AdjustmentVariantNone, EntryKindDeposit, true},
		{"none on withdrawal", AdjustmentVariantNone, EntryKindWithdrawal, true},
		{"sangria on deposit", AdjustmentVariantSangria, EntryKindDeposit, false},
		{"reinforcement on withdrawal", AdjustmentVariantReinforcement, EntryKindWithdrawal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.variant.IsValid(tt.kind))
		})
	}
}

func TestPaymentMethod_IsValid(t *testing.T) {
	tests := []struct {
		method  PaymentMethod
		isValid bool
	}{
		{PaymentMethodCash, true},
		{PaymentMethodCard, true},
		{PaymentMethodPix, true},
		{PaymentMethodTransfer, true},
		{PaymentMethod("CHEQUE"), false},
		{PaymentMethod(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.method.IsValid())
		})
	}
}

// ============================================
// NewLedgerEntry Tests
// ============================================

func TestNewLedgerEntry(t *testing.T) {
	tenantID := uuid.New()
	sessionID := uuid.New()
	amount := valueobject.NewMoneyBRLFromFloat(50.00)

	t.Run("deposit keeps positive sign", func(t *testing.T) {
		entry, err := NewLedgerEntry(
			tenantID, sessionID,
			EntryKindDeposit, AdjustmentVariantNone,
			amount, "sale", PaymentMethodCash,
			ReferenceKindSale, nil, "",
		)
		require.NoError(t, err)

		assert.True(t, entry.Amount.Equal(decimal.NewFromFloat(50.00)))
		assert.True(t, entry.IsInflow())
		assert.Equal(t, tenantID, entry.TenantID)
		assert.Equal(t, sessionID, entry.CashSessionID)
		assert.NotEmpty(t, entry.ID)
		assert.False(t, entry.OccurredAt.IsZero())
	})

	t.Run("withdrawal flips sign to negative", func(t *testing.T) {
		entry, err := NewLedgerEntry(
			tenantID, sessionID,
			EntryKindWithdrawal, AdjustmentVariantNone,
			amount, "supplier", PaymentMethodCash,
			ReferenceKindManual, nil, "paid the bakery",
		)
		require.NoError(t, err)

		assert.True(t, entry.Amount.Equal(decimal.NewFromFloat(-50.00)))
		assert.False(t, entry.IsInflow())
	})

	t.Run("reinforcement adjustment keeps positive sign", func(t *testing.T) {
		entry, err := NewLedgerEntry(
			tenantID, sessionID,
			EntryKindAdjustment, AdjustmentVariantReinforcement,
			amount, "", PaymentMethodCash,
			ReferenceKindManual, nil, "",
		)
		require.NoError(t, err)

		assert.True(t, entry.Amount.Equal(decimal.NewFromFloat(50.00)))
		assert.True(t, entry.IsInflow())
	})

	t.Run("sangria adjustment flips sign to negative", func(t *testing.T) {
		entry, err := NewLedgerEntry(
			tenantID, sessionID,
			EntryKindAdjustment, AdjustmentVariantSangria,
			amount, "", PaymentMethodCash,
			ReferenceKindManual, nil, "safe drop",
		)
		require.NoError(t, err)

		assert.True(t, entry.Amount.Equal(decimal.NewFromFloat(-50.00)))
		assert.False(t, entry.IsInflow())
	})

	t.Run("records the settled receivable as its reference", func(t *testing.T) {
		receivableID := uuid.New()
		entry, err := NewLedgerEntry(
			tenantID, sessionID,
			EntryKindDeposit, AdjustmentVariantNone,
			amount, "receivable", PaymentMethodCash,
			ReferenceKindReceivableReceipt, &receivableID, "",
		)
		require.NoError(t, err)

		assert.Equal(t, ReferenceKindReceivableReceipt, entry.ReferenceKind)
		require.NotNil(t, entry.ReferenceID)
		assert.Equal(t, receivableID, *entry.ReferenceID)
	})

	t.Run("fails with nil session ID", func(t *testing.T) {
		_, err := NewLedgerEntry(
			tenantID, uuid.Nil,
			EntryKindDeposit, AdjustmentVariantNone,
			amount, "", PaymentMethodCash,
			ReferenceKindManual, nil, "",
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Cash session ID cannot be empty")
	})

	t.Run("fails with zero amount", func(t *testing.T) {
		_, err := NewLedgerEntry(
			tenantID, sessionID,
			EntryKindDeposit, AdjustmentVariantNone,
			valueobject.ZeroBRL(), "", PaymentMethodCash,
			ReferenceKindManual, nil, "",
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Movement amount must be positive")
	})

	t.Run("fails with negative amount", func(t *testing.T) {
		_, err := NewLedgerEntry(
			tenantID, sessionID,
			EntryKindWithdrawal, AdjustmentVariantNone,
			valueobject.NewMoneyBRLFromFloat(-10.00), "", PaymentMethodCash,
			ReferenceKindManual, nil, "",
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Movement amount must be positive")
	})

	t.Run("fails with invalid kind", func(t *testing.T) {
		_, err := NewLedgerEntry(
			tenantID, sessionID,
			EntryKind("TRANSFER"), AdjustmentVariantNone,
			amount, "", PaymentMethodCash,
			ReferenceKindManual, nil, "",
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Entry kind is not valid")
	})

	t.Run("fails with adjustment missing variant", func(t *testing.T) {
		_, err := NewLedgerEntry(
			tenantID, sessionID,
			EntryKindAdjustment, AdjustmentVariantNone,
			amount, "", PaymentMethodCash,
			ReferenceKindManual, nil, "",
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Adjustment variant is not valid")
	})

	t.Run("fails with variant on non-adjustment kind", func(t *testing.T) {
		_, err := NewLedgerEntry(
			tenantID, sessionID,
			EntryKindDeposit, AdjustmentVariantSangria,
			amount, "", PaymentMethodCash,
			ReferenceKindManual, nil, "",
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Adjustment variant is not valid")
	})

	t.Run("fails with invalid payment method", func(t *testing.T) {
		_, err := NewLedgerEntry(
			tenantID, sessionID,
			EntryKindDeposit, AdjustmentVariantNone,
			amount, "", PaymentMethod("CHEQUE"),
			ReferenceKindManual, nil, "",
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Payment method is not valid")
	})

	t.Run("fails with invalid reference kind", func(t *testing.T) {
		_, err := NewLedgerEntry(
			tenantID, sessionID,
			EntryKindDeposit, AdjustmentVariantNone,
			amount, "", PaymentMethodCash,
			ReferenceKind("ORDER"), nil, "",
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Reference kind is not valid")
	})
}
