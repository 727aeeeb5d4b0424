package receivable

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/receivable"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared/valueobject"
)

func openTestSession(t *testing.T, tenantID uuid.UUID) *cashdesk.CashSession {
	cs, err := cashdesk.NewCashSession(tenantID, uuid.New(), valueobject.NewMoneyBRLFromFloat(100.00))
	require.NoError(t, err)
	return cs
}

// =============================================================================
// AddReceipt
// =============================================================================

func TestSettlementService_AddReceipt(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("cash receipt at an open till carries a ledger entry", func(t *testing.T) {
		receivableRepo := new(MockReceivableRepository)
		settlementRepo := new(MockSettlementRepository)
		sessionRepo := new(MockCashSessionRepository)
		svc := NewSettlementService(receivableRepo, settlementRepo, sessionRepo)

		r := newReceivable(t, tenantID, 100.00)
		cs := openTestSession(t, tenantID)
		receivableRepo.On("FindByIDForTenant", ctx, tenantID, r.ID).Return(r, nil)
		sessionRepo.On("FindOpenForTenant", ctx, tenantID).Return(cs, nil)
		settlementRepo.On("AddReceipt", ctx, r,
			mock.AnythingOfType("*receivable.Receipt"),
			mock.AnythingOfType("*cashdesk.LedgerEntry"),
		).Run(func(args mock.Arguments) {
			entry := args.Get(3).(*cashdesk.LedgerEntry)
			assert.Equal(t, cs.ID, entry.CashSessionID)
			assert.Equal(t, cashdesk.EntryKindDeposit, entry.Kind)
			assert.Equal(t, cashdesk.ReferenceKindReceivableReceipt, entry.ReferenceKind)
			require.NotNil(t, entry.ReferenceID)
			assert.Equal(t, r.ID, *entry.ReferenceID)
			assert.True(t, entry.Amount.Equal(decimal.NewFromFloat(60.00)))
		}).Return(nil)

		resp, err := svc.AddReceipt(ctx, tenantID, r.ID, AddReceiptRequest{
			Amount: decimal.NewFromFloat(60.00),
			Method: "CASH",
		})
		require.NoError(t, err)

		assert.True(t, resp.Amount.Equal(decimal.NewFromFloat(60.00)))
		require.NotNil(t, resp.CashSessionID)
		assert.Equal(t, cs.ID, *resp.CashSessionID)
		assert.Equal(t, receivable.StatusPartial, r.Status)
		settlementRepo.AssertExpectations(t)
	})

	t.Run("cash receipt with no open till stays pending", func(t *testing.T) {
		receivableRepo := new(MockReceivableRepository)
		settlementRepo := new(MockSettlementRepository)
		sessionRepo := new(MockCashSessionRepository)
		svc := NewSettlementService(receivableRepo, settlementRepo, sessionRepo)

		r := newReceivable(t, tenantID, 50.00)
		receivableRepo.On("FindByIDForTenant", ctx, tenantID, r.ID).Return(r, nil)
		sessionRepo.On("FindOpenForTenant", ctx, tenantID).Return(nil, nil)
		settlementRepo.On("AddReceipt", ctx, r, mock.Anything, (*cashdesk.LedgerEntry)(nil)).Return(nil)

		resp, err := svc.AddReceipt(ctx, tenantID, r.ID, AddReceiptRequest{
			Amount: decimal.NewFromFloat(50.00),
			Method: "CASH",
		})
		require.NoError(t, err)

		assert.Nil(t, resp.CashSessionID)
		assert.Equal(t, receivable.StatusPaid, r.Status)
		settlementRepo.AssertExpectations(t)
	})

	t.Run("pix receipt never touches the till", func(t *testing.T) {
		receivableRepo := new(MockReceivableRepository)
		settlementRepo := new(MockSettlementRepository)
		sessionRepo := new(MockCashSessionRepository)
		svc := NewSettlementService(receivableRepo, settlementRepo, sessionRepo)

		r := newReceivable(t, tenantID, 80.00)
		receivableRepo.On("FindByIDForTenant", ctx, tenantID, r.ID).Return(r, nil)
		settlementRepo.On("AddReceipt", ctx, r, mock.Anything, (*cashdesk.LedgerEntry)(nil)).Return(nil)

		resp, err := svc.AddReceipt(ctx, tenantID, r.ID, AddReceiptRequest{
			Amount: decimal.NewFromFloat(80.00),
			Method: "PIX",
		})
		require.NoError(t, err)

		assert.Nil(t, resp.CashSessionID)
		sessionRepo.AssertNotCalled(t, "FindOpenForTenant", mock.Anything, mock.Anything)
	})

	t.Run("rejects overpayment", func(t *testing.T) {
		receivableRepo := new(MockReceivableRepository)
		sessionRepo := new(MockCashSessionRepository)
		svc := NewSettlementService(receivableRepo, new(MockSettlementRepository), sessionRepo)

		r := newReceivable(t, tenantID, 100.00)
		receivableRepo.On("FindByIDForTenant", ctx, tenantID, r.ID).Return(r, nil)
		sessionRepo.On("FindOpenForTenant", ctx, tenantID).Return(nil, nil)

		_, err := svc.AddReceipt(ctx, tenantID, r.ID, AddReceiptRequest{
			Amount: decimal.NewFromFloat(100.01),
			Method: "CASH",
		})
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "EXCEEDS_OUTSTANDING", domainErr.Code)
		assert.Equal(t, receivable.StatusOpen, r.Status)
	})

	t.Run("rejects receipt on a cancelled receivable", func(t *testing.T) {
		receivableRepo := new(MockReceivableRepository)
		sessionRepo := new(MockCashSessionRepository)
		svc := NewSettlementService(receivableRepo, new(MockSettlementRepository), sessionRepo)

		r := newReceivable(t, tenantID, 100.00)
		require.NoError(t, r.Cancel("Cliente desistiu"))
		receivableRepo.On("FindByIDForTenant", ctx, tenantID, r.ID).Return(r, nil)
		sessionRepo.On("FindOpenForTenant", ctx, tenantID).Return(nil, nil)

		_, err := svc.AddReceipt(ctx, tenantID, r.ID, AddReceiptRequest{
			Amount: decimal.NewFromFloat(10.00),
			Method: "CASH",
		})
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "RECEIVABLE_CANCELLED", domainErr.Code)
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		svc := NewSettlementService(new(MockReceivableRepository), new(MockSettlementRepository), new(MockCashSessionRepository))

		_, err := svc.AddReceipt(ctx, tenantID, uuid.New(), AddReceiptRequest{
			Amount: decimal.NewFromFloat(10.00),
			Method: "CHEQUE",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Payment method is not valid")
	})

	t.Run("returns RECEIVABLE_NOT_FOUND for unknown id", func(t *testing.T) {
		receivableRepo := new(MockReceivableRepository)
		svc := NewSettlementService(receivableRepo, new(MockSettlementRepository), new(MockCashSessionRepository))

		id := uuid.New()
		receivableRepo.On("FindByIDForTenant", ctx, tenantID, id).Return(nil, nil)

		_, err := svc.AddReceipt(ctx, tenantID, id, AddReceiptRequest{
			Amount: decimal.NewFromFloat(10.00),
			Method: "PIX",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

// =============================================================================
// SettleBatch
// =============================================================================

func TestSettlementService_SettleBatch(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	customerID := uuid.New()

	t.Run("commits a batch and reports the allocation", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepository)
		sessionRepo := new(MockCashSessionRepository)
		svc := NewSettlementService(new(MockReceivableRepository), settlementRepo, sessionRepo)

		ids := []uuid.UUID{uuid.New(), uuid.New()}
		cs := openTestSession(t, tenantID)
		sessionRepo.On("FindOpenForTenant", mock.Anything, tenantID).Return(cs, nil)

		result := &receivable.SettlementResult{
			Items: []receivable.SettlementItem{
				{ReceivableID: ids[0], Amount: decimal.NewFromFloat(50.00), Status: receivable.StatusPaid},
				{ReceivableID: ids[1], Amount: decimal.NewFromFloat(30.00), Status: receivable.StatusPartial},
			},
			TotalAllocated: decimal.NewFromFloat(80.00),
			Leftover:       decimal.Zero,
		}
		settlementRepo.On("CommitBatch", mock.Anything, mock.MatchedBy(func(b receivable.SettlementBatch) bool {
			return b.CustomerID == customerID &&
				b.Method == cashdesk.PaymentMethodCash &&
				b.SessionID != nil && *b.SessionID == cs.ID &&
				len(b.ReceivableIDs) == 2
		})).Return(result, nil)

		resp, err := svc.SettleBatch(ctx, tenantID, SettleBatchRequest{
			CustomerID:    customerID,
			Amount:        decimal.NewFromFloat(80.00),
			ReceivableIDs: ids,
			Method:        "CASH",
		})
		require.NoError(t, err)

		assert.True(t, resp.TotalAllocated.Equal(decimal.NewFromFloat(80.00)))
		assert.True(t, resp.Leftover.IsZero())
		require.NotNil(t, resp.CashSessionID)
		assert.Equal(t, cs.ID, *resp.CashSessionID)
		require.Len(t, resp.Items, 2)
		assert.Equal(t, receivable.StatusPaid, resp.Items[0].Status)
		settlementRepo.AssertExpectations(t)
	})

	t.Run("pix batch commits without a session", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepository)
		sessionRepo := new(MockCashSessionRepository)
		svc := NewSettlementService(new(MockReceivableRepository), settlementRepo, sessionRepo)

		settlementRepo.On("CommitBatch", mock.Anything, mock.MatchedBy(func(b receivable.SettlementBatch) bool {
			return b.SessionID == nil && b.Method == cashdesk.PaymentMethodPix
		})).Return(&receivable.SettlementResult{
			Items:          []receivable.SettlementItem{},
			TotalAllocated: decimal.NewFromFloat(20.00),
			Leftover:       decimal.Zero,
		}, nil)

		resp, err := svc.SettleBatch(ctx, tenantID, SettleBatchRequest{
			CustomerID:    customerID,
			Amount:        decimal.NewFromFloat(20.00),
			ReceivableIDs: []uuid.UUID{uuid.New()},
			Method:        "PIX",
		})
		require.NoError(t, err)

		assert.Nil(t, resp.CashSessionID)
		sessionRepo.AssertNotCalled(t, "FindOpenForTenant", mock.Anything, mock.Anything)
	})

	t.Run("propagates excess selection error from commit", func(t *testing.T) {
		settlementRepo := new(MockSettlementRepository)
		sessionRepo := new(MockCashSessionRepository)
		svc := NewSettlementService(new(MockReceivableRepository), settlementRepo, sessionRepo)

		sessionRepo.On("FindOpenForTenant", mock.Anything, tenantID).Return(nil, nil)
		settlementRepo.On("CommitBatch", mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError("ALLOCATION_EXCEEDS_AMOUNT", "Selected receivables exceed the entered amount"))

		_, err := svc.SettleBatch(ctx, tenantID, SettleBatchRequest{
			CustomerID:    customerID,
			Amount:        decimal.NewFromFloat(10.00),
			ReceivableIDs: []uuid.UUID{uuid.New(), uuid.New()},
			Method:        "CASH",
		})
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "ALLOCATION_EXCEEDS_AMOUNT", domainErr.Code)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		svc := NewSettlementService(new(MockReceivableRepository), new(MockSettlementRepository), new(MockCashSessionRepository))

		_, err := svc.SettleBatch(ctx, tenantID, SettleBatchRequest{
			CustomerID:    customerID,
			Amount:        decimal.Zero,
			ReceivableIDs: []uuid.UUID{uuid.New()},
			Method:        "CASH",
		})
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_AMOUNT", domainErr.Code)
	})

	t.Run("rejects empty selection", func(t *testing.T) {
		svc := NewSettlementService(new(MockReceivableRepository), new(MockSettlementRepository), new(MockCashSessionRepository))

		_, err := svc.SettleBatch(ctx, tenantID, SettleBatchRequest{
			CustomerID: customerID,
			Amount:     decimal.NewFromFloat(10.00),
			Method:     "CASH",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "At least one receivable")
	})
}
