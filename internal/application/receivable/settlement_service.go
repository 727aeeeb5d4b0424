package receivable

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/receivable"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared/valueobject"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/telemetry"
)

// SettlementService applies payments to receivables, one at a time or as an
// atomic batch over a customer's selected debts. Cash receipts taken while a
// till is open also land in that till's journal; cash taken with no open till
// stays pending until a session opens.
type SettlementService struct {
	receivableRepo receivable.Repository
	settlementRepo receivable.SettlementRepository
	sessionRepo    cashdesk.CashSessionRepository
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	receivableRepo receivable.Repository,
	settlementRepo receivable.SettlementRepository,
	sessionRepo cashdesk.CashSessionRepository,
) *SettlementService {
	return &SettlementService{
		receivableRepo: receivableRepo,
		settlementRepo: settlementRepo,
		sessionRepo:    sessionRepo,
	}
}

// ===================== Requests & Responses =====================

// AddReceiptRequest represents a request to apply one payment to one receivable
type AddReceiptRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" binding:"required"`
	Notes  string          `json:"notes,omitempty"`
}

// SettleBatchRequest represents a request to settle one entered amount across
// several receivables of the same customer, in the given order.
type SettleBatchRequest struct {
	CustomerID    uuid.UUID       `json:"customer_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	ReceivableIDs []uuid.UUID     `json:"receivable_ids" binding:"required"`
	Method        string          `json:"method" binding:"required"`
	Notes         string          `json:"notes,omitempty"`
}

// SettleBatchResponse reports what a committed batch did
type SettleBatchResponse struct {
	Items          []receivable.SettlementItem `json:"items"`
	TotalAllocated decimal.Decimal             `json:"total_allocated"`
	Leftover       decimal.Decimal             `json:"leftover"`
	CashSessionID  *uuid.UUID                  `json:"cash_session_id,omitempty"`
}

// ===================== Operations =====================

// AddReceipt applies a single payment to a receivable. The receipt, the
// receivable's new status, and (for cash taken at an open till) the ledger
// entry commit in one transaction.
func (s *SettlementService) AddReceipt(ctx context.Context, tenantID, receivableID uuid.UUID, req AddReceiptRequest) (*ReceiptResponse, error) {
	method := cashdesk.PaymentMethod(req.Method)
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment method is not valid")
	}

	r, err := s.receivableRepo.FindByIDForTenant(ctx, tenantID, receivableID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, shared.NewDomainError("RECEIVABLE_NOT_FOUND", "Receivable not found")
	}

	sessionID, err := s.openSessionID(ctx, tenantID, method)
	if err != nil {
		return nil, err
	}

	receipt, err := receivable.NewReceipt(tenantID, receivableID, valueobject.NewMoneyBRL(req.Amount), method, sessionID, req.Notes)
	if err != nil {
		return nil, err
	}

	if err := r.ApplyReceipt(valueobject.NewMoneyBRL(req.Amount)); err != nil {
		return nil, err
	}

	var entry *cashdesk.LedgerEntry
	if sessionID != nil {
		entry, err = cashdesk.NewLedgerEntry(
			tenantID,
			*sessionID,
			cashdesk.EntryKindDeposit,
			cashdesk.AdjustmentVariantNone,
			valueobject.NewMoneyBRL(req.Amount),
			"receivable",
			method,
			cashdesk.ReferenceKindReceivableReceipt,
			&receivableID,
			req.Notes,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := s.settlementRepo.AddReceipt(ctx, r, receipt, entry); err != nil {
		return nil, err
	}

	resp := toReceiptResponse(receipt)
	return &resp, nil
}

// SettleBatch settles one entered amount across the selected receivables,
// strictly in selection order, in a single transaction. Outstanding amounts
// are re-read under row locks at commit time, so two concurrent settlements
// of the same customer cannot double-allocate.
func (s *SettlementService) SettleBatch(ctx context.Context, tenantID uuid.UUID, req SettleBatchRequest) (*SettleBatchResponse, error) {
	method := cashdesk.PaymentMethod(req.Method)
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment method is not valid")
	}
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Entered amount must be positive")
	}
	if len(req.ReceivableIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one receivable must be selected")
	}

	sessionID, err := s.openSessionID(ctx, tenantID, method)
	if err != nil {
		return nil, err
	}

	batch := receivable.SettlementBatch{
		TenantID:      tenantID,
		CustomerID:    req.CustomerID,
		Amount:        req.Amount,
		ReceivableIDs: req.ReceivableIDs,
		Method:        method,
		SessionID:     sessionID,
		Notes:         req.Notes,
	}

	var result *receivable.SettlementResult
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("settlement_commit_batch", nil), func(c context.Context) {
		result, err = s.settlementRepo.CommitBatch(c, batch)
	})
	if err != nil {
		return nil, err
	}

	return &SettleBatchResponse{
		Items:          result.Items,
		TotalAllocated: result.TotalAllocated,
		Leftover:       result.Leftover,
		CashSessionID:  sessionID,
	}, nil
}

// openSessionID resolves the open session for cash receipts, nil when the
// method is not cash or no till is open.
func (s *SettlementService) openSessionID(ctx context.Context, tenantID uuid.UUID, method cashdesk.PaymentMethod) (*uuid.UUID, error) {
	if method != cashdesk.PaymentMethodCash {
		return nil, nil
	}
	session, err := s.sessionRepo.FindOpenForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	id := session.ID
	return &id, nil
}
