package receivable

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
)

// Filter defines filtering options for receivable queries
type Filter struct {
	shared.Filter
	CustomerID *uuid.UUID // Filter by customer
	Status     *Status    // Filter by status
	FromDate   *time.Time // Filter by creation date range start
	ToDate     *time.Time // Filter by creation date range end
	DueFrom    *time.Time // Filter by due date range start
	DueTo      *time.Time // Filter by due date range end
	Overdue    *bool      // Filter only overdue receivables
}

// Repository defines the interface for receivable persistence
type Repository interface {
	// Create persists a new receivable
	Create(ctx context.Context, r *Receivable) error

	// FindByIDForTenant finds a receivable by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Receivable, error)

	// FindAllForTenant finds receivables for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Receivable, error)

	// FindOutstandingByCustomer finds OPEN/PARTIAL receivables for a customer,
	// oldest due date first
	FindOutstandingByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]Receivable, error)

	// CountForTenant counts receivables for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter Filter) (int64, error)

	// CountByStatus counts receivables by status for a tenant
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status Status) (int64, error)

	// SumOutstandingForTenant totals the outstanding amount owed to a tenant
	SumOutstandingForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)

	// SumOutstandingByCustomer totals the outstanding amount owed by a customer
	SumOutstandingByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (decimal.Decimal, error)

	// SumOverdueForTenant totals the overdue outstanding amount for a tenant
	SumOverdueForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, r *Receivable) error
}

// ReceiptRepository defines the read side of receipt persistence. Receipts are
// written only through the SettlementRepository so they can never be created
// outside a settlement transaction.
type ReceiptRepository interface {
	// FindByReceivable lists the receipts of a receivable, oldest first
	FindByReceivable(ctx context.Context, tenantID, receivableID uuid.UUID) ([]Receipt, error)

	// FindPendingCash finds cash receipts not yet bound to any cash session
	FindPendingCash(ctx context.Context, tenantID uuid.UUID) ([]Receipt, error)

	// CountForSession counts the receipts bound to a cash session
	CountForSession(ctx context.Context, tenantID, sessionID uuid.UUID) (int64, error)
}

// SettlementItem is one receivable paid by a committed settlement
type SettlementItem struct {
	ReceivableID uuid.UUID       `json:"receivable_id"`
	ReceiptID    uuid.UUID       `json:"receipt_id"`
	Amount       decimal.Decimal `json:"amount"`
	Status       Status          `json:"status"` // Receivable status after the payment
}

// SettlementResult is what a committed settlement reports back to the caller
type SettlementResult struct {
	Items          []SettlementItem `json:"items"`
	TotalAllocated decimal.Decimal  `json:"total_allocated"`
	Leftover       decimal.Decimal  `json:"leftover"`
}

// SettlementRepository is the transactional commit side of the settlement
// engine. Both operations are atomic: every write they perform happens in one
// transaction, and each selected receivable is re-read under a row lock inside
// that transaction so a concurrent settlement cannot double-allocate the same
// outstanding balance.
type SettlementRepository interface {
	// AddReceipt applies one payment to one receivable: persists the receipt,
	// the receivable's recomputed status, and, when entry is non-nil, appends
	// the ledger entry to the same transaction. Either all three happen or
	// none does.
	AddReceipt(ctx context.Context, r *Receivable, receipt *Receipt, entry *cashdesk.LedgerEntry) error

	// CommitBatch settles one entered amount across the receivables selected
	// by the caller, strictly in selection order. Outstanding amounts are
	// re-read under lock before allocating; any failure rolls the whole batch
	// back. When sessionID is non-nil a DEPOSIT ledger entry is appended for
	// each receipt in the same transaction.
	CommitBatch(ctx context.Context, batch SettlementBatch) (*SettlementResult, error)

	// AttachPendingToSession binds every pending cash receipt of the tenant
	// to the given open session and appends one DEPOSIT ledger entry per
	// receipt, all in one transaction. Returns the number of receipts
	// attached; zero when there is nothing pending, so retries are harmless.
	AttachPendingToSession(ctx context.Context, tenantID, sessionID uuid.UUID) (int, error)
}

// SettlementBatch describes a multi-receivable settlement to commit
type SettlementBatch struct {
	TenantID      uuid.UUID
	CustomerID    uuid.UUID
	Amount        decimal.Decimal // Entered amount A
	ReceivableIDs []uuid.UUID     // Selection S, in selection order
	Method        cashdesk.PaymentMethod
	SessionID     *uuid.UUID // Open cash session to append DEPOSIT entries to
	Notes         string
}
