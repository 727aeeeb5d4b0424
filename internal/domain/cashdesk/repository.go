package cashdesk

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
)

// CashSessionFilter defines filtering options for session queries
type CashSessionFilter struct {
	shared.Filter
	Status   *SessionStatus // Filter by derived status
	OpenedBy *uuid.UUID     // Filter by opening operator
	FromDate *time.Time     // Filter by opened_at range start
	ToDate   *time.Time     // Filter by opened_at range end
}

// CashSessionRepository defines the interface for cash session persistence
type CashSessionRepository interface {
	// Create persists a newly opened session. The implementation must enforce
	// the single-open-session invariant atomically (a partial unique index on
	// (tenant_id) WHERE closed_at IS NULL, or equivalent) and return
	// SESSION_ALREADY_OPEN when a concurrent or prior open session exists.
	Create(ctx context.Context, session *CashSession) error

	// FindByIDForTenant finds a session by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CashSession, error)

	// FindOpenForTenant finds the open session for a tenant, nil if none
	FindOpenForTenant(ctx context.Context, tenantID uuid.UUID) (*CashSession, error)

	// FindAllForTenant finds sessions for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter CashSessionFilter) ([]CashSession, error)

	// CountForTenant counts sessions for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter CashSessionFilter) (int64, error)

	// SaveClosed persists the close mutation (closed_at, counted_amount,
	// closed_by) with optimistic locking. This is the only update a session
	// ever receives.
	SaveClosed(ctx context.Context, session *CashSession) error
}

// LedgerRepository is the append-only journal behind the cash session manager.
// The interface deliberately exposes no update or delete operation; the
// append-only property that Balance depends on is guaranteed here, not by
// convention.
type LedgerRepository interface {
	// Append persists a new ledger entry. The entry's session must be open at
	// the time of the append.
	Append(ctx context.Context, entry *LedgerEntry) error

	// ListForSession lists entries for a session, oldest first, paginated
	ListForSession(ctx context.Context, tenantID, sessionID uuid.UUID, filter shared.Filter) ([]LedgerEntry, int64, error)

	// SumForSession returns the signed sum of all entry amounts for a session
	SumForSession(ctx context.Context, tenantID, sessionID uuid.UUID) (decimal.Decimal, error)

	// SumByMethodForSession returns the signed sums grouped by payment method
	SumByMethodForSession(ctx context.Context, tenantID, sessionID uuid.UUID) (map[PaymentMethod]decimal.Decimal, error)

	// CountForSession counts the entries of a session
	CountForSession(ctx context.Context, tenantID, sessionID uuid.UUID) (int64, error)
}
