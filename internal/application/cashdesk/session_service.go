package cashdesk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/receivable"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared/valueobject"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/logger"
)

// ClosingStatementReporter renders and stores a closing statement document for
// a just-closed session, returning a URL the client can fetch it from.
// Statement generation is best effort: a failure is reported to the caller
// but never rolls back the close itself.
type ClosingStatementReporter interface {
	GenerateStatement(ctx context.Context, report *cashdesk.ClosingReport, entries []cashdesk.LedgerEntry) (string, error)
}

// SessionService provides application-level cash session operations
type SessionService struct {
	sessionRepo    cashdesk.CashSessionRepository
	ledgerRepo     cashdesk.LedgerRepository
	settlementRepo receivable.SettlementRepository
	idempotency    shared.IdempotencyStore
	idempotencyCfg shared.IdempotencyConfig
	reporter       ClosingStatementReporter
}

// SessionServiceOption is a functional option for configuring SessionService
type SessionServiceOption func(*SessionService)

// WithIdempotencyStore enables idempotent close retries backed by the store
func WithIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) SessionServiceOption {
	return func(s *SessionService) {
		s.idempotency = store
		s.idempotencyCfg = cfg
	}
}

// WithClosingStatementReporter sets the statement generator used at close
func WithClosingStatementReporter(reporter ClosingStatementReporter) SessionServiceOption {
	return func(s *SessionService) {
		s.reporter = reporter
	}
}

// NewSessionService creates a new SessionService
func NewSessionService(
	sessionRepo cashdesk.CashSessionRepository,
	ledgerRepo cashdesk.LedgerRepository,
	settlementRepo receivable.SettlementRepository,
	opts ...SessionServiceOption,
) *SessionService {
	s := &SessionService{
		sessionRepo:    sessionRepo,
		ledgerRepo:     ledgerRepo,
		settlementRepo: settlementRepo,
		idempotencyCfg: shared.DefaultIdempotencyConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Requests & Responses =====================

// OpenSessionRequest represents a request to open a cash session
type OpenSessionRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount"`
	OpenedBy      uuid.UUID       `json:"-"` // Set from JWT context, not from request body
}

// CloseSessionRequest represents a request to close a cash session
type CloseSessionRequest struct {
	CountedAmount    decimal.Decimal `json:"counted_amount"`
	IdempotencyToken string          `json:"idempotency_token,omitempty"`
	ClosedBy         uuid.UUID       `json:"-"` // Set from JWT context, not from request body
}

// MovementRequest represents a request to append a manual cash movement
type MovementRequest struct {
	Kind     string          `json:"kind" binding:"required"`
	Variant  string          `json:"variant,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category,omitempty"`
	Method   string          `json:"method,omitempty"`
	Notes    string          `json:"notes,omitempty"`
}

// SessionResponse represents a cash session in API responses
type SessionResponse struct {
	ID             uuid.UUID        `json:"id"`
	TenantID       uuid.UUID        `json:"tenant_id"`
	Status         string           `json:"status"`
	OpeningAmount  decimal.Decimal  `json:"opening_amount"`
	CountedAmount  *decimal.Decimal `json:"counted_amount,omitempty"`
	OpenedBy       uuid.UUID        `json:"opened_by"`
	ClosedBy       *uuid.UUID       `json:"closed_by,omitempty"`
	OpenedAt       time.Time        `json:"opened_at"`
	ClosedAt       *time.Time       `json:"closed_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Version        int              `json:"version"`
}

// LedgerEntryResponse represents a ledger entry in API responses
type LedgerEntryResponse struct {
	ID            uuid.UUID       `json:"id"`
	CashSessionID uuid.UUID       `json:"cash_session_id"`
	Kind          string          `json:"kind"`
	Variant       string          `json:"variant,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category,omitempty"`
	Method        string          `json:"method,omitempty"`
	ReferenceKind string          `json:"reference_kind"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Notes         string          `json:"notes,omitempty"`
}

// BalanceResponse reports the ledger-derived balance of a session.
// ExpectedAmount is recomputed from the journal on every call.
type BalanceResponse struct {
	SessionID      uuid.UUID                                  `json:"session_id"`
	Status         string                                     `json:"status"`
	OpeningAmount  decimal.Decimal                            `json:"opening_amount"`
	MovementTotal  decimal.Decimal                            `json:"movement_total"`
	ExpectedAmount decimal.Decimal                            `json:"expected_amount"`
	EntryCount     int64                                      `json:"entry_count"`
	TotalsByMethod map[cashdesk.PaymentMethod]decimal.Decimal `json:"totals_by_method,omitempty"`
}

// SessionListFilter defines filtering options for session list queries
type SessionListFilter struct {
	Status   string     `form:"status"`
	OpenedBy *uuid.UUID `form:"opened_by"`
	FromDate *time.Time `form:"from_date"`
	ToDate   *time.Time `form:"to_date"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

func toSessionResponse(cs *cashdesk.CashSession) *SessionResponse {
	return &SessionResponse{
		ID:            cs.ID,
		TenantID:      cs.TenantID,
		Status:        cs.Status().String(),
		OpeningAmount: cs.OpeningAmount,
		CountedAmount: cs.CountedAmount,
		OpenedBy:      cs.OpenedBy,
		ClosedBy:      cs.ClosedBy,
		OpenedAt:      cs.OpenedAt,
		ClosedAt:      cs.ClosedAt,
		CreatedAt:     cs.CreatedAt,
		UpdatedAt:     cs.UpdatedAt,
		Version:       cs.GetVersion(),
	}
}

func toLedgerEntryResponse(e *cashdesk.LedgerEntry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:            e.ID,
		CashSessionID: e.CashSessionID,
		Kind:          e.Kind.String(),
		Variant:       string(e.Variant),
		Amount:        e.Amount,
		Category:      e.Category,
		Method:        e.Method.String(),
		ReferenceKind: string(e.ReferenceKind),
		ReferenceID:   e.ReferenceID,
		OccurredAt:    e.OccurredAt,
		Notes:         e.Notes,
	}
}

// ===================== Operations =====================

// Open opens a new cash session for the tenant. The single-open-session
// invariant is enforced by the repository, so two concurrent opens race on the
// database constraint and exactly one wins. Pending cash receipts taken while
// no till was open are bound to the new session right after the open commits.
func (s *SessionService) Open(ctx context.Context, tenantID uuid.UUID, req OpenSessionRequest) (*SessionResponse, error) {
	session, err := cashdesk.NewCashSession(tenantID, req.OpenedBy, valueobject.NewMoneyBRL(req.OpeningAmount))
	if err != nil {
		return nil, err
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	attached, err := s.settlementRepo.AttachPendingToSession(ctx, tenantID, session.ID)
	if err != nil {
		// The session is open either way; a later explicit attach retries this.
		logger.L(ctx).Warn("failed to attach pending cash receipts on open",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
	} else if attached > 0 {
		logger.L(ctx).Info("attached pending cash receipts to new session",
			zap.String("session_id", session.ID.String()),
			zap.Int("count", attached))
	}

	return toSessionResponse(session), nil
}

// GetOpen returns the tenant's currently open session
func (s *SessionService) GetOpen(ctx context.Context, tenantID uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessionRepo.FindOpenForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, shared.NewDomainError("SESSION_NOT_FOUND", "No open cash session for this tenant")
	}
	return toSessionResponse(session), nil
}

// GetByID returns a session by ID
func (s *SessionService) GetByID(ctx context.Context, tenantID, sessionID uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessionRepo.FindByIDForTenant(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, shared.NewDomainError("SESSION_NOT_FOUND", "Cash session not found")
	}
	return toSessionResponse(session), nil
}

// List lists sessions with filtering
func (s *SessionService) List(ctx context.Context, tenantID uuid.UUID, filter SessionListFilter) ([]SessionResponse, int64, error) {
	domainFilter := cashdesk.CashSessionFilter{
		OpenedBy: filter.OpenedBy,
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize

	if filter.Status != "" {
		status := cashdesk.SessionStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_INPUT", "Session status is not valid")
		}
		domainFilter.Status = &status
	}

	sessions, err := s.sessionRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.sessionRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]SessionResponse, len(sessions))
	for i := range sessions {
		responses[i] = *toSessionResponse(&sessions[i])
	}

	return responses, total, nil
}

// Balance recomputes the session balance from the journal
func (s *SessionService) Balance(ctx context.Context, tenantID, sessionID uuid.UUID) (*BalanceResponse, error) {
	session, err := s.sessionRepo.FindByIDForTenant(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, shared.NewDomainError("SESSION_NOT_FOUND", "Cash session not found")
	}

	movementTotal, err := s.ledgerRepo.SumForSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	entryCount, err := s.ledgerRepo.CountForSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	totalsByMethod, err := s.ledgerRepo.SumByMethodForSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	return &BalanceResponse{
		SessionID:      session.ID,
		Status:         session.Status().String(),
		OpeningAmount:  session.OpeningAmount,
		MovementTotal:  movementTotal,
		ExpectedAmount: session.OpeningAmount.Add(movementTotal),
		EntryCount:     entryCount,
		TotalsByMethod: totalsByMethod,
	}, nil
}

// AddMovement appends a manual movement to an open session
func (s *SessionService) AddMovement(ctx context.Context, tenantID, sessionID uuid.UUID, req MovementRequest) (*LedgerEntryResponse, error) {
	session, err := s.sessionRepo.FindByIDForTenant(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, shared.NewDomainError("SESSION_NOT_FOUND", "Cash session not found")
	}
	if !session.IsOpen() {
		return nil, shared.NewDomainError("SESSION_NOT_OPEN", "Cannot add movements to a closed session")
	}

	entry, err := cashdesk.NewLedgerEntry(
		tenantID,
		session.ID,
		cashdesk.EntryKind(req.Kind),
		cashdesk.AdjustmentVariant(req.Variant),
		valueobject.NewMoneyBRL(req.Amount),
		req.Category,
		cashdesk.PaymentMethod(req.Method),
		cashdesk.ReferenceKindManual,
		nil,
		req.Notes,
	)
	if err != nil {
		return nil, err
	}

	if err := s.ledgerRepo.Append(ctx, entry); err != nil {
		return nil, err
	}

	return toLedgerEntryResponse(entry), nil
}

// ListEntries lists the journal of a session, oldest first
func (s *SessionService) ListEntries(ctx context.Context, tenantID, sessionID uuid.UUID, filter shared.Filter) ([]LedgerEntryResponse, int64, error) {
	session, err := s.sessionRepo.FindByIDForTenant(ctx, tenantID, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if session == nil {
		return nil, 0, shared.NewDomainError("SESSION_NOT_FOUND", "Cash session not found")
	}

	entries, total, err := s.ledgerRepo.ListForSession(ctx, tenantID, sessionID, filter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		responses[i] = *toLedgerEntryResponse(&entries[i])
	}

	return responses, total, nil
}

// AttachPendingCashReceipts binds the tenant's pending cash receipts to its
// open session. The operation is idempotent: receipts already attached are
// never attached twice, and a run with nothing pending succeeds with count 0.
func (s *SessionService) AttachPendingCashReceipts(ctx context.Context, tenantID uuid.UUID) (int, error) {
	session, err := s.sessionRepo.FindOpenForTenant(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if session == nil {
		return 0, shared.NewDomainError("SESSION_NOT_OPEN", "No open cash session to attach receipts to")
	}

	return s.settlementRepo.AttachPendingToSession(ctx, tenantID, session.ID)
}

// Close closes the session and reconciles counted against expected cash.
// The expected amount is recomputed from the journal at close time. When the
// request carries an idempotency token, a retried close of an already-closed
// session returns the original report instead of SESSION_NOT_OPEN.
func (s *SessionService) Close(ctx context.Context, tenantID, sessionID uuid.UUID, req CloseSessionRequest) (*cashdesk.ClosingReport, error) {
	session, err := s.sessionRepo.FindByIDForTenant(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, shared.NewDomainError("SESSION_NOT_FOUND", "Cash session not found")
	}

	idempotencyKey := s.closeKey(sessionID, req.IdempotencyToken)

	if !session.IsOpen() {
		if idempotencyKey != "" && s.idempotency != nil {
			processed, checkErr := s.idempotency.IsProcessed(ctx, idempotencyKey)
			if checkErr != nil {
				logger.L(ctx).Warn("idempotency check failed on close retry",
					zap.String("session_id", sessionID.String()),
					zap.Error(checkErr))
			}
			if processed {
				return s.rebuildClosingReport(ctx, session)
			}
		}
		return nil, shared.NewDomainError("SESSION_NOT_OPEN", "Cash session is already closed")
	}

	movementTotal, err := s.ledgerRepo.SumForSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	expected := session.OpeningAmount.Add(movementTotal)

	report, err := session.Close(
		valueobject.NewMoneyBRL(req.CountedAmount),
		valueobject.NewMoneyBRL(expected),
		req.ClosedBy,
	)
	if err != nil {
		return nil, err
	}

	if err := s.sessionRepo.SaveClosed(ctx, session); err != nil {
		return nil, err
	}

	if idempotencyKey != "" && s.idempotency != nil {
		if _, markErr := s.idempotency.MarkProcessed(ctx, idempotencyKey, s.idempotencyCfg.TTL); markErr != nil {
			logger.L(ctx).Warn("failed to mark close as processed",
				zap.String("session_id", sessionID.String()),
				zap.Error(markErr))
		}
	}

	if err := s.enrichClosingReport(ctx, report); err != nil {
		return nil, err
	}

	s.generateStatement(ctx, report)

	logger.L(ctx).Info("cash session closed",
		zap.String("session_id", sessionID.String()),
		zap.String("classification", string(report.Classification)),
		zap.String("difference", report.Difference.StringFixed(2)))

	return report, nil
}

// closeKey builds the idempotency key for a close request, empty when the
// client sent no token.
func (s *SessionService) closeKey(sessionID uuid.UUID, token string) string {
	if token == "" {
		return ""
	}
	return fmt.Sprintf("session:close:%s:%s", sessionID, token)
}

// rebuildClosingReport reconstructs the report of an already-closed session
// for an idempotent close retry. The math is deterministic given the stored
// counted amount and the immutable journal, so the retry sees the same report
// the original close produced.
func (s *SessionService) rebuildClosingReport(ctx context.Context, session *cashdesk.CashSession) (*cashdesk.ClosingReport, error) {
	movementTotal, err := s.ledgerRepo.SumForSession(ctx, session.TenantID, session.ID)
	if err != nil {
		return nil, err
	}
	expected := session.OpeningAmount.Add(movementTotal)

	counted := decimal.Zero
	if session.CountedAmount != nil {
		counted = *session.CountedAmount
	}

	report := cashdesk.NewClosingReport(session, expected, counted)
	if err := s.enrichClosingReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// enrichClosingReport fills the per-method totals and entry count
func (s *SessionService) enrichClosingReport(ctx context.Context, report *cashdesk.ClosingReport) error {
	totalsByMethod, err := s.ledgerRepo.SumByMethodForSession(ctx, report.TenantID, report.SessionID)
	if err != nil {
		return err
	}
	entryCount, err := s.ledgerRepo.CountForSession(ctx, report.TenantID, report.SessionID)
	if err != nil {
		return err
	}
	report.TotalsByMethod = totalsByMethod
	report.EntryCount = entryCount
	return nil
}

// generateStatement renders the closing statement. A failure is logged and the
// report goes out without a statement URL; the close itself stands.
func (s *SessionService) generateStatement(ctx context.Context, report *cashdesk.ClosingReport) {
	if s.reporter == nil {
		return
	}

	entries, _, err := s.ledgerRepo.ListForSession(ctx, report.TenantID, report.SessionID, shared.Filter{
		Page: 1, PageSize: 1000, OrderBy: "occurred_at", OrderDir: "asc",
	})
	if err != nil {
		logger.L(ctx).Warn("failed to load entries for closing statement",
			zap.String("session_id", report.SessionID.String()),
			zap.Error(err))
		return
	}

	url, err := s.reporter.GenerateStatement(ctx, report, entries)
	if err != nil {
		logger.L(ctx).Warn("closing statement generation failed",
			zap.String("session_id", report.SessionID.String()),
			zap.String("code", "REPORT_GENERATION_FAILED"),
			zap.Error(err))
		return
	}
	report.StatementURL = url
}
