package receivable

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lostcode-dev/cashdesk/internal/domain/receivable"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared/valueobject"
)

// ReceivableService provides application-level receivable operations
type ReceivableService struct {
	receivableRepo receivable.Repository
	receiptRepo    receivable.ReceiptRepository
}

// NewReceivableService creates a new ReceivableService
func NewReceivableService(
	receivableRepo receivable.Repository,
	receiptRepo receivable.ReceiptRepository,
) *ReceivableService {
	return &ReceivableService{
		receivableRepo: receivableRepo,
		receiptRepo:    receiptRepo,
	}
}

// ===================== Requests & Responses =====================

// CreateReceivableRequest represents a request to register a customer debt
type CreateReceivableRequest struct {
	CustomerID  uuid.UUID       `json:"customer_id" binding:"required"`
	Description string          `json:"description" binding:"required"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// ReceivableResponse represents a receivable in API responses
type ReceivableResponse struct {
	ID                uuid.UUID         `json:"id"`
	TenantID          uuid.UUID         `json:"tenant_id"`
	CustomerID        uuid.UUID         `json:"customer_id"`
	Description       string            `json:"description"`
	DueDate           *time.Time        `json:"due_date,omitempty"`
	Amount            decimal.Decimal   `json:"amount"`
	ReceivedAmount    decimal.Decimal   `json:"received_amount"`
	OutstandingAmount decimal.Decimal   `json:"outstanding_amount"`
	Status            string            `json:"status"`
	Overdue           bool              `json:"overdue"`
	PaidAt            *time.Time        `json:"paid_at,omitempty"`
	CancelledAt       *time.Time        `json:"cancelled_at,omitempty"`
	CancelReason      string            `json:"cancel_reason,omitempty"`
	Receipts          []ReceiptResponse `json:"receipts,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	Version           int               `json:"version"`
}

// ReceiptResponse represents a receipt in API responses
type ReceiptResponse struct {
	ID            uuid.UUID       `json:"id"`
	ReceivableID  uuid.UUID       `json:"receivable_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	CashSessionID *uuid.UUID      `json:"cash_session_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	ReceivedAt    time.Time       `json:"received_at"`
}

// ReceivableListFilter defines filtering options for receivable list queries
type ReceivableListFilter struct {
	CustomerID *uuid.UUID `form:"customer_id"`
	Status     string     `form:"status"`
	FromDate   *time.Time `form:"from_date"`
	ToDate     *time.Time `form:"to_date"`
	DueFrom    *time.Time `form:"due_from"`
	DueTo      *time.Time `form:"due_to"`
	Overdue    *bool      `form:"overdue"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

// ReceivableSummary aggregates the tenant's receivable position
type ReceivableSummary struct {
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	TotalOverdue     decimal.Decimal `json:"total_overdue"`
	OpenCount        int64           `json:"open_count"`
	PartialCount     int64           `json:"partial_count"`
}

// CustomerOutstandingResponse is the per-customer debt position
type CustomerOutstandingResponse struct {
	CustomerID       uuid.UUID            `json:"customer_id"`
	TotalOutstanding decimal.Decimal      `json:"total_outstanding"`
	Receivables      []ReceivableResponse `json:"receivables"`
}

func toReceivableResponse(r *receivable.Receivable) *ReceivableResponse {
	return &ReceivableResponse{
		ID:                r.ID,
		TenantID:          r.TenantID,
		CustomerID:        r.CustomerID,
		Description:       r.Description,
		DueDate:           r.DueDate,
		Amount:            r.Amount,
		ReceivedAmount:    r.ReceivedAmount,
		OutstandingAmount: r.OutstandingAmount,
		Status:            r.Status.String(),
		Overdue:           r.IsOverdue(),
		PaidAt:            r.PaidAt,
		CancelledAt:       r.CancelledAt,
		CancelReason:      r.CancelReason,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		Version:           r.GetVersion(),
	}
}

func toReceiptResponse(rc *receivable.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:            rc.ID,
		ReceivableID:  rc.ReceivableID,
		Amount:        rc.Amount,
		Method:        rc.Method.String(),
		CashSessionID: rc.CashSessionID,
		Notes:         rc.Notes,
		ReceivedAt:    rc.ReceivedAt,
	}
}

// ===================== Operations =====================

// Create registers a new receivable in OPEN state
func (s *ReceivableService) Create(ctx context.Context, tenantID uuid.UUID, req CreateReceivableRequest) (*ReceivableResponse, error) {
	r, err := receivable.NewReceivable(
		tenantID,
		req.CustomerID,
		req.Description,
		req.DueDate,
		valueobject.NewMoneyBRL(req.Amount),
	)
	if err != nil {
		return nil, err
	}

	if err := s.receivableRepo.Create(ctx, r); err != nil {
		return nil, err
	}

	return toReceivableResponse(r), nil
}

// GetByID returns a receivable with its receipt history
func (s *ReceivableService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*ReceivableResponse, error) {
	r, err := s.receivableRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, shared.NewDomainError("RECEIVABLE_NOT_FOUND", "Receivable not found")
	}

	receipts, err := s.receiptRepo.FindByReceivable(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	resp := toReceivableResponse(r)
	resp.Receipts = make([]ReceiptResponse, len(receipts))
	for i := range receipts {
		resp.Receipts[i] = toReceiptResponse(&receipts[i])
	}
	return resp, nil
}

// List lists receivables with filtering
func (s *ReceivableService) List(ctx context.Context, tenantID uuid.UUID, filter ReceivableListFilter) ([]ReceivableResponse, int64, error) {
	domainFilter := receivable.Filter{
		CustomerID: filter.CustomerID,
		FromDate:   filter.FromDate,
		ToDate:     filter.ToDate,
		DueFrom:    filter.DueFrom,
		DueTo:      filter.DueTo,
		Overdue:    filter.Overdue,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize

	if filter.Status != "" {
		status := receivable.Status(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_INPUT", "Receivable status is not valid")
		}
		domainFilter.Status = &status
	}

	receivables, err := s.receivableRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.receivableRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ReceivableResponse, len(receivables))
	for i := range receivables {
		responses[i] = *toReceivableResponse(&receivables[i])
	}

	return responses, total, nil
}

// Cancel cancels a receivable. Receipts already applied stay on record.
func (s *ReceivableService) Cancel(ctx context.Context, tenantID, id uuid.UUID, reason string) (*ReceivableResponse, error) {
	r, err := s.receivableRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, shared.NewDomainError("RECEIVABLE_NOT_FOUND", "Receivable not found")
	}

	if err := r.Cancel(reason); err != nil {
		return nil, err
	}

	if err := s.receivableRepo.SaveWithLock(ctx, r); err != nil {
		return nil, err
	}

	return toReceivableResponse(r), nil
}

// GetSummary aggregates the tenant's receivable position
func (s *ReceivableService) GetSummary(ctx context.Context, tenantID uuid.UUID) (*ReceivableSummary, error) {
	totalOutstanding, err := s.receivableRepo.SumOutstandingForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	totalOverdue, err := s.receivableRepo.SumOverdueForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	openCount, err := s.receivableRepo.CountByStatus(ctx, tenantID, receivable.StatusOpen)
	if err != nil {
		return nil, err
	}

	partialCount, err := s.receivableRepo.CountByStatus(ctx, tenantID, receivable.StatusPartial)
	if err != nil {
		return nil, err
	}

	return &ReceivableSummary{
		TotalOutstanding: totalOutstanding,
		TotalOverdue:     totalOverdue,
		OpenCount:        openCount,
		PartialCount:     partialCount,
	}, nil
}

// GetCustomerOutstanding returns the customer's open and partial receivables,
// oldest due date first, the order settlements consume them in.
func (s *ReceivableService) GetCustomerOutstanding(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerOutstandingResponse, error) {
	receivables, err := s.receivableRepo.FindOutstandingByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	total, err := s.receivableRepo.SumOutstandingByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	responses := make([]ReceivableResponse, len(receivables))
	for i := range receivables {
		responses[i] = *toReceivableResponse(&receivables[i])
	}

	return &CustomerOutstandingResponse{
		CustomerID:       customerID,
		TotalOutstanding: total,
		Receivables:      responses,
	}, nil
}
