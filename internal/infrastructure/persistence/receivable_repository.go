package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lostcode-dev/cashdesk/internal/domain/receivable"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/persistence/models"
)

var outstandingStatuses = []receivable.Status{receivable.StatusOpen, receivable.StatusPartial}

// GormReceivableRepository implements receivable.Repository using GORM
type GormReceivableRepository struct {
	db *gorm.DB
}

// NewGormReceivableRepository creates a new GormReceivableRepository
func NewGormReceivableRepository(db *gorm.DB) *GormReceivableRepository {
	return &GormReceivableRepository{db: db}
}

// Create persists a new receivable
func (r *GormReceivableRepository) Create(ctx context.Context, rec *receivable.Receivable) error {
	model := models.ReceivableModelFromDomain(rec)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByIDForTenant finds a receivable by ID for a specific tenant
func (r *GormReceivableRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*receivable.Receivable, error) {
	var model models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds receivables for a tenant with filtering
func (r *GormReceivableRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter receivable.Filter) ([]receivable.Receivable, error) {
	var receivableModels []models.ReceivableModel
	query := r.db.WithContext(ctx).Model(&models.ReceivableModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilter(query, filter)

	if err := query.Find(&receivableModels).Error; err != nil {
		return nil, err
	}
	receivables := make([]receivable.Receivable, len(receivableModels))
	for i, model := range receivableModels {
		receivables[i] = *model.ToDomain()
	}
	return receivables, nil
}

// FindOutstandingByCustomer finds OPEN/PARTIAL receivables for a customer.
// Ordered oldest due date first (NULL due dates last), then by creation;
// this is the default settlement order.
func (r *GormReceivableRepository) FindOutstandingByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]receivable.Receivable, error) {
	var receivableModels []models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ? AND status IN ?", tenantID, customerID, outstandingStatuses).
		Order("due_date ASC NULLS LAST, created_at ASC").
		Find(&receivableModels).Error; err != nil {
		return nil, err
	}
	receivables := make([]receivable.Receivable, len(receivableModels))
	for i, model := range receivableModels {
		receivables[i] = *model.ToDomain()
	}
	return receivables, nil
}

// CountForTenant counts receivables for a tenant with optional filters
func (r *GormReceivableRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter receivable.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ReceivableModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts receivables by status for a tenant
func (r *GormReceivableRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status receivable.Status) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ReceivableModel{}).
		Where("tenant_id = ? AND status = ?", tenantID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumOutstandingForTenant totals the outstanding amount owed to a tenant
func (r *GormReceivableRepository) SumOutstandingForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	return r.sumOutstanding(ctx, r.db.WithContext(ctx).Model(&models.ReceivableModel{}).
		Where("tenant_id = ? AND status IN ?", tenantID, outstandingStatuses))
}

// SumOutstandingByCustomer totals the outstanding amount owed by a customer
func (r *GormReceivableRepository) SumOutstandingByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (decimal.Decimal, error) {
	return r.sumOutstanding(ctx, r.db.WithContext(ctx).Model(&models.ReceivableModel{}).
		Where("tenant_id = ? AND customer_id = ? AND status IN ?", tenantID, customerID, outstandingStatuses))
}

// SumOverdueForTenant totals the overdue outstanding amount for a tenant
func (r *GormReceivableRepository) SumOverdueForTenant(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	return r.sumOutstanding(ctx, r.db.WithContext(ctx).Model(&models.ReceivableModel{}).
		Where("tenant_id = ? AND due_date < ? AND status IN ?", tenantID, time.Now(), outstandingStatuses))
}

// SaveWithLock saves with optimistic locking
func (r *GormReceivableRepository) SaveWithLock(ctx context.Context, rec *receivable.Receivable) error {
	model := models.ReceivableModelFromDomain(rec)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", rec.ID, rec.GetVersion()-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormReceivableRepository) sumOutstanding(_ context.Context, query *gorm.DB) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := query.Select("COALESCE(SUM(outstanding_amount), 0)").Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *GormReceivableRepository) applyFilter(query *gorm.DB, filter receivable.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, ReceivableSortFields, "created_at"))
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

func (r *GormReceivableRepository) applyFilterWithoutPagination(query *gorm.DB, filter receivable.Filter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.Overdue != nil && *filter.Overdue {
		query = query.Where("due_date < ? AND status IN ?", time.Now(), outstandingStatuses)
	}

	return query
}

// GormReceiptRepository implements receivable.ReceiptRepository using GORM.
// This is the read side only; receipts are written through the settlement
// repository's transactions.
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByReceivable lists the receipts of a receivable, oldest first
func (r *GormReceiptRepository) FindByReceivable(ctx context.Context, tenantID, receivableID uuid.UUID) ([]receivable.Receipt, error) {
	var receiptModels []models.ReceiptModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND receivable_id = ?", tenantID, receivableID).
		Order("received_at ASC").
		Find(&receiptModels).Error; err != nil {
		return nil, err
	}
	receipts := make([]receivable.Receipt, len(receiptModels))
	for i, model := range receiptModels {
		receipts[i] = *model.ToDomain()
	}
	return receipts, nil
}

// FindPendingCash finds cash receipts not yet bound to any cash session
func (r *GormReceiptRepository) FindPendingCash(ctx context.Context, tenantID uuid.UUID) ([]receivable.Receipt, error) {
	var receiptModels []models.ReceiptModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND method = ? AND cash_session_id IS NULL", tenantID, "CASH").
		Order("received_at ASC").
		Find(&receiptModels).Error; err != nil {
		return nil, err
	}
	receipts := make([]receivable.Receipt, len(receiptModels))
	for i, model := range receiptModels {
		receipts[i] = *model.ToDomain()
	}
	return receipts, nil
}

// CountForSession counts the receipts bound to a cash session
func (r *GormReceiptRepository) CountForSession(ctx context.Context, tenantID, sessionID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ReceiptModel{}).
		Where("tenant_id = ? AND cash_session_id = ?", tenantID, sessionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
