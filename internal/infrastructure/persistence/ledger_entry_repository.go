package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/persistence/models"
)

// GormLedgerRepository implements LedgerRepository using GORM.
// The ledger is append-only: this repository exposes no update or delete.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append persists a new ledger entry
func (r *GormLedgerRepository) Append(ctx context.Context, entry *cashdesk.LedgerEntry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// ListForSession lists a session's entries with pagination
func (r *GormLedgerRepository) ListForSession(ctx context.Context, tenantID, sessionID uuid.UUID, filter shared.Filter) ([]cashdesk.LedgerEntry, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("tenant_id = ? AND cash_session_id = ?", tenantID, sessionID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if filter.OrderBy != "" {
		query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, LedgerEntrySortFields, "occurred_at"))
	} else {
		query = query.Order("occurred_at ASC")
	}

	var entryModels []models.LedgerEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, 0, err
	}
	entries := make([]cashdesk.LedgerEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, total, nil
}

// SumForSession totals the signed amounts of a session's entries
func (r *GormLedgerRepository) SumForSession(ctx context.Context, tenantID, sessionID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("tenant_id = ? AND cash_session_id = ?", tenantID, sessionID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// SumByMethodForSession totals the signed amounts grouped by payment method
func (r *GormLedgerRepository) SumByMethodForSession(ctx context.Context, tenantID, sessionID uuid.UUID) (map[cashdesk.PaymentMethod]decimal.Decimal, error) {
	type methodSum struct {
		Method string
		Total  decimal.Decimal
	}
	var rows []methodSum
	if err := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("tenant_id = ? AND cash_session_id = ?", tenantID, sessionID).
		Select("method, COALESCE(SUM(amount), 0) AS total").
		Group("method").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[cashdesk.PaymentMethod]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[cashdesk.PaymentMethod(row.Method)] = row.Total
	}
	return totals, nil
}

// CountForSession counts a session's entries
func (r *GormLedgerRepository) CountForSession(ctx context.Context, tenantID, sessionID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("tenant_id = ? AND cash_session_id = ?", tenantID, sessionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
