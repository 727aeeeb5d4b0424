package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/persistence/models"
)

// GormCashSessionRepository implements CashSessionRepository using GORM
type GormCashSessionRepository struct {
	db *gorm.DB
}

// NewGormCashSessionRepository creates a new GormCashSessionRepository
func NewGormCashSessionRepository(db *gorm.DB) *GormCashSessionRepository {
	return &GormCashSessionRepository{db: db}
}

// Create persists a new cash session. The partial unique index on
// (tenant_id) WHERE closed_at IS NULL rejects a second open session; the
// duplicate-key violation surfaces as SESSION_ALREADY_OPEN.
func (r *GormCashSessionRepository) Create(ctx context.Context, session *cashdesk.CashSession) error {
	model := models.CashSessionModelFromDomain(session)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError("SESSION_ALREADY_OPEN", "An open cash session already exists for this tenant")
		}
		return err
	}
	return nil
}

// FindByIDForTenant finds a cash session by ID for a specific tenant
func (r *GormCashSessionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*cashdesk.CashSession, error) {
	var model models.CashSessionModel
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

// FindOpenForTenant finds the tenant's open session, nil when none is open
func (r *GormCashSessionRepository) FindOpenForTenant(ctx context.Context, tenantID uuid.UUID) (*cashdesk.CashSession, error) {
	var model models.CashSessionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND closed_at IS NULL", tenantID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds sessions for a tenant with filtering
func (r *GormCashSessionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter cashdesk.CashSessionFilter) ([]cashdesk.CashSession, error) {
	var sessionModels []models.CashSessionModel
	query := r.db.WithContext(ctx).Model(&models.CashSessionModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applySessionFilter(query, filter)

	if err := query.Find(&sessionModels).Error; err != nil {
		return nil, err
	}
	sessions := make([]cashdesk.CashSession, len(sessionModels))
	for i, model := range sessionModels {
		sessions[i] = *model.ToDomain()
	}
	return sessions, nil
}

// CountForTenant counts sessions for a tenant with optional filters
func (r *GormCashSessionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter cashdesk.CashSessionFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.CashSessionModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applySessionFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SaveClosed persists a closed session with optimistic locking. The version
// check catches two operators racing to close the same till.
func (r *GormCashSessionRepository) SaveClosed(ctx context.Context, session *cashdesk.CashSession) error {
	model := models.CashSessionModelFromDomain(session)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ? AND closed_at IS NULL", session.ID, session.GetVersion()-1).
		Select("counted_amount", "closed_by", "closed_at", "updated_at", "version").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormCashSessionRepository) applySessionFilter(query *gorm.DB, filter cashdesk.CashSessionFilter) *gorm.DB {
	query = r.applySessionFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		query = query.Order(orderClause(filter.OrderBy, filter.OrderDir, CashSessionSortFields, "opened_at"))
	} else {
		query = query.Order("opened_at DESC")
	}

	return query
}

func (r *GormCashSessionRepository) applySessionFilterWithoutPagination(query *gorm.DB, filter cashdesk.CashSessionFilter) *gorm.DB {
	if filter.Status != nil {
		if *filter.Status == cashdesk.SessionStatusOpen {
			query = query.Where("closed_at IS NULL")
		} else {
			query = query.Where("closed_at IS NOT NULL")
		}
	}
	if filter.OpenedBy != nil {
		query = query.Where("opened_by = ?", *filter.OpenedBy)
	}
	if filter.FromDate != nil {
		query = query.Where("opened_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("opened_at <= ?", *filter.ToDate)
	}

	return query
}
