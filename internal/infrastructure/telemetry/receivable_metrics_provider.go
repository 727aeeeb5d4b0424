// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReceivableMetricsProvider implements ReceivableMetricsProvider using GORM.
// It queries the receivables table directly for aggregated metrics.
type GormReceivableMetricsProvider struct {
	db *gorm.DB
}

// NewGormReceivableMetricsProvider creates a new GormReceivableMetricsProvider.
func NewGormReceivableMetricsProvider(db *gorm.DB) *GormReceivableMetricsProvider {
	return &GormReceivableMetricsProvider{db: db}
}

// GetOutstandingTotal returns the total outstanding amount for a tenant.
func (p *GormReceivableMetricsProvider) GetOutstandingTotal(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := p.db.WithContext(ctx).
		Table("receivables").
		Select("COALESCE(SUM(outstanding_amount), 0)").
		Where("tenant_id = ? AND status IN ?", tenantID, []string{"OPEN", "PARTIAL"}).
		Scan(&total).Error

	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// GetOverdueTotal returns the outstanding amount past due date for a tenant.
func (p *GormReceivableMetricsProvider) GetOverdueTotal(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := p.db.WithContext(ctx).
		Table("receivables").
		Select("COALESCE(SUM(outstanding_amount), 0)").
		Where("tenant_id = ? AND status IN ?", tenantID, []string{"OPEN", "PARTIAL"}).
		Where("due_date IS NOT NULL AND due_date < ?", time.Now().UTC()).
		Scan(&total).Error

	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// GormTenantProvider implements TenantProvider using GORM.
// There is no dedicated tenants table; active tenants are the ones
// holding receivables or cash sessions.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns all tenant IDs holding receivables or sessions.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Raw("SELECT tenant_id FROM receivables UNION SELECT tenant_id FROM cash_sessions").
		Scan(&ids).Error

	return ids, err
}
