// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the cash desk.
// It tracks session lifecycle, ledger movement and receivables health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	sessionOpenedTotal *Counter
	sessionClosedTotal *Counter
	ledgerEntryTotal   *Counter
	ledgerAmountTotal  *Counter
	receiptTotal       *Counter
	receiptAmountTotal *Counter

	// Gauge metrics (point-in-time values)
	receivablesOutstanding *Gauge
	receivablesOverdue     *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data providers for periodic collection
	receivableProvider ReceivableMetricsProvider
}

// ReceivableMetricsProvider provides receivables data for periodic metrics
// collection. The interface lets the telemetry layer query receivable state
// without depending on the receivable domain directly.
type ReceivableMetricsProvider interface {
	// GetOutstandingTotal returns the total outstanding amount for a tenant
	GetOutstandingTotal(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)

	// GetOverdueTotal returns the outstanding amount past due date for a tenant
	GetOverdueTotal(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter              metric.Meter
	Logger             *zap.Logger
	CollectInterval    time.Duration // Default: 5 minutes
	ReceivableProvider ReceivableMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:              cfg.Meter,
		logger:             logger,
		stopChan:           make(chan struct{}),
		receivableProvider: cfg.ReceivableProvider,
	}

	// Initialize counter metrics
	var err error

	// Session lifecycle metrics
	bm.sessionOpenedTotal, err = NewCounter(
		cfg.Meter,
		"cashdesk_session_opened_total",
		"Total number of cash sessions opened",
		"{sessions}",
	)
	if err != nil {
		return nil, err
	}

	bm.sessionClosedTotal, err = NewCounter(
		cfg.Meter,
		"cashdesk_session_closed_total",
		"Total number of cash sessions closed",
		"{sessions}",
	)
	if err != nil {
		return nil, err
	}

	// Ledger movement metrics
	bm.ledgerEntryTotal, err = NewCounter(
		cfg.Meter,
		"cashdesk_ledger_entry_total",
		"Total number of ledger entries appended",
		"{entries}",
	)
	if err != nil {
		return nil, err
	}

	bm.ledgerAmountTotal, err = NewCounter(
		cfg.Meter,
		"cashdesk_ledger_amount_total",
		"Total absolute ledger movement in centavos",
		"{centavos}",
	)
	if err != nil {
		return nil, err
	}

	// Receipt metrics
	bm.receiptTotal, err = NewCounter(
		cfg.Meter,
		"cashdesk_receipt_total",
		"Total number of receivable receipts recorded",
		"{receipts}",
	)
	if err != nil {
		return nil, err
	}

	bm.receiptAmountTotal, err = NewCounter(
		cfg.Meter,
		"cashdesk_receipt_amount_total",
		"Total receipt amount in centavos",
		"{centavos}",
	)
	if err != nil {
		return nil, err
	}

	// Receivables gauge metrics
	bm.receivablesOutstanding, err = NewGauge(
		cfg.Meter,
		"cashdesk_receivables_outstanding_centavos",
		"Current outstanding receivables amount in centavos",
		"{centavos}",
	)
	if err != nil {
		return nil, err
	}

	bm.receivablesOverdue, err = NewGauge(
		cfg.Meter,
		"cashdesk_receivables_overdue_centavos",
		"Outstanding receivables amount past due date in centavos",
		"{centavos}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Session Metrics
// =============================================================================

// RecordSessionOpened records a cash session open event.
func (bm *BusinessMetrics) RecordSessionOpened(ctx context.Context, tenantID uuid.UUID) {
	bm.sessionOpenedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
	)
}

// RecordSessionClosed records a cash session close event labeled with its
// reconciliation outcome (BALANCED, SURPLUS or SHORTAGE).
func (bm *BusinessMetrics) RecordSessionClosed(ctx context.Context, tenantID uuid.UUID, differenceClass string) {
	bm.sessionClosedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrDifferenceClass.String(differenceClass),
	)
}

// =============================================================================
// Ledger Metrics
// =============================================================================

// RecordLedgerEntry records a ledger append event labeled with the entry kind.
func (bm *BusinessMetrics) RecordLedgerEntry(ctx context.Context, tenantID uuid.UUID, kind string) {
	bm.ledgerEntryTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrEntryKind.String(kind),
	)
}

// RecordLedgerAmount records the absolute movement amount.
// Amount should be in centavos.
func (bm *BusinessMetrics) RecordLedgerAmount(ctx context.Context, tenantID uuid.UUID, kind string, amountCentavos int64) {
	bm.ledgerAmountTotal.Add(ctx, amountCentavos,
		AttrTenantID.String(tenantID.String()),
		AttrEntryKind.String(kind),
	)
}

// RecordLedgerMovement is a convenience method that records both entry count and amount.
func (bm *BusinessMetrics) RecordLedgerMovement(ctx context.Context, tenantID uuid.UUID, kind string, amount decimal.Decimal) {
	bm.RecordLedgerEntry(ctx, tenantID, kind)

	// Convert to centavos (multiply by 100), always positive
	centavos := amount.Abs().Mul(decimal.NewFromInt(100)).IntPart()
	bm.RecordLedgerAmount(ctx, tenantID, kind, centavos)
}

// =============================================================================
// Receipt Metrics
// =============================================================================

// RecordReceipt records a receivable receipt labeled with the payment method.
func (bm *BusinessMetrics) RecordReceipt(ctx context.Context, tenantID uuid.UUID, paymentMethod string, amount decimal.Decimal) {
	bm.receiptTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrPaymentMethod.String(paymentMethod),
	)

	centavos := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.receiptAmountTotal.Add(ctx, centavos,
		AttrTenantID.String(tenantID.String()),
		AttrPaymentMethod.String(paymentMethod),
	)
}

// =============================================================================
// Receivables Metrics
// =============================================================================

// RecordOutstandingAmount records the current outstanding receivables amount.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordOutstandingAmount(ctx context.Context, tenantID uuid.UUID, amountCentavos int64) {
	bm.receivablesOutstanding.Record(ctx, amountCentavos,
		AttrTenantID.String(tenantID.String()),
	)
}

// RecordOverdueAmount records the outstanding amount past due date.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordOverdueAmount(ctx context.Context, tenantID uuid.UUID, amountCentavos int64) {
	bm.receivablesOverdue.Record(ctx, amountCentavos,
		AttrTenantID.String(tenantID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects receivables metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectReceivableMetrics(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectReceivableMetrics(ctx, tenantProvider)
		}
	}
}

// collectReceivableMetrics collects receivables gauge metrics for all tenants.
func (bm *BusinessMetrics) collectReceivableMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if bm.receivableProvider == nil {
		bm.logger.Debug("No receivable provider configured, skipping receivables metrics collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		bm.collectTenantReceivableMetrics(ctx, tenantID)
	}
}

// collectTenantReceivableMetrics collects receivables metrics for a single tenant.
func (bm *BusinessMetrics) collectTenantReceivableMetrics(ctx context.Context, tenantID uuid.UUID) {
	outstanding, err := bm.receivableProvider.GetOutstandingTotal(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get outstanding total for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		centavos := outstanding.Mul(decimal.NewFromInt(100)).IntPart()
		bm.RecordOutstandingAmount(ctx, tenantID, centavos)
	}

	overdue, err := bm.receivableProvider.GetOverdueTotal(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get overdue total for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		centavos := overdue.Mul(decimal.NewFromInt(100)).IntPart()
		bm.RecordOverdueAmount(ctx, tenantID, centavos)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// =============================================================================
// Attribute Key Constants
// =============================================================================

// Business metrics attribute keys not already defined in metrics.go
var (
	// Additional business attributes can be added here
	AttrReceivableStatus = attribute.Key("receivable_status")
)
