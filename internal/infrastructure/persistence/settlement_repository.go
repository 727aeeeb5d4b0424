package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
	"github.com/lostcode-dev/cashdesk/internal/domain/receivable"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared/valueobject"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/persistence/models"
)

// GormSettlementRepository implements receivable.SettlementRepository using
// GORM transactions. Every operation re-reads the receivables it touches under
// FOR UPDATE row locks, so two concurrent settlements of the same customer
// serialize instead of double-allocating an outstanding balance.
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewGormSettlementRepository creates a new GormSettlementRepository
func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// AddReceipt persists one receipt, the receivable's recomputed state, and the
// optional ledger entry in a single transaction.
func (r *GormSettlementRepository) AddReceipt(ctx context.Context, rec *receivable.Receivable, receipt *receivable.Receipt, entry *cashdesk.LedgerEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recModel := models.ReceivableModelFromDomain(rec)
		result := tx.Model(recModel).
			Where("id = ? AND version = ?", rec.ID, rec.GetVersion()-1).
			Updates(recModel)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Create(models.ReceiptModelFromDomain(receipt)).Error; err != nil {
			return err
		}

		if entry != nil {
			if err := tx.Create(models.LedgerEntryModelFromDomain(entry)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CommitBatch settles one entered amount across the selected receivables,
// strictly in selection order, in one transaction.
func (r *GormSettlementRepository) CommitBatch(ctx context.Context, batch receivable.SettlementBatch) (*receivable.SettlementResult, error) {
	seen := make(map[uuid.UUID]struct{}, len(batch.ReceivableIDs))
	for _, id := range batch.ReceivableIDs {
		if _, dup := seen[id]; dup {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Receivable %s selected more than once", id))
		}
		seen[id] = struct{}{}
	}

	var result *receivable.SettlementResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := r.lockReceivables(tx, batch.TenantID, batch.ReceivableIDs)
		if err != nil {
			return err
		}

		targets := make([]receivable.AllocationTarget, 0, len(locked))
		for _, rec := range locked {
			if rec.CustomerID != batch.CustomerID {
				return shared.NewDomainError("INVALID_INPUT",
					fmt.Sprintf("Receivable %s belongs to another customer", rec.ID))
			}
			if rec.Status == receivable.StatusCancelled {
				return shared.NewDomainError("RECEIVABLE_CANCELLED",
					fmt.Sprintf("Receivable %s is cancelled", rec.ID))
			}
			targets = append(targets, receivable.AllocationTarget{
				ReceivableID:      rec.ID,
				OutstandingAmount: rec.OutstandingAmount,
			})
		}

		// Selection cap re-validated against the locked rows, not the
		// snapshot the caller selected from.
		if err := receivable.ValidateSelection(valueobject.NewMoneyBRL(batch.Amount), targets); err != nil {
			return err
		}

		allocation, err := receivable.AllocatePayment(valueobject.NewMoneyBRL(batch.Amount), targets)
		if err != nil {
			return err
		}

		byID := make(map[uuid.UUID]*receivable.Receivable, len(locked))
		for _, rec := range locked {
			byID[rec.ID] = rec
		}

		items := make([]receivable.SettlementItem, 0, len(allocation.Allocations))
		for _, alloc := range allocation.Allocations {
			rec := byID[alloc.ReceivableID]
			if err := rec.ApplyReceipt(valueobject.NewMoneyBRL(alloc.Amount)); err != nil {
				return err
			}

			receipt, err := receivable.NewReceipt(batch.TenantID, rec.ID,
				valueobject.NewMoneyBRL(alloc.Amount), batch.Method, batch.SessionID, batch.Notes)
			if err != nil {
				return err
			}

			recModel := models.ReceivableModelFromDomain(rec)
			if err := tx.Model(recModel).
				Where("id = ?", rec.ID).
				Updates(recModel).Error; err != nil {
				return err
			}
			if err := tx.Create(models.ReceiptModelFromDomain(receipt)).Error; err != nil {
				return err
			}

			if batch.SessionID != nil {
				entry, err := newReceiptLedgerEntry(batch.TenantID, *batch.SessionID, receipt)
				if err != nil {
					return err
				}
				if err := tx.Create(models.LedgerEntryModelFromDomain(entry)).Error; err != nil {
					return err
				}
			}

			items = append(items, receivable.SettlementItem{
				ReceivableID: rec.ID,
				ReceiptID:    receipt.ID,
				Amount:       alloc.Amount,
				Status:       rec.Status,
			})
		}

		result = &receivable.SettlementResult{
			Items:          items,
			TotalAllocated: allocation.TotalAllocated,
			Leftover:       allocation.Leftover,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AttachPendingToSession binds the tenant's pending cash receipts to the given
// session and journals one DEPOSIT per receipt, all in one transaction.
// Running it twice is harmless: the second run finds nothing pending.
func (r *GormSettlementRepository) AttachPendingToSession(ctx context.Context, tenantID, sessionID uuid.UUID) (int, error) {
	var attached int

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var receiptModels []models.ReceiptModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND method = ? AND cash_session_id IS NULL", tenantID, cashdesk.PaymentMethodCash).
			Order("received_at ASC").
			Find(&receiptModels).Error; err != nil {
			return err
		}

		for i := range receiptModels {
			receipt := receiptModels[i].ToDomain()
			if err := tx.Model(&models.ReceiptModel{}).
				Where("id = ?", receipt.ID).
				Update("cash_session_id", sessionID).Error; err != nil {
				return err
			}

			entry, err := newReceiptLedgerEntry(tenantID, sessionID, receipt)
			if err != nil {
				return err
			}
			if err := tx.Create(models.LedgerEntryModelFromDomain(entry)).Error; err != nil {
				return err
			}
		}

		attached = len(receiptModels)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return attached, nil
}

// lockReceivables re-reads the selected receivables under FOR UPDATE locks and
// returns them in selection order. Rows are locked in a stable (sorted) order
// regardless of how the caller ordered the selection, so two overlapping
// batches cannot deadlock on each other.
func (r *GormSettlementRepository) lockReceivables(tx *gorm.DB, tenantID uuid.UUID, ids []uuid.UUID) ([]*receivable.Receivable, error) {
	var receivableModels []models.ReceivableModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("id ASC").
		Find(&receivableModels).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*receivable.Receivable, len(receivableModels))
	for i := range receivableModels {
		rec := receivableModels[i].ToDomain()
		byID[rec.ID] = rec
	}

	ordered := make([]*receivable.Receivable, 0, len(ids))
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			return nil, shared.NewDomainError("RECEIVABLE_NOT_FOUND",
				fmt.Sprintf("Receivable %s not found", id))
		}
		ordered = append(ordered, rec)
	}
	return ordered, nil
}

// The journal references the receivable the receipt settles; the receipt row
// itself already carries the session link.
func newReceiptLedgerEntry(tenantID, sessionID uuid.UUID, receipt *receivable.Receipt) (*cashdesk.LedgerEntry, error) {
	receivableID := receipt.ReceivableID
	return cashdesk.NewLedgerEntry(
		tenantID,
		sessionID,
		cashdesk.EntryKindDeposit,
		cashdesk.AdjustmentVariantNone,
		valueobject.NewMoneyBRL(receipt.Amount),
		"receivable",
		receipt.Method,
		cashdesk.ReferenceKindReceivableReceipt,
		&receivableID,
		receipt.Notes,
	)
}
