package receivable

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared/valueobject"
)

// AllocationTarget is one receivable selected for settlement, carrying the
// outstanding snapshot the allocation runs against. Order matters: targets are
// settled strictly in the order the caller selected them.
type AllocationTarget struct {
	ReceivableID      uuid.UUID
	OutstandingAmount decimal.Decimal
}

// Allocation is the amount assigned to a single receivable by an allocation run
type Allocation struct {
	ReceivableID uuid.UUID       `json:"receivable_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// AllocationResult is the complete outcome of allocating one entered amount
// across the selected receivables.
type AllocationResult struct {
	Allocations    []Allocation    `json:"allocations"`
	TotalAllocated decimal.Decimal `json:"total_allocated"`
	// Leftover is the part of the entered amount not applied to any selected
	// receivable. It is always reported back to the caller, never discarded
	// and never auto-applied to an unselected receivable.
	Leftover       decimal.Decimal `json:"leftover"`
	FullyAllocated bool            `json:"fully_allocated"`
	FullyPaid      []uuid.UUID     `json:"fully_paid"`
	PartiallyPaid  []uuid.UUID     `json:"partially_paid"`
}

// AllocatePayment distributes a payment amount across the selected targets,
// greedily and strictly in selection order:
//
//	left = amount
//	for each target: pay = min(outstanding, left); left -= pay
//
// The result is deterministic for a given (targets, order, amount) input and
// guarantees TotalAllocated == min(amount, Σ outstanding) and Leftover >= 0.
func AllocatePayment(amount valueobject.Money, targets []AllocationTarget) (*AllocationResult, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}

	result := &AllocationResult{
		Allocations:    make([]Allocation, 0, len(targets)),
		TotalAllocated: decimal.Zero,
		Leftover:       amount.Amount(),
		FullyPaid:      make([]uuid.UUID, 0),
		PartiallyPaid:  make([]uuid.UUID, 0),
	}

	left := amount.Amount()
	for _, target := range targets {
		if left.LessThanOrEqual(decimal.Zero) {
			break
		}
		if target.OutstandingAmount.LessThanOrEqual(decimal.Zero) {
			continue
		}

		pay := decimal.Min(target.OutstandingAmount, left)
		result.Allocations = append(result.Allocations, Allocation{
			ReceivableID: target.ReceivableID,
			Amount:       pay,
		})
		result.TotalAllocated = result.TotalAllocated.Add(pay)
		if pay.Equal(target.OutstandingAmount) {
			result.FullyPaid = append(result.FullyPaid, target.ReceivableID)
		} else {
			result.PartiallyPaid = append(result.PartiallyPaid, target.ReceivableID)
		}
		left = left.Sub(pay)
	}

	result.Leftover = left
	result.FullyAllocated = left.IsZero()

	return result, nil
}

// ValidateSelection enforces the selection-time cap: a receivable may only be
// added to the selection while the running sum of outstanding amounts stays
// within the entered amount. The same check runs again at commit time against
// locked rows, so this is advisory feedback, not the final word.
func ValidateSelection(amount valueobject.Money, targets []AllocationTarget) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Entered amount must be positive")
	}

	sum := decimal.Zero
	for _, target := range targets {
		sum = sum.Add(target.OutstandingAmount)
		if sum.GreaterThan(amount.Amount()) {
			return shared.NewDomainError("ALLOCATION_EXCEEDS_AMOUNT",
				"Selected receivables exceed the entered amount")
		}
	}

	return nil
}
