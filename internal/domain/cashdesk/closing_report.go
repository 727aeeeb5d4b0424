package cashdesk

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DifferenceClass classifies the counted-vs-expected difference at close
type DifferenceClass string

const (
	DifferenceClassBalanced DifferenceClass = "BALANCED" // counted == expected
	DifferenceClassSurplus  DifferenceClass = "SURPLUS"  // counted > expected
	DifferenceClassShortage DifferenceClass = "SHORTAGE" // counted < expected
)

// ClassifyDifference classifies a counted − expected difference
func ClassifyDifference(diff decimal.Decimal) DifferenceClass {
	switch {
	case diff.IsPositive():
		return DifferenceClassSurplus
	case diff.IsNegative():
		return DifferenceClassShortage
	default:
		return DifferenceClassBalanced
	}
}

// ClosingReport is the reconciliation result produced when a session closes.
// ExpectedAmount is always recomputed from the journal, never read from a
// cached field, so it cannot drift from the entries.
type ClosingReport struct {
	SessionID      uuid.UUID                         `json:"session_id"`
	TenantID       uuid.UUID                         `json:"tenant_id"`
	OpeningAmount  decimal.Decimal                   `json:"opening_amount"`
	ExpectedAmount decimal.Decimal                   `json:"expected_amount"`
	CountedAmount  decimal.Decimal                   `json:"counted_amount"`
	Difference     decimal.Decimal                   `json:"difference"`
	Classification DifferenceClass                   `json:"classification"`
	TotalsByMethod map[PaymentMethod]decimal.Decimal `json:"totals_by_method,omitempty"`
	EntryCount     int64                             `json:"entry_count"`
	OpenedAt       time.Time                         `json:"opened_at"`
	ClosedAt       time.Time                         `json:"closed_at"`
	ClosedBy       uuid.UUID                         `json:"closed_by"`

	// StatementURL points at the generated closing statement. It is filled by
	// the reporting collaborator after the close has committed and stays empty
	// when statement generation fails or is disabled.
	StatementURL string `json:"statement_url,omitempty"`
}

// NewClosingReport builds the closing report for a just-closed session
func NewClosingReport(cs *CashSession, expected, counted decimal.Decimal) *ClosingReport {
	diff := counted.Sub(expected)
	report := &ClosingReport{
		SessionID:      cs.ID,
		TenantID:       cs.TenantID,
		OpeningAmount:  cs.OpeningAmount,
		ExpectedAmount: expected,
		CountedAmount:  counted,
		Difference:     diff,
		Classification: ClassifyDifference(diff),
		OpenedAt:       cs.OpenedAt,
	}
	if cs.ClosedAt != nil {
		report.ClosedAt = *cs.ClosedAt
	}
	if cs.ClosedBy != nil {
		report.ClosedBy = *cs.ClosedBy
	}
	return report
}

// IsBalanced returns true if the counted amount matched the expectation
func (r *ClosingReport) IsBalanced() bool {
	return r.Classification == DifferenceClassBalanced
}
