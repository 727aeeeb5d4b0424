package persistence

import "strings"

// Sort parameters arrive straight from query strings. They reach the ORDER BY
// clause only after passing a per-table column whitelist, so a crafted
// order_by value can never inject SQL.

// CashSessionSortFields lists the sortable columns of cash_sessions.
var CashSessionSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"opening_amount": true,
	"counted_amount": true,
	"opened_by":      true,
	"closed_by":      true,
	"opened_at":      true,
	"closed_at":      true,
}

// LedgerEntrySortFields lists the sortable columns of ledger_entries.
var LedgerEntrySortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"kind":        true,
	"amount":      true,
	"category":    true,
	"method":      true,
	"occurred_at": true,
}

// ReceivableSortFields lists the sortable columns of receivables.
var ReceivableSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"customer_id":        true,
	"amount":             true,
	"received_amount":    true,
	"outstanding_amount": true,
	"due_date":           true,
	"status":             true,
	"paid_at":            true,
}

// orderClause builds an ORDER BY fragment from untrusted sort parameters.
// Columns outside the whitelist fall back to fallbackField; any direction
// other than ASC becomes DESC.
func orderClause(field, dir string, allowed map[string]bool, fallbackField string) string {
	column := strings.TrimSpace(field)
	if column == "" || !allowed[column] {
		column = fallbackField
	}
	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(dir), "ASC") {
		direction = "ASC"
	}
	return column + " " + direction
}
