package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		dir      string
		expected string
	}{
		{"whitelisted column with asc", "opened_at", "asc", "opened_at ASC"},
		{"whitelisted column defaults desc", "opening_amount", "", "opening_amount DESC"},
		{"unknown column falls back", "secret_column", "ASC", "opened_at ASC"},
		{"empty column falls back", "", "", "opened_at DESC"},
		{"whitespace trimmed", "  closed_at  ", "  ASC  ", "closed_at ASC"},
		{"direction other than asc becomes desc", "opened_at", "sideways", "opened_at DESC"},
		{"case sensitive column names", "OPENED_AT", "ASC", "opened_at ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := orderClause(tt.field, tt.dir, CashSessionSortFields, "opened_at")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestOrderClause_RejectsInjectionPayloads(t *testing.T) {
	payloads := []string{
		"id; DROP TABLE cash_sessions;--",
		"id' OR '1'='1",
		"id UNION SELECT * FROM receivables",
		"id, (SELECT opening_amount FROM cash_sessions)",
		"id/**/;DROP TABLE ledger_entries",
		"id\n; DROP TABLE receipts",
	}

	for _, payload := range payloads {
		got := orderClause(payload, payload, LedgerEntrySortFields, "occurred_at")
		assert.Equal(t, "occurred_at DESC", got, "payload must fall back to the default clause: %s", payload)
	}
}

func TestSortFieldWhitelists_CoverListEndpoints(t *testing.T) {
	whitelists := map[string]map[string]bool{
		"cash sessions": CashSessionSortFields,
		"ledger entries": LedgerEntrySortFields,
		"receivables":   ReceivableSortFields,
	}

	for name, whitelist := range whitelists {
		t.Run(name, func(t *testing.T) {
			assert.True(t, whitelist["created_at"])
			assert.True(t, whitelist["id"])
		})
	}

	// Domain-specific columns clients actually sort on.
	assert.True(t, CashSessionSortFields["opened_at"])
	assert.True(t, LedgerEntrySortFields["occurred_at"])
	assert.True(t, ReceivableSortFields["due_date"])
}
