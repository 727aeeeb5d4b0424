package handler

import "github.com/shopspring/decimal"

// Request DTOs carry monetary amounts as float64 for JSON ergonomics; the
// application layer works in decimal so ledger math never accumulates
// binary rounding drift.
func toDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
