package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 currency code.
type Currency string

const (
	// BRL is the Brazilian Real, the currency every cash desk operates in.
	BRL Currency = "BRL"
	// USD is kept for mixed-currency guard tests and future multi-currency
	// desks.
	USD Currency = "USD"
)

// Money is an immutable amount tagged with its currency. Arithmetic and
// comparisons refuse to mix currencies, which keeps a stray USD receivable
// from ever folding into a BRL session balance.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney builds a Money in an explicit currency.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyBRL wraps a decimal amount in the desk currency.
func NewMoneyBRL(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: BRL}
}

// NewMoneyBRLFromFloat converts a float64 amount, as received from JSON
// payloads, into BRL money.
func NewMoneyBRLFromFloat(amount float64) Money {
	return Money{amount: decimal.NewFromFloat(amount), currency: BRL}
}

// NewMoneyBRLFromString parses a decimal string into BRL money.
func NewMoneyBRLFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return Money{amount: d, currency: BRL}, nil
}

// ZeroBRL is the zero amount in the desk currency.
func ZeroBRL() Money {
	return Money{amount: decimal.Zero, currency: BRL}
}

// Amount returns the raw decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() Currency { return m.currency }

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

func (m Money) sameCurrency(op string, other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("cannot %s money with different currencies: %s and %s", op, m.currency, other.currency)
	}
	return nil
}

// Add returns the sum. The currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency("add", other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns the difference. The currencies must match.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency("subtract", other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Negate flips the sign, turning an inflow amount into an outflow.
func (m Money) Negate() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Abs strips the sign.
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs(), currency: m.currency}
}

// Equals reports whether amount and currency both match.
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// LessThan compares amounts. The currencies must match.
func (m Money) LessThan(other Money) (bool, error) {
	if err := m.sameCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

// GreaterThan compares amounts. The currencies must match.
func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.sameCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

// String renders the amount to cents with the currency code, e.g. "10.50 BRL".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

// StringFixed renders the bare amount with a fixed number of decimal places.
func (m Money) StringFixed(places int32) string {
	return m.amount.StringFixed(places)
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON renders the amount as a string so clients never see binary
// floating point rounding.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.String(), Currency: m.currency})
}

// UnmarshalJSON parses the string-amount representation.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	m.amount = amount
	m.currency = v.Currency
	return nil
}
