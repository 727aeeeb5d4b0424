package reporting

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/lostcode-dev/cashdesk/internal/domain/cashdesk"
)

// ptBR prints numbers with Brazilian separators ("1.234,56")
var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// formatBRL formats a decimal value as Brazilian currency
// Example: 1234.56 -> "R$ 1.234,56"
func formatBRL(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + "R$ " + ptBR.Sprint(number.Decimal(
		d.InexactFloat64(),
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// formatDateTimeBR formats a time value in Brazilian convention
// Example: "15/01/2024 14:30"
func formatDateTimeBR(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}

// methodLabel translates a payment method for display
func methodLabel(m cashdesk.PaymentMethod) string {
	switch m {
	case cashdesk.PaymentMethodCash:
		return "Dinheiro"
	case cashdesk.PaymentMethodCard:
		return "Cartão"
	case cashdesk.PaymentMethodPix:
		return "Pix"
	case cashdesk.PaymentMethodTransfer:
		return "Transferência"
	default:
		return string(m)
	}
}

// kindLabel translates an entry kind (and its adjustment variant) for display
func kindLabel(kind cashdesk.EntryKind, variant cashdesk.AdjustmentVariant) string {
	switch kind {
	case cashdesk.EntryKindDeposit:
		return "Entrada"
	case cashdesk.EntryKindWithdrawal:
		return "Saída"
	case cashdesk.EntryKindAdjustment:
		switch variant {
		case cashdesk.AdjustmentVariantReinforcement:
			return "Reforço"
		case cashdesk.AdjustmentVariantSangria:
			return "Sangria"
		default:
			return "Ajuste"
		}
	default:
		return string(kind)
	}
}

// classificationLabel translates the reconciliation outcome for display
func classificationLabel(c cashdesk.DifferenceClass) string {
	switch c {
	case cashdesk.DifferenceClassBalanced:
		return "Caixa conferido"
	case cashdesk.DifferenceClassSurplus:
		return "Sobra de caixa"
	case cashdesk.DifferenceClassShortage:
		return "Falta de caixa"
	default:
		return string(c)
	}
}
