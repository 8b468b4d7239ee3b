package document

import (
	"github.com/shopspring/decimal"
)

// Totals is the derived money summary of a document
type Totals struct {
	SubTotal   decimal.Decimal `json:"sub_total"`
	Total      decimal.Decimal `json:"total"`
	BalanceDue decimal.Decimal `json:"balance_due"`
}

// CalculateTotals sums the line amounts and adds the other fees amount.
// Tax percentages are ignored. Every supported kind is due in full, so the
// balance due always equals the total.
func CalculateTotals(items []LineItem, fees *OtherFees) Totals {
	subTotal := decimal.Zero
	for _, it := range items {
		subTotal = subTotal.Add(it.Amount)
	}

	total := subTotal
	if fees != nil {
		total = total.Add(valueOrZero(fees.Amount))
	}

	return Totals{
		SubTotal:   subTotal,
		Total:      total,
		BalanceDue: total,
	}
}

// PaymentTotals derives the totals of a payment from its applications: the
// sub total is the amount applied to invoices and the total adds the
// unapplied credit. A payment owes nothing, so the balance due is zero.
func PaymentTotals(p *PaymentDetails) Totals {
	return Totals{
		SubTotal:   p.AmountToApply,
		Total:      p.AmountToApply.Add(p.AmountToCredit),
		BalanceDue: decimal.Zero,
	}
}
