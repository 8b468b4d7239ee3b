package document

import (
	"time"

	"github.com/shopspring/decimal"
)

// OutstandingInvoice is an open invoice of the customer that a payment can settle
type OutstandingInvoice struct {
	ID             string          `json:"id"`
	Number         string          `json:"number"`
	Date           time.Time       `json:"date"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	OpenBalance    decimal.Decimal `json:"open_balance"`
	Selected       bool            `json:"selected"`
	Payment        decimal.Decimal `json:"payment"`
}

// PaymentDetails carries the invoice applications of a payment document
type PaymentDetails struct {
	AmountReceived decimal.Decimal      `json:"amount_received"`
	Invoices       []OutstandingInvoice `json:"invoices"`
	AmountToApply  decimal.Decimal      `json:"amount_to_apply"`
	AmountToCredit decimal.Decimal      `json:"amount_to_credit"`
}

// Applied returns the selected invoices that receive a non-zero payment
func (p *PaymentDetails) Applied() []OutstandingInvoice {
	if p == nil {
		return nil
	}
	var out []OutstandingInvoice
	for _, inv := range p.Invoices {
		if inv.Selected && inv.Payment.IsPositive() {
			out = append(out, inv)
		}
	}
	return out
}

func (p *PaymentDetails) recompute() {
	apply := decimal.Zero
	for _, inv := range p.Invoices {
		if inv.Selected {
			apply = apply.Add(inv.Payment)
		}
	}
	p.AmountToApply = apply
	p.AmountToCredit = decimal.Max(decimal.Zero, p.AmountReceived.Sub(apply))
}

// clampPayment keeps a payment within [0, open balance]
func clampPayment(amount, open decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(amount, open)
}
