package document

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// Customer is the billing party of a document. ID is empty for a customer
// typed in by hand that has not been saved yet.
type Customer struct {
	ID             string  `json:"id,omitempty"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Company        string  `json:"company"`
	BillingAddress Address `json:"billing_address"`
}

// OtherFees is an optional single extra charge added on top of the subtotal
type OtherFees struct {
	Description string              `json:"description"`
	Amount      decimal.NullDecimal `json:"amount"`
}

// Persistable reports whether the fee carries enough data to be stored
func (f *OtherFees) Persistable() bool {
	return f != nil && f.Description != "" && f.Amount.Valid && !f.Amount.Decimal.IsZero()
}

type OtherFeesPatch struct {
	Description *string              `json:"description"`
	Amount      *decimal.NullDecimal `json:"amount"`
}

// DocumentPatch is a partial update of header fields. Nil fields are left untouched.
type DocumentPatch struct {
	Number             *string    `json:"number"`
	Date               *time.Time `json:"date"`
	SecondaryDate      *time.Time `json:"secondary_date"`
	MessageOnInvoice   *string    `json:"message_on_invoice"`
	MessageOnStatement *string    `json:"message_on_statement"`
	SalesRep           *string    `json:"sales_rep"`
	Tags               *[]string  `json:"tags"`
	RefundMethod       *string    `json:"refund_method"`
}

// Document is the aggregate edited by a Form
type Document struct {
	Type               enum.DocumentType `json:"type"`
	Number             string            `json:"number"`
	Date               time.Time         `json:"date"`
	SecondaryDate      *time.Time        `json:"secondary_date,omitempty"`
	Customer           Customer          `json:"customer"`
	Items              []LineItem        `json:"items"`
	OtherFees          *OtherFees        `json:"other_fees,omitempty"`
	MessageOnInvoice   string            `json:"message_on_invoice"`
	MessageOnStatement string            `json:"message_on_statement"`
	SalesRep           string            `json:"sales_rep"`
	Tags               []string          `json:"tags"`
	RefundMethod       string            `json:"refund_method,omitempty"`
	Totals
	ReferencedTransactions []string        `json:"referenced_transactions"`
	Payment                *PaymentDetails `json:"payment,omitempty"`
}

// Clone returns a deep copy that shares no slices or pointers with d
func (d Document) Clone() Document {
	out := d
	out.Items = slices.Clone(d.Items)
	out.Tags = slices.Clone(d.Tags)
	out.ReferencedTransactions = slices.Clone(d.ReferencedTransactions)
	if d.SecondaryDate != nil {
		sd := *d.SecondaryDate
		out.SecondaryDate = &sd
	}
	if d.OtherFees != nil {
		fees := *d.OtherFees
		out.OtherFees = &fees
	}
	if d.Payment != nil {
		p := *d.Payment
		p.Invoices = slices.Clone(d.Payment.Invoices)
		out.Payment = &p
	}
	return out
}

func (d *Document) apply(p DocumentPatch, info KindInfo) {
	if p.Number != nil {
		d.Number = *p.Number
	}
	if p.Date != nil {
		d.Date = *p.Date
	}
	if p.SecondaryDate != nil && info.HasSecondaryDate() {
		sd := *p.SecondaryDate
		d.SecondaryDate = &sd
	}
	if p.MessageOnInvoice != nil {
		d.MessageOnInvoice = *p.MessageOnInvoice
	}
	if p.MessageOnStatement != nil {
		d.MessageOnStatement = *p.MessageOnStatement
	}
	if p.SalesRep != nil {
		d.SalesRep = *p.SalesRep
	}
	if p.Tags != nil {
		d.Tags = slices.Clone(*p.Tags)
	}
	if p.RefundMethod != nil && info.Type == enum.DocumentTypeRefundReceipt {
		d.RefundMethod = *p.RefundMethod
	}
}
