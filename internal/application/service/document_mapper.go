package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lop-gin/factory-finance-pal/internal/domain/document"
	"github.com/lop-gin/factory-finance-pal/internal/domain/entity"
	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// toEntity maps a finished document onto the rows that persist it
func toEntity(doc document.Document, userID uuid.UUID) (*entity.Document, error) {
	info, err := document.LookupKind(doc.Type)
	if err != nil {
		return nil, err
	}

	rec := &entity.Document{
		ID:              uuid.New(),
		UserID:          userID,
		DocumentType:    doc.Type,
		Number:          doc.Number,
		CustomerName:    doc.Customer.Name,
		CustomerEmail:   optional(doc.Customer.Email),
		CustomerCompany: optional(doc.Customer.Company),
		BillingAddress: datatypes.NewJSONType(entity.BillingAddress{
			Street:  doc.Customer.BillingAddress.Street,
			City:    doc.Customer.BillingAddress.City,
			State:   doc.Customer.BillingAddress.State,
			ZipCode: doc.Customer.BillingAddress.ZipCode,
			Country: doc.Customer.BillingAddress.Country,
		}),
		Date:               doc.Date,
		MessageOnInvoice:   optional(doc.MessageOnInvoice),
		MessageOnStatement: optional(doc.MessageOnStatement),
		SalesRep:           optional(doc.SalesRep),
		Tags:               datatypes.JSONSlice[string](doc.Tags),
		SubTotal:           doc.SubTotal,
		Total:              doc.Total,
		BalanceDue:         doc.BalanceDue,
		Status:             enum.DocumentStatusOpen,
	}

	if info.SettlesInFull {
		rec.Status = enum.DocumentStatusPaid
	}

	if doc.Customer.ID != "" {
		customerID, err := uuid.Parse(doc.Customer.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid customer id %q: %w", doc.Customer.ID, err)
		}
		rec.CustomerID = &customerID
	}

	switch doc.Type {
	case enum.DocumentTypeInvoice:
		rec.DueDate = doc.SecondaryDate
	case enum.DocumentTypeEstimate:
		rec.ExpirationDate = doc.SecondaryDate
	case enum.DocumentTypeRefundReceipt:
		rec.RefundReceipt = &entity.RefundReceipt{
			DocumentID:   rec.ID,
			RefundDate:   doc.Date,
			RefundMethod: optional(doc.RefundMethod),
		}
	}

	for i, it := range doc.Items {
		rec.Items = append(rec.Items, entity.DocumentItem{
			DocumentID:  rec.ID,
			LineID:      it.ID,
			Position:    i,
			ServiceDate: it.ServiceDate,
			Category:    optional(it.Category),
			Product:     it.Product,
			Description: optional(it.Description),
			Quantity:    it.Quantity,
			Unit:        optional(it.Unit),
			UnitPrice:   it.UnitPrice,
			TaxPercent:  it.TaxPercent,
			Amount:      it.Amount,
		})
	}

	if doc.OtherFees.Persistable() {
		rec.OtherFee = &entity.OtherFee{
			DocumentID:  rec.ID,
			Description: doc.OtherFees.Description,
			Amount:      doc.OtherFees.Amount.Decimal,
		}
	}

	for _, ref := range doc.ReferencedTransactions {
		refID, err := uuid.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("invalid referenced transaction %q: %w", ref, err)
		}
		rec.References = append(rec.References, entity.DocumentReference{
			DocumentID:           rec.ID,
			ReferencedDocumentID: refID,
			ReferenceType:        info.ReferenceType,
		})
	}

	if doc.Payment != nil {
		rec.AmountReceived = decimal.NewNullDecimal(doc.Payment.AmountReceived)
		rec.AmountToCredit = decimal.NewNullDecimal(doc.Payment.AmountToCredit)
		for _, inv := range doc.Payment.Applied() {
			invoiceID, err := uuid.Parse(inv.ID)
			if err != nil {
				return nil, fmt.Errorf("invalid invoice id %q: %w", inv.ID, err)
			}
			rec.Applications = append(rec.Applications, entity.PaymentApplication{
				PaymentID: rec.ID,
				InvoiceID: invoiceID,
				Amount:    inv.Payment,
			})
			rec.References = append(rec.References, entity.DocumentReference{
				DocumentID:           rec.ID,
				ReferencedDocumentID: invoiceID,
				ReferenceType:        enum.ReferenceTypePayment,
			})
		}
	}

	return rec, nil
}

// ToDocumentCustomer copies a registry customer onto a document
func ToDocumentCustomer(c *entity.Customer) document.Customer {
	return document.Customer{
		ID:      c.ID.String(),
		Name:    c.Name,
		Email:   deref(c.Email),
		Company: deref(c.Company),
		BillingAddress: document.Address{
			Street:  deref(c.Street),
			City:    deref(c.City),
			State:   deref(c.State),
			ZipCode: deref(c.ZipCode),
			Country: deref(c.Country),
		},
	}
}

func toLineItem(it entity.DocumentItem) document.LineItem {
	return document.LineItem{
		ID:          it.LineID,
		ServiceDate: it.ServiceDate,
		Category:    deref(it.Category),
		Product:     it.Product,
		Description: deref(it.Description),
		Quantity:    it.Quantity,
		Unit:        deref(it.Unit),
		UnitPrice:   it.UnitPrice,
		TaxPercent:  it.TaxPercent,
		Amount:      it.Amount,
	}
}

func toTransaction(d entity.Document) document.Transaction {
	return document.Transaction{
		ID:     d.ID.String(),
		Type:   d.DocumentType,
		Number: d.Number,
		Date:   d.Date,
		Total:  d.Total,
		Status: d.Status,
	}
}

func toOutstandingInvoice(d entity.Document) document.OutstandingInvoice {
	return document.OutstandingInvoice{
		ID:             d.ID.String(),
		Number:         d.Number,
		Date:           d.Date,
		DueDate:        d.DueDate,
		OriginalAmount: d.Total,
		OpenBalance:    d.BalanceDue,
		Payment:        decimal.Zero,
	}
}

func lower(s string) string {
	return strings.ToLower(s)
}
