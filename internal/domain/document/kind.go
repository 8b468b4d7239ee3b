package document

import (
	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
)

// KindInfo holds the per document type settings that parametrize a Form
type KindInfo struct {
	Type   enum.DocumentType
	Prefix string
	// SecondaryDateLabel is empty when the type carries no secondary date
	SecondaryDateLabel string
	// ReferenceType is set for types that import items from other documents
	ReferenceType enum.ReferenceType
	SettlesInFull bool
}

var kinds = map[enum.DocumentType]KindInfo{
	enum.DocumentTypeInvoice: {
		Type:               enum.DocumentTypeInvoice,
		Prefix:             "INV",
		SecondaryDateLabel: "due_date",
	},
	enum.DocumentTypeReceipt: {
		Type:          enum.DocumentTypeReceipt,
		Prefix:        "SR",
		SettlesInFull: true,
	},
	enum.DocumentTypeEstimate: {
		Type:               enum.DocumentTypeEstimate,
		Prefix:             "EST",
		SecondaryDateLabel: "expiration_date",
		SettlesInFull:      true,
	},
	enum.DocumentTypeCreditNote: {
		Type:          enum.DocumentTypeCreditNote,
		Prefix:        "CN",
		ReferenceType: enum.ReferenceTypeCredit,
		SettlesInFull: true,
	},
	enum.DocumentTypeRefundReceipt: {
		Type:          enum.DocumentTypeRefundReceipt,
		Prefix:        "RR",
		ReferenceType: enum.ReferenceTypeRefund,
		SettlesInFull: true,
	},
	enum.DocumentTypePayment: {
		Type:          enum.DocumentTypePayment,
		Prefix:        "PMT",
		ReferenceType: enum.ReferenceTypePayment,
		SettlesInFull: true,
	},
}

// LookupKind returns the settings for a document type
func LookupKind(t enum.DocumentType) (KindInfo, error) {
	info, ok := kinds[t]
	if !ok {
		return KindInfo{}, ErrUnknownKind
	}
	return info, nil
}

// HasSecondaryDate reports whether documents of this kind carry a due or expiration date
func (k KindInfo) HasSecondaryDate() bool {
	return k.SecondaryDateLabel != ""
}

// ImportsReferences reports whether documents of this kind can import items
// from a customer's previous transactions
func (k KindInfo) ImportsReferences() bool {
	return k.ReferenceType != "" && k.Type != enum.DocumentTypePayment
}

// AppliesPayments reports whether this kind settles outstanding invoices
func (k KindInfo) AppliesPayments() bool {
	return k.Type == enum.DocumentTypePayment
}
