package enum

import (
	"encoding/json"
	"fmt"
)

// DocumentType identifies the kind of sales document
type DocumentType string

const (
	DocumentTypeInvoice       DocumentType = "invoice"
	DocumentTypeReceipt       DocumentType = "receipt"
	DocumentTypeEstimate      DocumentType = "estimate"
	DocumentTypeCreditNote    DocumentType = "credit_note"
	DocumentTypeRefundReceipt DocumentType = "refund_receipt"
	DocumentTypePayment       DocumentType = "payment"
)

// DocumentTypes lists every supported document type in display order
var DocumentTypes = []DocumentType{
	DocumentTypeInvoice,
	DocumentTypeReceipt,
	DocumentTypeEstimate,
	DocumentTypeCreditNote,
	DocumentTypeRefundReceipt,
	DocumentTypePayment,
}

func (t DocumentType) String() string {
	return string(t)
}

// Label returns the human readable name used in user facing messages
func (t DocumentType) Label() string {
	switch t {
	case DocumentTypeInvoice:
		return "Invoice"
	case DocumentTypeReceipt:
		return "Sales receipt"
	case DocumentTypeEstimate:
		return "Estimate"
	case DocumentTypeCreditNote:
		return "Credit note"
	case DocumentTypeRefundReceipt:
		return "Refund receipt"
	case DocumentTypePayment:
		return "Payment"
	}
	return "Document"
}

// IsValid reports whether t is one of the supported document types
func (t DocumentType) IsValid() bool {
	for _, known := range DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseDocumentType converts a wire name into a DocumentType
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown document type %q", s)
	}
	return t, nil
}

func (t *DocumentType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseDocumentType(str)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
