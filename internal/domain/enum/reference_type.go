package enum

// ReferenceType describes why one document references another
type ReferenceType string

const (
	ReferenceTypeRefund  ReferenceType = "refund"
	ReferenceTypeCredit  ReferenceType = "credit"
	ReferenceTypePayment ReferenceType = "payment"
)
