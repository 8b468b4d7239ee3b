package document

import "errors"

var (
	// ErrMissingCustomer is returned by Save when the customer name is empty
	ErrMissingCustomer = errors.New("please enter customer information")
	// ErrNoItems is returned by Save when the document has no line items
	ErrNoItems = errors.New("please add at least one item")
	// ErrNoPayment is returned by Save when a payment records no money
	ErrNoPayment = errors.New("please enter the amount received")
	// ErrNumberTaken is reported by a Store when another document already
	// uses the number
	ErrNumberTaken = errors.New("document number already in use")
	// ErrPersistenceFailure wraps any error reported by the Store
	ErrPersistenceFailure = errors.New("failed to save document")
	ErrUnknownKind        = errors.New("unknown document type")
	ErrReferencesDisabled = errors.New("document type does not import transactions")
	ErrPaymentsDisabled   = errors.New("document type does not apply payments")
)
