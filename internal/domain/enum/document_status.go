package enum

// DocumentStatus represents the settlement status of a saved document
type DocumentStatus string

const (
	DocumentStatusOpen DocumentStatus = "open"
	DocumentStatusPaid DocumentStatus = "paid"
)

func (s DocumentStatus) String() string {
	return string(s)
}
