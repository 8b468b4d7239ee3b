package document

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
)

// Store persists a finished document together with its items, other fees,
// references and payment applications. It returns the id of the stored row.
type Store interface {
	SaveDocument(ctx context.Context, doc Document) (string, error)
}

// Numberer mints the next human readable document number for a type
type Numberer interface {
	Next(ctx context.Context, t enum.DocumentType) (string, error)
}

// Transaction is a previously saved document listed for reference import
type Transaction struct {
	ID     string              `json:"id"`
	Type   enum.DocumentType   `json:"type"`
	Number string              `json:"number"`
	Date   time.Time           `json:"date"`
	Total  decimal.Decimal     `json:"total"`
	Status enum.DocumentStatus `json:"status"`
}

// TransactionLookup reads the customer's earlier documents
type TransactionLookup interface {
	ListTransactions(ctx context.Context, c Customer) ([]Transaction, error)
	ListItems(ctx context.Context, transactionID string) ([]LineItem, error)
	ListOutstandingInvoices(ctx context.Context, c Customer) ([]OutstandingInvoice, error)
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is the user facing outcome of a save
type Notice struct {
	Level   NoticeLevel
	Type    enum.DocumentType
	Number  string
	Message string
}

type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notice) {}
