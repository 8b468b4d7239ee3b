package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lop-gin/factory-finance-pal/internal/domain/entity"
	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
	"github.com/lop-gin/factory-finance-pal/pkg/pagination"
)

// ErrDuplicateNumber is returned by Create when the document type already
// has a document with the same number
var ErrDuplicateNumber = errors.New("duplicate document number")

// DocumentFilterParams represents filter parameters for listing documents
type DocumentFilterParams struct {
	Pagination   *pagination.PaginationParams
	Search       string
	DocumentType *enum.DocumentType
	Status       *enum.DocumentStatus
	CustomerID   *uuid.UUID
	SortBy       string
	SortOrder    string
}

// TransactionFilter selects a customer's earlier documents. CustomerID wins
// over CustomerName when both are set.
type TransactionFilter struct {
	CustomerID   *uuid.UUID
	CustomerName string
	Types        []enum.DocumentType
}

// DocumentRepository defines the interface for sales document data operations
type DocumentRepository interface {
	// Create stores the document with its items, other fee, refund details,
	// references and payment applications in one transaction. Applications
	// reduce the balance due of the invoices they settle.
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	List(ctx context.Context, params *DocumentFilterParams) ([]entity.Document, int64, error)
	ListItems(ctx context.Context, documentID uuid.UUID) ([]entity.DocumentItem, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]entity.Document, error)
	ListOutstandingInvoices(ctx context.Context, customerID uuid.UUID) ([]entity.Document, error)
	CountByType(ctx context.Context, documentType enum.DocumentType) (int64, error)
}

// SequenceRepository hands out monotonically increasing numbers per document type
type SequenceRepository interface {
	Next(ctx context.Context, documentType enum.DocumentType) (int64, error)
}
