package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lop-gin/factory-finance-pal/internal/domain/document"
	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
	"github.com/lop-gin/factory-finance-pal/internal/domain/repository"
	"github.com/lop-gin/factory-finance-pal/pkg/apperror"
)

// referenceSourceTypes are the document types whose items can be imported
var referenceSourceTypes = []enum.DocumentType{
	enum.DocumentTypeInvoice,
	enum.DocumentTypeReceipt,
}

// TransactionService reads a customer's earlier documents for import and
// payment application
type TransactionService struct {
	docs repository.DocumentRepository
}

// NewTransactionService creates a new transaction lookup service
func NewTransactionService(docs repository.DocumentRepository) *TransactionService {
	return &TransactionService{docs: docs}
}

// ListTransactions returns the customer's invoices and receipts, newest first.
// Saved customers are matched by id and hand typed ones by name.
func (s *TransactionService) ListTransactions(ctx context.Context, c document.Customer) ([]document.Transaction, error) {
	filter := repository.TransactionFilter{
		CustomerName: c.Name,
		Types:        referenceSourceTypes,
	}
	if id, err := uuid.Parse(c.ID); err == nil {
		filter.CustomerID = &id
	}

	docs, err := s.docs.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]document.Transaction, 0, len(docs))
	for _, d := range docs {
		out = append(out, toTransaction(d))
	}
	return out, nil
}

// ListItems returns the line items of a stored document
func (s *TransactionService) ListItems(ctx context.Context, transactionID string) ([]document.LineItem, error) {
	id, err := uuid.Parse(transactionID)
	if err != nil {
		return nil, apperror.NewNotFoundError("Transaction")
	}

	items, err := s.docs.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]document.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, toLineItem(it))
	}
	return out, nil
}

// ListOutstandingInvoices returns the saved customer's invoices with an open
// balance. Customers without an id have none.
func (s *TransactionService) ListOutstandingInvoices(ctx context.Context, c document.Customer) ([]document.OutstandingInvoice, error) {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return []document.OutstandingInvoice{}, nil
	}

	docs, err := s.docs.ListOutstandingInvoices(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]document.OutstandingInvoice, 0, len(docs))
	for _, d := range docs {
		out = append(out, toOutstandingInvoice(d))
	}
	return out, nil
}
