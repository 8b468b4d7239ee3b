package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lop-gin/factory-finance-pal/internal/domain/entity"
	"github.com/lop-gin/factory-finance-pal/internal/domain/repository"
	"github.com/lop-gin/factory-finance-pal/pkg/apperror"
	"github.com/lop-gin/factory-finance-pal/pkg/pagination"
)

// DocumentService serves read access to saved sales documents
type DocumentService struct {
	docs repository.DocumentRepository
}

// NewDocumentService creates a new document query service
func NewDocumentService(docs repository.DocumentRepository) *DocumentService {
	return &DocumentService{docs: docs}
}

// GetDocument retrieves a document with its items, fees and references
func (s *DocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	doc, err := s.docs.GetWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperror.NewNotFoundError("Document")
	}
	return doc, nil
}

// ListDocuments lists documents matching the filter
func (s *DocumentService) ListDocuments(ctx context.Context, params *repository.DocumentFilterParams) ([]entity.Document, *pagination.Pagination, error) {
	if params.Pagination == nil {
		params.Pagination = &pagination.PaginationParams{}
	}
	params.Pagination.Validate()

	docs, total, err := s.docs.List(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	return docs, pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total), nil
}
