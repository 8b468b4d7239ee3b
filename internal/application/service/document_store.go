package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lop-gin/factory-finance-pal/internal/domain/document"
	"github.com/lop-gin/factory-finance-pal/internal/domain/repository"
	infraRepo "github.com/lop-gin/factory-finance-pal/internal/infrastructure/repository"
)

// DocumentStore persists finished forms through the document repository
type DocumentStore struct {
	docs repository.DocumentRepository
}

// NewDocumentStore creates a new document store
func NewDocumentStore(docs repository.DocumentRepository) *DocumentStore {
	return &DocumentStore{docs: docs}
}

// SaveDocument stores doc and returns the new row id. The acting user is
// read from ctx.
func (s *DocumentStore) SaveDocument(ctx context.Context, doc document.Document) (string, error) {
	userID, _ := infraRepo.GetUserID(ctx)

	rec, err := toEntity(doc, userID)
	if err != nil {
		return "", err
	}
	if err := s.docs.Create(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicateNumber) {
			return "", fmt.Errorf("%w: %w", document.ErrNumberTaken, err)
		}
		return "", err
	}
	return rec.ID.String(), nil
}
