package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lop-gin/factory-finance-pal/internal/domain/entity"
	"github.com/lop-gin/factory-finance-pal/internal/domain/enum"
	domainRepo "github.com/lop-gin/factory-finance-pal/internal/domain/repository"
	"gorm.io/gorm"
)

// sortable columns accepted by List
var documentSortColumns = map[string]bool{
	"created_at": true,
	"date":       true,
	"number":     true,
	"total":      true,
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new sales document repository
func NewDocumentRepository(db *gorm.DB) domainRepo.DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *entity.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s %s", domainRepo.ErrDuplicateNumber, doc.DocumentType, doc.Number)
			}
			return err
		}

		for _, app := range doc.Applications {
			err := tx.Model(&entity.Document{}).
				Where("id = ? AND document_type = ?", app.InvoiceID, enum.DocumentTypeInvoice).
				Update("balance_due", gorm.Expr("GREATEST(balance_due - ?, 0)", app.Amount)).Error
			if err != nil {
				return err
			}
		}

		if len(doc.Applications) > 0 {
			invoiceIDs := make([]uuid.UUID, 0, len(doc.Applications))
			for _, app := range doc.Applications {
				invoiceIDs = append(invoiceIDs, app.InvoiceID)
			}
			err := tx.Model(&entity.Document{}).
				Where("id IN ? AND balance_due <= 0", invoiceIDs).
				Update("status", enum.DocumentStatusPaid).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	var doc entity.Document
	err := r.db.WithContext(ctx).Scopes(UserScope(ctx)).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &doc, err
}

func (r *documentRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	var doc entity.Document
	err := r.db.WithContext(ctx).Scopes(UserScope(ctx)).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("OtherFee").
		Preload("RefundReceipt").
		Preload("References").
		Preload("Applications").
		First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &doc, err
}

func (r *documentRepository) List(ctx context.Context, params *domainRepo.DocumentFilterParams) ([]entity.Document, int64, error) {
	var docs []entity.Document
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Document{}).Scopes(UserScope(ctx))

	if params.Search != "" {
		query = query.Where("number ILIKE ? OR customer_name ILIKE ?",
			"%"+params.Search+"%", "%"+params.Search+"%")
	}
	if params.DocumentType != nil {
		query = query.Where("document_type = ?", *params.DocumentType)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := "created_at"
	sortOrder := "DESC"
	if documentSortColumns[params.SortBy] {
		sortBy = params.SortBy
	}
	if params.SortOrder == "ASC" || params.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order(sortBy + " " + sortOrder).
		Find(&docs).Error

	return docs, total, err
}

func (r *documentRepository) ListItems(ctx context.Context, documentID uuid.UUID) ([]entity.DocumentItem, error) {
	var items []entity.DocumentItem
	err := r.db.WithContext(ctx).
		Joins("JOIN documents ON documents.id = document_items.document_id AND documents.deleted_at IS NULL").
		Scopes(UserScope(ctx)).
		Where("document_items.document_id = ?", documentID).
		Order("position ASC").
		Find(&items).Error
	return items, err
}

func (r *documentRepository) ListTransactions(ctx context.Context, filter domainRepo.TransactionFilter) ([]entity.Document, error) {
	var docs []entity.Document

	query := r.db.WithContext(ctx).Model(&entity.Document{}).Scopes(UserScope(ctx))
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	} else {
		query = query.Where("customer_name = ?", filter.CustomerName)
	}
	if len(filter.Types) > 0 {
		query = query.Where("document_type IN ?", filter.Types)
	}

	err := query.Order("date DESC, created_at DESC").Find(&docs).Error
	return docs, err
}

func (r *documentRepository) ListOutstandingInvoices(ctx context.Context, customerID uuid.UUID) ([]entity.Document, error) {
	var docs []entity.Document
	err := r.db.WithContext(ctx).Scopes(UserScope(ctx)).
		Where("customer_id = ? AND document_type = ? AND balance_due > 0", customerID, enum.DocumentTypeInvoice).
		Order("due_date ASC NULLS LAST, date ASC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepository) CountByType(ctx context.Context, documentType enum.DocumentType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&entity.Document{}).
		Where("document_type = ?", documentType).
		Count(&count).Error
	return count, err
}

type documentSequence struct {
	docs domainRepo.DocumentRepository
}

// NewDocumentSequence numbers documents from the count of rows already
// stored for the type. Gaps never occur but concurrent saves can collide,
// which the unique (document_type, number) index rejects.
func NewDocumentSequence(docs domainRepo.DocumentRepository) domainRepo.SequenceRepository {
	return &documentSequence{docs: docs}
}

func (s *documentSequence) Next(ctx context.Context, documentType enum.DocumentType) (int64, error) {
	count, err := s.docs.CountByType(ctx, documentType)
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}
