package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lop-gin/factory-finance-pal/internal/domain/entity"
	"github.com/lop-gin/factory-finance-pal/pkg/pagination"
)

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
	List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error)
	// ListWithCursor fetches limit+1 rows so the caller can detect a next page
	ListWithCursor(ctx context.Context, params *pagination.CursorParams, search string) ([]entity.Customer, error)
}
