package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lop-gin/factory-finance-pal/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error)
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired removes keys past their expiry and reports how many were removed
	DeleteExpired(ctx context.Context) (int64, error)
}
