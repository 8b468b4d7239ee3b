package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ctxKey string

// UserIDKey is the context key for the authenticated user ID
const UserIDKey ctxKey = "user_id"

// UserScope returns a GORM scope that filters rows by their owning user.
// Queries without a user in context match nothing.
func UserScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		userID, ok := GetUserID(ctx)
		if !ok {
			return db.Where("1 = 0")
		}
		return db.Where("user_id = ?", userID)
	}
}

// WithUser adds the acting user ID to context
func WithUser(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the acting user ID from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}
