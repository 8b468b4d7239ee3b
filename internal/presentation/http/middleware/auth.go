package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	infraRepo "github.com/lop-gin/factory-finance-pal/internal/infrastructure/repository"
	"github.com/lop-gin/factory-finance-pal/internal/presentation/http/dto/response"
	"github.com/lop-gin/factory-finance-pal/pkg/utils"
)

// AuthMiddleware validates the bearer token and puts the user on both the
// gin context and the request context
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_permissions", claims.Permissions)
		c.Request = c.Request.WithContext(infraRepo.WithUser(c.Request.Context(), claims.UserID))

		c.Next()
	}
}

// RequirePermission rejects tokens that do not carry the permission.
// Tokens without any permissions claim are let through.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		permissions := c.GetStringSlice("user_permissions")
		if len(permissions) == 0 {
			c.Next()
			return
		}

		for _, p := range permissions {
			if p == permission {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "You do not have permission to perform this action")
		c.Abort()
	}
}
