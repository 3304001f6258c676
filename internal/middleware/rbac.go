package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/edulog/workload-api/internal/models"
	appErrors "github.com/edulog/workload-api/pkg/errors"
	"github.com/edulog/workload-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes. Runs after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
