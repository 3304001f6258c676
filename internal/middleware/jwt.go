package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edulog/workload-api/internal/service"
	appErrors "github.com/edulog/workload-api/pkg/errors"
	"github.com/edulog/workload-api/pkg/response"
)

// ContextUserKey is the gin context key holding the authenticated claims.
const ContextUserKey = "currentUser"

// JWT guards a route group behind a valid Bearer access token. Validated
// claims land in the context for handlers and downstream middleware.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
