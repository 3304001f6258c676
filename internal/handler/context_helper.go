package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/edulog/workload-api/internal/middleware"
	"github.com/edulog/workload-api/internal/models"
)

// claimsFromContext pulls the authenticated user's claims set by the JWT
// middleware. Services treat a nil actor as unauthorized, so handlers pass
// the result through without checking.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	if claims, ok := value.(*models.JWTClaims); ok {
		return claims
	}
	return nil
}
