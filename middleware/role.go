package middleware

import (
	"net/http"

	"ylgguide/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole lets through only callers whose token carries role. Must run after JWTAuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Insufficient authorization"})
			return
		}
		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse{
				Message: "Forbidden",
				Details: "this endpoint requires the " + role + " role",
			})
			return
		}
		c.Next()
	}
}
