package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobtracknow/jobtrack-api/internal/models"
)

// RequireAdmin gates a route on the is_admin claim. Must run after JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Detail: "Not authenticated"})
			return
		}
		if !claims.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Detail: "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
