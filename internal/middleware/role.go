package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"ticketing/internal/domain"
	"ticketing/internal/pkg/response"
)

// RequireRole lets the request through when the authenticated role is one of roles.
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		if !slices.Contains(roles, domain.UserRole(role)) {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}
