package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/miglee/miglee-backend/internal/guard"
)

// RBACMiddleware checks if the actor has one of the allowed platform roles
func RBACMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		if !actor.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "code": guard.CodeUnauthenticated})
			return
		}

		for _, role := range allowedRoles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role", "code": guard.CodeForbidden})
	}
}
