package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/miglee/miglee-backend/config"
	"github.com/miglee/miglee-backend/internal/auth"
	"github.com/miglee/miglee-backend/internal/guard"
)

// AuthMiddleware handles JWT authentication and stores the request actor
func AuthMiddleware(cfg *config.Config, authSvc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header", "code": guard.CodeUnauthenticated})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header", "code": guard.CodeUnauthenticated})
			return
		}

		tokenStr := parts[1]
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTAccessSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": guard.CodeUnauthenticated})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid claims", "code": guard.CodeUnauthenticated})
			return
		}

		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id missing in token", "code": guard.CodeUnauthenticated})
			return
		}

		userID := uint(userIDFloat)
		user, err := authSvc.GetUserByID(userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found", "code": guard.CodeUnauthenticated})
			return
		}

		if user.Status == auth.StatusBanned {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is banned", "code": guard.CodeForbidden})
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("actor", guard.Actor{UserID: user.ID, Role: user.Role})

		c.Next()
	}
}

// OptionalAuth resolves the actor when a valid Bearer token is present but
// lets anonymous requests through. Used on public read routes so owners still
// see their private intents.
func OptionalAuth(cfg *config.Config, authSvc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTAccessSecret), nil
		})
		if err != nil || !token.Valid {
			c.Next()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.Next()
			return
		}
		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			c.Next()
			return
		}

		user, err := authSvc.GetUserByID(uint(userIDFloat))
		if err != nil || user.Status == auth.StatusBanned {
			c.Next()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("actor", guard.Actor{UserID: user.ID, Role: user.Role})
		c.Next()
	}
}

// ActorFromContext returns the request-scoped identity set by AuthMiddleware.
// A zero actor means the route was not behind authentication.
func ActorFromContext(c *gin.Context) guard.Actor {
	if v, exists := c.Get("actor"); exists {
		if actor, ok := v.(guard.Actor); ok {
			return actor
		}
	}
	return guard.Actor{}
}
