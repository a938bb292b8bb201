// Package middleware provides Gin HTTP middleware for admin authentication,
// security headers, request IDs, and request metrics.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RequestID → Metrics → Logger → Auth → Handler
//
// Security headers run first so they appear on all responses including errors.
// Request IDs are assigned before metrics and logging so both can correlate.
// Auth runs last, only on the admin route group, and populates the admin
// identity for handlers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/event-registry/event-registry/internal/auth"
)

// AdminAuthMiddleware validates the admin bearer token. Every admin endpoint
// sits behind this check; a request that fails here never reaches a handler,
// so no data is read or mutated.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Access denied. No token provided.",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authorization header must start with 'Bearer '",
			})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Access denied. No token provided.",
			})
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid or expired token.",
			})
			return
		}

		c.Set("admin_username", claims.Username)
		c.Next()
	}
}
