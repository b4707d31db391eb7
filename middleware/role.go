package middleware

import (
	"net/http"

	"outlandish/models"

	"github.com/gin-gonic/gin"
)

// RequireAdmin must run after SessionAuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return requireRole("Admin access required", func(u *models.SessionUser) bool { return u.IsAdmin })
}

// RequireGuide admits guides and admins.
func RequireGuide() gin.HandlerFunc {
	return requireRole("Guide access required", func(u *models.SessionUser) bool { return u.IsGuide || u.IsAdmin })
}

func requireRole(message string, allowed func(*models.SessionUser) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Sign in to continue"})
			return
		}
		if !allowed(user) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": message})
			return
		}
		c.Next()
	}
}
